package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LaudateCorpus1/memplan/plan/trace"
)

// TraceConfig is the YAML form of a captured allocation trace.
type TraceConfig struct {
	EventConfigs []EventConfig `yaml:"events"`
}

// EventConfig is one allocate or free record.
type EventConfig struct {
	Time   int64  `yaml:"time"`
	Kind   string `yaml:"kind"`
	Addr   string `yaml:"addr"`
	Size   uint64 `yaml:"size"`
	Schema string `yaml:"schema"`
	Header string `yaml:"header"`
}

// LoadTraceConfig reads and parses a YAML allocation trace.
func LoadTraceConfig(path string) (*TraceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace config: %w", err)
	}
	var cfg TraceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing trace config: %w", err)
	}
	return &cfg, nil
}

// Events converts the config into the chronological MemEvent log the planner
// consumes.
func (c *TraceConfig) Events() ([]trace.MemEvent, error) {
	events := make([]trace.MemEvent, 0, len(c.EventConfigs))
	for i, ec := range c.EventConfigs {
		var kind trace.EventKind
		switch ec.Kind {
		case "allocate":
			kind = trace.Allocate
		case "free":
			kind = trace.Free
		default:
			return nil, fmt.Errorf("event %d: unknown kind %q", i, ec.Kind)
		}
		events = append(events, trace.MemEvent{
			Time:       ec.Time,
			Addr:       ec.Addr,
			Size:       ec.Size,
			NodeSchema: ec.Schema,
			NodeHeader: ec.Header,
			Kind:       kind,
		})
	}
	return events, nil
}
