package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LaudateCorpus1/memplan/plan/graph"
)

// GraphConfig is the YAML description of a graph to plan.
type GraphConfig struct {
	Inputs  []string   `yaml:"inputs"`
	Ops     []OpConfig `yaml:"ops"`
	Outputs []string   `yaml:"outputs"`
}

// OpConfig describes one operation in execution order.
type OpConfig struct {
	Kind            string        `yaml:"kind"`
	Inputs          []string      `yaml:"inputs"`
	Outputs         []ValueConfig `yaml:"outputs"`
	OutVariant      bool          `yaml:"out_variant"`
	ContainerOutput bool          `yaml:"container_output"`
}

// ValueConfig describes one output value with its profiled type facts.
type ValueConfig struct {
	Name    string  `yaml:"name"`
	Dtype   string  `yaml:"dtype"`
	Sizes   []int64 `yaml:"sizes"`
	Strides []int64 `yaml:"strides"`
	Device  string  `yaml:"device"`
}

// LoadGraphConfig reads and parses a YAML graph description.
func LoadGraphConfig(path string) (*GraphConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph config: %w", err)
	}
	var cfg GraphConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing graph config: %w", err)
	}
	return &cfg, nil
}

// Build constructs the IR the config describes: one node per op in listed
// order, values wired by name.
func (c *GraphConfig) Build() (*graph.Graph, error) {
	catalog := graph.NewCatalog()
	for _, op := range c.Ops {
		catalog.Register(graph.OpInfo{
			Kind:            op.Kind,
			HasOutVariant:   op.OutVariant,
			ContainerOutput: op.ContainerOutput,
		})
	}

	g := graph.NewGraph(catalog)
	values := make(map[string]*graph.Value)
	for _, name := range c.Inputs {
		values[name] = g.AddInput(name)
	}

	for _, op := range c.Ops {
		node := g.Create(op.Kind, 0)
		for _, in := range op.Inputs {
			v, ok := values[in]
			if !ok {
				return nil, fmt.Errorf("op %s: unknown input value %q", op.Kind, in)
			}
			node.AddInput(v)
		}
		for _, out := range op.Outputs {
			v := node.AddOutput(out.Name)
			typ, err := out.tensorType()
			if err != nil {
				return nil, fmt.Errorf("op %s output %s: %w", op.Kind, out.Name, err)
			}
			v.SetType(typ)
			if _, exists := values[out.Name]; exists {
				return nil, fmt.Errorf("op %s: duplicate value name %q", op.Kind, out.Name)
			}
			values[out.Name] = v
		}
		g.Append(node)
	}

	for _, name := range c.Outputs {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("unknown graph output value %q", name)
		}
		g.RegisterOutput(v)
	}
	return g, nil
}

// tensorType converts the profiled facts of one value. An empty dtype means
// the value was never profiled and stays untyped.
func (vc ValueConfig) tensorType() (*graph.TensorType, error) {
	if vc.Dtype == "" {
		return nil, nil
	}
	dtype, err := graph.ParseScalarType(vc.Dtype)
	if err != nil {
		return nil, err
	}
	device, err := graph.ParseDeviceType(vc.Device)
	if err != nil {
		return nil, err
	}
	return &graph.TensorType{
		Dtype:   dtype,
		Sizes:   vc.Sizes,
		Strides: vc.Strides,
		Device:  device,
	}, nil
}
