package plan

import (
	"fmt"
	"strings"

	"github.com/LaudateCorpus1/memplan/plan/graph"
	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// FormatPlan renders one line per planned value — name, live range, assigned
// region — in deterministic range order.
func FormatPlan(allocations Allocations, managedRanges map[*graph.Value]interval.LiveRange) string {
	return formatPlan(allocations, collectRangeValues(managedRanges))
}

// FormatRanges renders one "name: [begin, end)" line per managed value, in
// range order.
func FormatRanges(managedRanges map[*graph.Value]interval.LiveRange) string {
	var sb strings.Builder
	for _, rv := range collectRangeValues(managedRanges) {
		fmt.Fprintf(&sb, "%s: [%d, %d)\n", rv.val.Name(), rv.lvr.Begin, rv.lvr.End)
	}
	return sb.String()
}

func formatPlan(allocations Allocations, rangeValues []rangeValue) string {
	var sb strings.Builder
	for _, rv := range rangeValues {
		region := allocations[rv.lvr]
		fmt.Fprintf(&sb, "%s: [%d, %d) -> {offset: %d, size: %d}\n",
			rv.val.Name(), rv.lvr.Begin, rv.lvr.End, region.Offset, region.Size)
	}
	return sb.String()
}
