package plan

import (
	"testing"

	"github.com/LaudateCorpus1/memplan/plan/interval"
)

// assertValidPlan checks the invariants every strategy must honor: sizes
// preserved exactly, time-overlapping regions byte-disjoint, and the total
// arena size equal to the furthest region end.
func assertValidPlan(t *testing.T, managed map[interval.LiveRange]uint64, allocations Allocations) {
	t.Helper()
	if len(allocations) != len(managed) {
		t.Fatalf("planned %d buffers, want %d", len(allocations), len(managed))
	}
	for lvr, size := range managed {
		reg, ok := allocations[lvr]
		if !ok {
			t.Fatalf("no region planned for range %+v", lvr)
		}
		if reg.Size != size {
			t.Errorf("range %+v: size %d, want %d", lvr, reg.Size, size)
		}
	}
	ranges := allocations.SortedRanges()
	for i, a := range ranges {
		for _, b := range ranges[i+1:] {
			if a.Overlaps(b) && allocations[a].Overlaps(allocations[b]) {
				t.Errorf("live-overlapping ranges %+v and %+v share bytes: %+v vs %+v",
					a, b, allocations[a], allocations[b])
			}
		}
	}
	var maxEnd uint64
	for _, reg := range allocations {
		if reg.End() > maxEnd {
			maxEnd = reg.End()
		}
		if reg.End() > allocations.TotalSize() {
			t.Errorf("region %+v exceeds total arena size %d", reg, allocations.TotalSize())
		}
	}
	if allocations.TotalSize() != maxEnd {
		t.Errorf("TotalSize() = %d, want %d", allocations.TotalSize(), maxEnd)
	}
}

// The worked example: A and B are concurrently live so they must not share
// bytes; C begins after both die and may reuse their bytes.
func exampleBuffers() map[interval.LiveRange]uint64 {
	return map[interval.LiveRange]uint64{
		{Begin: 0, End: 3}: 16, // A
		{Begin: 1, End: 2}: 8,  // B
		{Begin: 3, End: 5}: 16, // C
	}
}

func TestGreedyBySize_ReusesExpiredBytes(t *testing.T) {
	managed := exampleBuffers()
	allocations := greedyBySizeAllocations(managed)
	assertValidPlan(t, managed, allocations)

	a := allocations[interval.LiveRange{Begin: 0, End: 3}]
	b := allocations[interval.LiveRange{Begin: 1, End: 2}]
	c := allocations[interval.LiveRange{Begin: 3, End: 5}]

	if a.Offset != 0 {
		t.Errorf("A placed at %d, want 0", a.Offset)
	}
	if b.Offset != 16 {
		t.Errorf("B placed at %d, want 16", b.Offset)
	}
	if c.Offset != 0 {
		t.Errorf("C placed at %d, want 0 (reusing A's bytes)", c.Offset)
	}
	if allocations.TotalSize() != 24 {
		t.Errorf("total arena size %d, want 24", allocations.TotalSize())
	}
}

func TestGreedyBySize_FillsLowestGap(t *testing.T) {
	// Three concurrent buffers; the middle one expires in a separate test
	// case below, but here everything overlaps so offsets must stack.
	managed := map[interval.LiveRange]uint64{
		{Begin: 0, End: 10}: 32,
		{Begin: 0, End: 9}:  16,
		{Begin: 0, End: 8}:  8,
	}
	allocations := greedyBySizeAllocations(managed)
	assertValidPlan(t, managed, allocations)
	if allocations.TotalSize() != 56 {
		t.Errorf("fully concurrent buffers must stack: total %d, want 56", allocations.TotalSize())
	}
}

func TestLinearScan_ReusesGapsBestFit(t *testing.T) {
	// GIVEN one large buffer that dies, then two later buffers
	managed := map[interval.LiveRange]uint64{
		{Begin: 0, End: 2}: 32, // dies before the others begin
		{Begin: 2, End: 4}: 8,  // best-fit into the freed 32 bytes
		{Begin: 2, End: 5}: 16, // fits in the remainder
	}
	allocations := linearScanAllocations(managed)
	assertValidPlan(t, managed, allocations)

	// THEN nothing extends the arena beyond the first buffer
	if allocations.TotalSize() != 32 {
		t.Errorf("expired bytes must be recycled: total %d, want 32", allocations.TotalSize())
	}
}

func TestLinearScan_ExampleScenario(t *testing.T) {
	managed := exampleBuffers()
	allocations := linearScanAllocations(managed)
	assertValidPlan(t, managed, allocations)
	if allocations.TotalSize() != 24 {
		t.Errorf("total arena size %d, want 24", allocations.TotalSize())
	}
}

func TestFreeList_CoalescesAdjacentGaps(t *testing.T) {
	var f freeList
	f.release(interval.Region{Offset: 16, Size: 8})
	f.release(interval.Region{Offset: 0, Size: 16})
	// The two gaps are adjacent and must merge into [0, 24).
	off, ok := f.takeBestFit(24)
	if !ok {
		t.Fatal("expected a coalesced 24-byte gap")
	}
	if off != 0 {
		t.Errorf("coalesced gap at offset %d, want 0", off)
	}
}

func TestFreeList_SplitsRemainder(t *testing.T) {
	var f freeList
	f.release(interval.Region{Offset: 0, Size: 32})
	off, ok := f.takeBestFit(8)
	if !ok || off != 0 {
		t.Fatalf("takeBestFit(8) = (%d, %v), want (0, true)", off, ok)
	}
	off, ok = f.takeBestFit(24)
	if !ok || off != 8 {
		t.Fatalf("remainder not kept: takeBestFit(24) = (%d, %v), want (8, true)", off, ok)
	}
}

func TestStrategies_DifferentialValidity(t *testing.T) {
	// Greedy-by-size and linear-scan may disagree on the arena size, but both
	// plans must be valid for the same input.
	managed := map[interval.LiveRange]uint64{
		{Begin: 0, End: 4}:  64,
		{Begin: 1, End: 3}:  16,
		{Begin: 2, End: 6}:  32,
		{Begin: 4, End: 8}:  64,
		{Begin: 5, End: 7}:  8,
		{Begin: 6, End: 9}:  128,
		{Begin: 8, End: 10}: 16,
	}
	greedy := greedyBySizeAllocations(managed)
	scan := linearScanAllocations(managed)
	assertValidPlan(t, managed, greedy)
	assertValidPlan(t, managed, scan)
}

func TestStrategies_Deterministic(t *testing.T) {
	managed := map[interval.LiveRange]uint64{
		{Begin: 0, End: 4}: 64,
		{Begin: 1, End: 3}: 64, // same size forces the tie-break path
		{Begin: 2, End: 6}: 64,
		{Begin: 4, End: 8}: 32,
	}
	first := greedyBySizeAllocations(managed)
	second := greedyBySizeAllocations(managed)
	for lvr, reg := range first {
		if second[lvr] != reg {
			t.Errorf("greedy-by-size not deterministic for %+v: %+v vs %+v", lvr, reg, second[lvr])
		}
	}

	firstScan := linearScanAllocations(managed)
	secondScan := linearScanAllocations(managed)
	for lvr, reg := range firstScan {
		if secondScan[lvr] != reg {
			t.Errorf("linear-scan not deterministic for %+v: %+v vs %+v", lvr, reg, secondScan[lvr])
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]Strategy{
		"none":              NoPlan,
		"linear-scan":       LinearScan,
		"greedy-by-size":    GreedyBySize,
		"greedy-by-breadth": GreedyByBreadth,
	} {
		got, err := ParseStrategy(name)
		if err != nil {
			t.Fatalf("ParseStrategy(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", name, got, want)
		}
		if got.String() != name {
			t.Errorf("round-trip: %v.String() = %q, want %q", got, got.String(), name)
		}
	}
	if _, err := ParseStrategy("first-fit"); err == nil {
		t.Error("expected an error for an unknown strategy name")
	}
}
