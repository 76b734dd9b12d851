package report

import (
	"sort"

	"github.com/edalab/copperview/pkg/drc"
)

// Summary aggregates a violation list for display.
type Summary struct {
	// Total is the number of violations.
	Total int

	// ByLayer counts violations per layer id.
	ByLayer map[string]int

	// MinDistanceMM is the smallest distance found across all violations.
	// Zero when Total is zero.
	MinDistanceMM float32

	// Worst is the violation with the smallest distance, nil when empty.
	Worst *drc.Violation
}

// Layers returns the layer ids with violations in sorted order.
func (s Summary) Layers() []string {
	ids := make([]string, 0, len(s.ByLayer))
	for id := range s.ByLayer {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Summarize builds a Summary from a violation list.
func Summarize(violations []drc.Violation) Summary {
	sum := Summary{
		Total:   len(violations),
		ByLayer: make(map[string]int),
	}
	for i := range violations {
		v := &violations[i]
		sum.ByLayer[v.LayerID]++
		if sum.Worst == nil || v.DistanceMM < sum.Worst.DistanceMM {
			sum.Worst = v
			sum.MinDistanceMM = v.DistanceMM
		}
	}
	return sum
}
