package analysis

import (
	"fmt"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// CriticalKind says in which direction a move meets the threshold.
type CriticalKind string

const (
	ForwardCritical       CriticalKind = "forward"
	BackwardCritical      CriticalKind = "backward"
	BidirectionalCritical CriticalKind = "bidirectional"
)

// Notation renders the conventional critical-move marker for threshold t.
func (k CriticalKind) Notation(t int) string {
	switch k {
	case ForwardCritical:
		return fmt.Sprintf("CM%d>", t)
	case BackwardCritical:
		return fmt.Sprintf("<CM%d", t)
	case BidirectionalCritical:
		return fmt.Sprintf("<CM%d>", t)
	}
	return ""
}

// CriticalMove is one move that meets the threshold.
type CriticalMove struct {
	Index     int          `json:"index"`
	Backlinks int          `json:"backlinks"`
	Forelinks int          `json:"forelinks"`
	Kind      CriticalKind `json:"kind"`
}

// ClassifyCritical returns the moves whose backlink or forelink count
// meets threshold t, in index order. The threshold is always an explicit
// caller decision; it is study-specific, never a fixed constant. Pure:
// re-runnable for any number of thresholds over the same link set.
func ClassifyCritical(ls *linkograph.LinkSet, t int) ([]CriticalMove, error) {
	if t <= 0 {
		return nil, fmt.Errorf("criticality threshold must be positive, got %d", t)
	}
	var out []CriticalMove
	for i := 1; i <= ls.MoveCount(); i++ {
		b := len(ls.Backlinks(i))
		f := len(ls.Forelinks(i))
		var kind CriticalKind
		switch {
		case b >= t && f >= t:
			kind = BidirectionalCritical
		case b >= t:
			kind = BackwardCritical
		case f >= t:
			kind = ForwardCritical
		default:
			continue
		}
		out = append(out, CriticalMove{Index: i, Backlinks: b, Forelinks: f, Kind: kind})
	}
	return out, nil
}

// ThresholdSuggestion is the result of a threshold search. It is advice
// only: classification still requires the caller to pass a threshold.
type ThresholdSuggestion struct {
	Threshold int     `json:"threshold"`
	Count     int     `json:"count"`
	SharePct  float64 `json:"share_pct"`
}

// SuggestThreshold searches integer thresholds for one under which
// critical moves make up a share of the sequence inside
// [minPct, maxPct] percent. The methodology's usual working band is
// roughly 10-12% over sequences of at least ~20 moves. The suggestion
// is never applied automatically.
func SuggestThreshold(ls *linkograph.LinkSet, minPct, maxPct float64) (ThresholdSuggestion, error) {
	if minPct <= 0 || maxPct < minPct {
		return ThresholdSuggestion{}, fmt.Errorf("invalid target band [%.1f%%, %.1f%%]", minPct, maxPct)
	}
	n := ls.MoveCount()
	if n == 0 {
		return ThresholdSuggestion{}, fmt.Errorf("empty protocol: no threshold to suggest")
	}
	// The critical count is non-increasing in t, so scan upward and stop
	// once the share drops below the band.
	for t := 1; t <= n; t++ {
		criticals, err := ClassifyCritical(ls, t)
		if err != nil {
			return ThresholdSuggestion{}, err
		}
		share := 100 * float64(len(criticals)) / float64(n)
		if share < minPct {
			break
		}
		if share <= maxPct {
			return ThresholdSuggestion{Threshold: t, Count: len(criticals), SharePct: share}, nil
		}
	}
	return ThresholdSuggestion{}, fmt.Errorf("no threshold yields a critical share in [%.1f%%, %.1f%%]", minPct, maxPct)
}
