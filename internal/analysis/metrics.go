package analysis

import (
	"fmt"
	"sort"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// Directionality classes for a move, derived from its link pattern.
const (
	ClassOrphan        = "orphan"
	ClassBackwardOnly  = "backward_only"
	ClassForwardOnly   = "forward_only"
	ClassBidirectional = "bidirectional"
)

// SpanBucket is one row of the link-span frequency table.
type SpanBucket struct {
	Span          int     `json:"span"`
	Count         int     `json:"count"`
	CumulativePct float64 `json:"cumulative_pct"`
}

// Snapshot is a point-in-time aggregate of every core linkographic
// metric for one protocol.
type Snapshot struct {
	MoveCount       int     `json:"move_count"`
	LinkCount       int     `json:"link_count"`
	LinkIndex       float64 `json:"link_index"`
	SaturationBound int     `json:"saturation_bound"`

	Orphans       []int          `json:"orphans"`
	ClassCounts   map[string]int `json:"class_counts"`
	SpanTable     []SpanBucket   `json:"span_table"`
	MaxSpan       int            `json:"max_span"`

	MeanBacklinkEntropy   float64 `json:"mean_backlink_entropy"`
	MeanForelinkEntropy   float64 `json:"mean_forelink_entropy"`
	MeanHorizontalEntropy float64 `json:"mean_horizontal_entropy"`
}

// LinkIndex is the density of the whole sequence: links per move.
// An empty protocol has index 0 rather than an error.
func LinkIndex(ls *linkograph.LinkSet) float64 {
	n := ls.MoveCount()
	if n == 0 {
		return 0
	}
	return float64(ls.Total()) / float64(n)
}

// LinkIndexRange computes the link index over the sub-range [p, q],
// counting only links with both endpoints inside the range. A link that
// crosses the range boundary is counted in neither side of a split.
func LinkIndexRange(ls *linkograph.LinkSet, p, q int) (float64, error) {
	n := ls.MoveCount()
	if p < 1 || q > n {
		return 0, fmt.Errorf("range [%d,%d]: %w (1..%d)", p, q, linkograph.ErrOutOfRange, n)
	}
	if p > q {
		return 0, fmt.Errorf("range [%d,%d]: start after end", p, q)
	}
	inside := 0
	for _, l := range ls.Links() {
		if l.Source >= p && l.Target <= q {
			inside++
		}
	}
	return float64(inside) / float64(q-p+1), nil
}

// SpanDistribution builds the span frequency table with a cumulative
// percentage column: the share of all links with span <= that bucket's.
func SpanDistribution(ls *linkograph.LinkSet) []SpanBucket {
	counts := make(map[int]int)
	for _, l := range ls.Links() {
		counts[l.Span()]++
	}
	spans := make([]int, 0, len(counts))
	for s := range counts {
		spans = append(spans, s)
	}
	sort.Ints(spans)

	total := ls.Total()
	table := make([]SpanBucket, 0, len(spans))
	running := 0
	for _, s := range spans {
		running += counts[s]
		table = append(table, SpanBucket{
			Span:          s,
			Count:         counts[s],
			CumulativePct: 100 * float64(running) / float64(total),
		})
	}
	return table
}

// Orphans returns moves with no links in either direction.
func Orphans(ls *linkograph.LinkSet) []int {
	var out []int
	for i := 1; i <= ls.MoveCount(); i++ {
		if len(ls.Backlinks(i)) == 0 && len(ls.Forelinks(i)) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Classify returns the directionality class of one move.
func Classify(ls *linkograph.LinkSet, index int) (string, error) {
	if index < 1 || index > ls.MoveCount() {
		return "", fmt.Errorf("move %d: %w (1..%d)", index, linkograph.ErrNotFound, ls.MoveCount())
	}
	b := len(ls.Backlinks(index))
	f := len(ls.Forelinks(index))
	switch {
	case b == 0 && f == 0:
		return ClassOrphan, nil
	case b > 0 && f > 0:
		return ClassBidirectional, nil
	case b > 0:
		return ClassBackwardOnly, nil
	default:
		return ClassForwardOnly, nil
	}
}

// ClassCounts tallies moves per directionality class.
func ClassCounts(ls *linkograph.LinkSet) map[string]int {
	counts := map[string]int{
		ClassOrphan:        0,
		ClassBackwardOnly:  0,
		ClassForwardOnly:   0,
		ClassBidirectional: 0,
	}
	for i := 1; i <= ls.MoveCount(); i++ {
		class, _ := Classify(ls, i)
		counts[class]++
	}
	return counts
}

// Compute validates the set and assembles the full metrics snapshot.
func Compute(ls *linkograph.LinkSet) (Snapshot, error) {
	if err := ls.Validate(); err != nil {
		return Snapshot{}, err
	}
	n := ls.MoveCount()
	snap := Snapshot{
		MoveCount:       n,
		LinkCount:       ls.Total(),
		LinkIndex:       LinkIndex(ls),
		SaturationBound: linkograph.SaturationBound(n),
		Orphans:         Orphans(ls),
		ClassCounts:     ClassCounts(ls),
		SpanTable:       SpanDistribution(ls),
	}
	if snap.Orphans == nil {
		snap.Orphans = []int{}
	}
	if snap.SpanTable == nil {
		snap.SpanTable = []SpanBucket{}
	}
	for _, b := range snap.SpanTable {
		if b.Span > snap.MaxSpan {
			snap.MaxSpan = b.Span
		}
	}
	snap.MeanBacklinkEntropy = MeanBacklinkEntropy(ls)
	snap.MeanForelinkEntropy = MeanForelinkEntropy(ls)
	snap.MeanHorizontalEntropy = MeanHorizontalEntropy(ls)
	return snap, nil
}
