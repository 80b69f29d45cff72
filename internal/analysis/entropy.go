package analysis

import (
	"math"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// RowEntropy is the Shannon entropy of a row of potential links with
// `on` present out of `total` positions: H = -(p log2 p + q log2 q).
// Empty and saturated rows carry no surprise, so H = 0; a 50/50 split
// yields the maximum H = 1.
func RowEntropy(on, total int) float64 {
	if total <= 0 || on <= 0 || on >= total {
		return 0
	}
	p := float64(on) / float64(total)
	q := 1 - p
	return -(p*math.Log2(p) + q*math.Log2(q))
}

// BacklinkEntropy treats the backlink row of a move as a binary string
// over its i-1 potential positions.
func BacklinkEntropy(ls *linkograph.LinkSet, index int) float64 {
	return RowEntropy(len(ls.Backlinks(index)), index-1)
}

// ForelinkEntropy treats the forelink row of a move as a binary string
// over its n-i potential positions.
func ForelinkEntropy(ls *linkograph.LinkSet, index int) float64 {
	return RowEntropy(len(ls.Forelinks(index)), ls.MoveCount()-index)
}

// HorizontalEntropy treats all potential links of one span as a row:
// n-span positions, ON where a link of that span exists.
func HorizontalEntropy(ls *linkograph.LinkSet, span int) float64 {
	n := ls.MoveCount()
	if span < 1 || span >= n {
		return 0
	}
	on := 0
	for _, l := range ls.Links() {
		if l.Span() == span {
			on++
		}
	}
	return RowEntropy(on, n-span)
}

// MeanBacklinkEntropy averages backlink-row entropy over moves that have
// at least one potential backlink position (every move but the first).
func MeanBacklinkEntropy(ls *linkograph.LinkSet) float64 {
	n := ls.MoveCount()
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 2; i <= n; i++ {
		sum += BacklinkEntropy(ls, i)
	}
	return sum / float64(n-1)
}

// MeanForelinkEntropy averages forelink-row entropy over moves that have
// at least one potential forelink position (every move but the last).
func MeanForelinkEntropy(ls *linkograph.LinkSet) float64 {
	n := ls.MoveCount()
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < n; i++ {
		sum += ForelinkEntropy(ls, i)
	}
	return sum / float64(n-1)
}

// MeanHorizontalEntropy averages per-span entropy over spans 1..n-1.
func MeanHorizontalEntropy(ls *linkograph.LinkSet) float64 {
	n := ls.MoveCount()
	if n < 2 {
		return 0
	}
	var sum float64
	for span := 1; span < n; span++ {
		sum += HorizontalEntropy(ls, span)
	}
	return sum / float64(n-1)
}
