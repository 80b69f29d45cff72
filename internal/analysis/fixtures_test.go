package analysis

import (
	"testing"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

func buildSet(t *testing.T, n int, pairs [][2]int) *linkograph.LinkSet {
	t.Helper()
	store := linkograph.NewMoveStore()
	for i := 0; i < n; i++ {
		if _, err := store.Append("", "move"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	store.Seal()
	ls, err := linkograph.NewLinkSet(store)
	if err != nil {
		t.Fatalf("new link set: %v", err)
	}
	for _, p := range pairs {
		if err := ls.Add(p[0], p[1]); err != nil {
			t.Fatalf("add %v: %v", p, err)
		}
	}
	return ls
}

// fiveMovePairs is the six-link worked example: moves 1 and 2 are
// forward-only, 3 and 4 bidirectional, 5 backward-only.
var fiveMovePairs = [][2]int{{1, 3}, {2, 4}, {2, 5}, {3, 4}, {3, 5}, {4, 5}}

// ashtrayPairs is a 27-move, 60-link session shaped like the ashtray
// analysis: a sparse first half (15 internal links), a dense second half
// (44 internal links), and a single link spanning the split. At
// threshold 7 exactly move 14 is forward-critical and moves 24 and 26
// are backward-critical.
var ashtrayPairs = [][2]int{
	{1, 3}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}, {7, 8}, {8, 9}, {9, 10},
	{10, 11}, {11, 12}, {12, 13}, {13, 14}, {2, 5}, {10, 13},
	{13, 20},
	{14, 15}, {14, 16}, {14, 17}, {14, 18}, {14, 19}, {14, 21}, {14, 22}, {14, 23},
	{15, 24}, {16, 24}, {17, 24}, {18, 24}, {19, 24}, {20, 24}, {21, 24},
	{15, 26}, {17, 26}, {19, 26}, {21, 26}, {22, 26}, {23, 26}, {25, 26},
	{15, 16}, {16, 17}, {17, 18}, {18, 19}, {19, 20}, {20, 21}, {21, 22},
	{22, 23}, {23, 25}, {25, 27}, {26, 27}, {24, 25}, {24, 27},
	{15, 18}, {16, 19}, {17, 20}, {18, 21}, {19, 22}, {20, 23}, {15, 20},
	{16, 21}, {22, 25},
}

func ashtraySet(t *testing.T) *linkograph.LinkSet {
	t.Helper()
	return buildSet(t, 27, ashtrayPairs)
}
