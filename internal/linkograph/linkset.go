package linkograph

import (
	"fmt"
	"sort"
)

// Link connects two moves. Source is always the earlier move. Viewed from
// Target the link is a backlink; viewed from Source it is a forelink.
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Span is the move-index distance covered by the link, always >= 1.
func (l Link) Span() int {
	return l.Target - l.Source
}

// LinkSet is the sparse relation over move pairs for one sealed protocol.
// At most one link exists per unordered pair; insertion order does not
// matter. It is the single source of truth for every derived metric.
type LinkSet struct {
	n     int
	pairs map[Link]bool
}

// NewLinkSet creates an empty link set over a sealed store of n moves.
func NewLinkSet(store *MoveStore) (*LinkSet, error) {
	if !store.Sealed() {
		return nil, ErrUnsealed
	}
	return &LinkSet{
		n:     store.Len(),
		pairs: make(map[Link]bool),
	}, nil
}

// MoveCount returns the number of moves the set is bound to.
func (ls *LinkSet) MoveCount() int {
	return ls.n
}

// SaturationBound is the maximum possible link count for n moves.
func SaturationBound(n int) int {
	return n * (n - 1) / 2
}

// Add records a link between moves a and b, normalized so that
// source < target. Duplicate additions are idempotent.
func (ls *LinkSet) Add(a, b int) error {
	link, err := ls.normalize(a, b)
	if err != nil {
		return err
	}
	ls.pairs[link] = true
	return nil
}

// Remove deletes the link between a and b if present.
func (ls *LinkSet) Remove(a, b int) error {
	link, err := ls.normalize(a, b)
	if err != nil {
		return err
	}
	delete(ls.pairs, link)
	return nil
}

// Has reports whether a link exists between a and b.
func (ls *LinkSet) Has(a, b int) bool {
	link, err := ls.normalize(a, b)
	if err != nil {
		return false
	}
	return ls.pairs[link]
}

func (ls *LinkSet) normalize(a, b int) (Link, error) {
	if a == b {
		return Link{}, fmt.Errorf("move %d: %w", a, ErrSelfLink)
	}
	if a < 1 || a > ls.n {
		return Link{}, fmt.Errorf("move %d: %w (1..%d)", a, ErrOutOfRange, ls.n)
	}
	if b < 1 || b > ls.n {
		return Link{}, fmt.Errorf("move %d: %w (1..%d)", b, ErrOutOfRange, ls.n)
	}
	if a > b {
		a, b = b, a
	}
	return Link{Source: a, Target: b}, nil
}

// Total returns the number of links in the set.
func (ls *LinkSet) Total() int {
	return len(ls.pairs)
}

// Links returns all links ordered by (source, target).
func (ls *LinkSet) Links() []Link {
	out := make([]Link, 0, len(ls.pairs))
	for l := range ls.pairs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Backlinks returns the earlier moves linked to index, ascending.
func (ls *LinkSet) Backlinks(index int) []int {
	var out []int
	for l := range ls.pairs {
		if l.Target == index {
			out = append(out, l.Source)
		}
	}
	sort.Ints(out)
	return out
}

// Forelinks returns the later moves linked to index, ascending.
func (ls *LinkSet) Forelinks(index int) []int {
	var out []int
	for l := range ls.pairs {
		if l.Source == index {
			out = append(out, l.Target)
		}
	}
	sort.Ints(out)
	return out
}

// Clone returns an independent copy of the set.
func (ls *LinkSet) Clone() *LinkSet {
	pairs := make(map[Link]bool, len(ls.pairs))
	for l := range ls.pairs {
		pairs[l] = true
	}
	return &LinkSet{n: ls.n, pairs: pairs}
}

// Validate checks the structural invariants of the set: the saturation
// bound, and that the first move has no backlinks and the last move no
// forelinks (both hold by construction, so a failure means corruption).
func (ls *LinkSet) Validate() error {
	if bound := SaturationBound(ls.n); len(ls.pairs) > bound {
		return fmt.Errorf("%d links over %d moves: %w (max %d)", len(ls.pairs), ls.n, ErrSaturation, bound)
	}
	for l := range ls.pairs {
		if l.Source >= l.Target {
			return fmt.Errorf("link %d->%d: source must precede target", l.Source, l.Target)
		}
		if l.Source < 1 || l.Target > ls.n {
			return fmt.Errorf("link %d->%d: %w (1..%d)", l.Source, l.Target, ErrOutOfRange, ls.n)
		}
	}
	return nil
}
