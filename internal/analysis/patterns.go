package analysis

import (
	"sort"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// PatternConfig parameterizes the structural scans. The source
// methodology describes chunks and webs only qualitatively, so every
// knob is explicit and results are advisory, never authoritative.
type PatternConfig struct {
	// Sawtooth: minimum run length of span-1-chained moves.
	MinRun int
	// Chunk: window size bounds and density requirements.
	MinChunk      int
	MaxChunk      int
	ChunkDensity  float64 // internal L.I. must reach this multiple of the overall L.I.
	BoundaryRatio float64 // boundary-crossing links allowed, as a fraction of internal links
	// Web: small, very dense block.
	MaxWeb     int
	WebDensity float64
}

// DefaultPatternConfig mirrors the move-count ranges reported in the
// methodology: chunks of roughly a dozen to three dozen moves, webs of
// up to about seven.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		MinRun:        4,
		MinChunk:      12,
		MaxChunk:      36,
		ChunkDensity:  1.5,
		BoundaryRatio: 0.25,
		MaxWeb:        7,
		WebDensity:    2.5,
	}
}

func (c PatternConfig) withDefaults() PatternConfig {
	d := DefaultPatternConfig()
	if c.MinRun <= 0 {
		c.MinRun = d.MinRun
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	if c.MaxChunk <= 0 {
		c.MaxChunk = d.MaxChunk
	}
	if c.ChunkDensity <= 0 {
		c.ChunkDensity = d.ChunkDensity
	}
	if c.BoundaryRatio <= 0 {
		c.BoundaryRatio = d.BoundaryRatio
	}
	if c.MaxWeb <= 0 {
		c.MaxWeb = d.MaxWeb
	}
	if c.WebDensity <= 0 {
		c.WebDensity = d.WebDensity
	}
	return c
}

// Finding is one detected structure over a contiguous move range.
type Finding struct {
	Kind      string  `json:"kind"` // "sawtooth", "chunk", "web"
	Start     int     `json:"start"`
	End       int     `json:"end"`
	LinkIndex float64 `json:"link_index"`
	Advisory  bool    `json:"advisory"`
}

// ScanPatterns runs all three structural scans. Sawtooth tracks follow
// an exact rule; chunk and web candidates come from sliding-window
// heuristics and are flagged advisory.
func ScanPatterns(ls *linkograph.LinkSet, cfg PatternConfig) []Finding {
	cfg = cfg.withDefaults()
	var out []Finding
	out = append(out, sawtoothTracks(ls, cfg.MinRun)...)
	out = append(out, chunkCandidates(ls, cfg)...)
	out = append(out, webCandidates(ls, cfg)...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// sawtoothTracks finds maximal runs of at least minRun consecutive moves
// chained purely by span-1 links, with no move in the run carrying a
// link outside the chain.
func sawtoothTracks(ls *linkograph.LinkSet, minRun int) []Finding {
	n := ls.MoveCount()
	var out []Finding

	confined := func(k, start, end int) bool {
		for _, b := range ls.Backlinks(k) {
			if b != k-1 || k == start {
				return false
			}
		}
		for _, f := range ls.Forelinks(k) {
			if f != k+1 || k == end {
				return false
			}
		}
		return true
	}
	// Endpoint moves may carry links beyond the chain on their open side.
	endpointOK := func(k int, isStart bool) bool {
		if isStart {
			for _, f := range ls.Forelinks(k) {
				if f != k+1 {
					return false
				}
			}
			return true
		}
		for _, b := range ls.Backlinks(k) {
			if b != k-1 {
				return false
			}
		}
		return true
	}

	for start := 1; start <= n; {
		end := start
		for end < n && ls.Has(end, end+1) {
			end++
		}
		if end-start+1 >= minRun {
			ok := endpointOK(start, true) && endpointOK(end, false)
			for k := start + 1; ok && k < end; k++ {
				ok = confined(k, start, end)
			}
			if ok {
				li, _ := LinkIndexRange(ls, start, end)
				out = append(out, Finding{
					Kind:      "sawtooth",
					Start:     start,
					End:       end,
					LinkIndex: li,
				})
			}
		}
		if end == start {
			start++
		} else {
			start = end
		}
	}
	return out
}

func chunkCandidates(ls *linkograph.LinkSet, cfg PatternConfig) []Finding {
	return windowScan(ls, "chunk", cfg.MinChunk, cfg.MaxChunk, cfg.ChunkDensity, cfg.BoundaryRatio)
}

func webCandidates(ls *linkograph.LinkSet, cfg PatternConfig) []Finding {
	return windowScan(ls, "web", 3, cfg.MaxWeb, cfg.WebDensity, -1)
}

// windowScan slides windows of every admissible size over the sequence,
// keeps windows whose internal link index reaches density x the overall
// index (and, when boundaryRatio >= 0, whose boundary-crossing links
// stay under boundaryRatio x internal links), then greedily retains
// non-overlapping candidates, densest first.
func windowScan(ls *linkograph.LinkSet, kind string, minSize, maxSize int, density, boundaryRatio float64) []Finding {
	n := ls.MoveCount()
	overall := LinkIndex(ls)
	if overall == 0 || n < minSize {
		return nil
	}
	if maxSize > n {
		maxSize = n
	}

	var candidates []Finding
	for size := minSize; size <= maxSize; size++ {
		for start := 1; start+size-1 <= n; start++ {
			end := start + size - 1
			internal := 0
			crossing := 0
			for _, l := range ls.Links() {
				in1 := l.Source >= start && l.Source <= end
				in2 := l.Target >= start && l.Target <= end
				if in1 && in2 {
					internal++
				} else if in1 || in2 {
					crossing++
				}
			}
			li := float64(internal) / float64(size)
			if li < density*overall {
				continue
			}
			if boundaryRatio >= 0 && float64(crossing) > boundaryRatio*float64(internal) {
				continue
			}
			candidates = append(candidates, Finding{
				Kind:      kind,
				Start:     start,
				End:       end,
				LinkIndex: li,
				Advisory:  true,
			})
		}
	}

	// Densest first, then widest; keep non-overlapping winners.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].LinkIndex != candidates[j].LinkIndex {
			return candidates[i].LinkIndex > candidates[j].LinkIndex
		}
		return (candidates[i].End - candidates[i].Start) > (candidates[j].End - candidates[j].Start)
	})
	var kept []Finding
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.Start <= k.End && k.Start <= c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}
