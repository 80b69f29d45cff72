// Package report produces the textual summary of a linkograph study:
// counts, link index overall and per sub-range, span table, orphans,
// directionality, entropy, critical moves, and advisory patterns.
package report

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/linkograph"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Options select what the report contains and how it is formatted.
type Options struct {
	Title      string
	Format     string // FormatText (default) or FormatMarkdown
	Thresholds []int  // critical-move thresholds to list, each > 0
	Splits     []int  // cut points producing sub-ranges for per-range L.I.
	Patterns   bool
	PatternCfg analysis.PatternConfig
}

// rangeIndex is one sub-range row. Links crossing the cut points are
// excluded from every sub-range, so the per-range counts can sum to
// less than the whole.
type rangeIndex struct {
	From, To int
	Index    float64
}

type thresholdBlock struct {
	Threshold int
	Moves     []analysis.CriticalMove
}

type data struct {
	Title     string
	Snap      analysis.Snapshot
	Ranges    []rangeIndex
	Criticals []thresholdBlock
	Findings  []analysis.Finding
}

// Build assembles the report for a sealed protocol and its link set.
func Build(store *linkograph.MoveStore, ls *linkograph.LinkSet, opts Options) (string, error) {
	d, err := collect(store, ls, opts)
	if err != nil {
		return "", err
	}
	if opts.Format == FormatMarkdown {
		return renderMarkdown(d), nil
	}
	return renderText(d), nil
}

func collect(store *linkograph.MoveStore, ls *linkograph.LinkSet, opts Options) (data, error) {
	snap, err := analysis.Compute(ls)
	if err != nil {
		return data{}, err
	}
	d := data{Title: opts.Title, Snap: snap}

	if len(opts.Splits) > 0 {
		n := store.Len()
		cuts := append([]int(nil), opts.Splits...)
		sort.Ints(cuts)
		from := 1
		for _, c := range cuts {
			if c < from || c >= n {
				return data{}, fmt.Errorf("split point %d outside [%d, %d)", c, from, n)
			}
			li, err := analysis.LinkIndexRange(ls, from, c)
			if err != nil {
				return data{}, err
			}
			d.Ranges = append(d.Ranges, rangeIndex{From: from, To: c, Index: li})
			from = c + 1
		}
		li, err := analysis.LinkIndexRange(ls, from, n)
		if err != nil {
			return data{}, err
		}
		d.Ranges = append(d.Ranges, rangeIndex{From: from, To: n, Index: li})
	}

	for _, t := range opts.Thresholds {
		cms, err := analysis.ClassifyCritical(ls, t)
		if err != nil {
			return data{}, err
		}
		d.Criticals = append(d.Criticals, thresholdBlock{Threshold: t, Moves: cms})
	}

	if opts.Patterns {
		d.Findings = analysis.ScanPatterns(ls, opts.PatternCfg)
		if d.Findings == nil {
			d.Findings = []analysis.Finding{}
		}
	}
	return d, nil
}

func renderText(d data) string {
	var b strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&b, "%s\n%s\n\n", d.Title, strings.Repeat("=", len(d.Title)))
	}
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "moves\t%d\n", d.Snap.MoveCount)
	fmt.Fprintf(tw, "links\t%d (of %d possible)\n", d.Snap.LinkCount, d.Snap.SaturationBound)
	fmt.Fprintf(tw, "link index\t%.3f\n", d.Snap.LinkIndex)
	fmt.Fprintf(tw, "max span\t%d\n", d.Snap.MaxSpan)
	tw.Flush()

	if len(d.Ranges) > 0 {
		b.WriteString("\nLink index by range (crossing links excluded)\n")
		tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, r := range d.Ranges {
			fmt.Fprintf(tw, "  %d-%d\t%.3f\n", r.From, r.To, r.Index)
		}
		tw.Flush()
	}

	if len(d.Snap.SpanTable) > 0 {
		b.WriteString("\nSpan distribution\n")
		tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "  span\tcount\tcumulative\n")
		for _, s := range d.Snap.SpanTable {
			fmt.Fprintf(tw, "  %d\t%d\t%.1f%%\n", s.Span, s.Count, s.CumulativePct)
		}
		tw.Flush()
	}

	b.WriteString("\nDirectionality\n")
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, class := range classOrder {
		fmt.Fprintf(tw, "  %s\t%d\n", class, d.Snap.ClassCounts[class])
	}
	tw.Flush()
	fmt.Fprintf(&b, "  orphan moves: %s\n", intList(d.Snap.Orphans))

	b.WriteString("\nEntropy (mean per row)\n")
	tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  backlink\t%.4f\n", d.Snap.MeanBacklinkEntropy)
	fmt.Fprintf(tw, "  forelink\t%.4f\n", d.Snap.MeanForelinkEntropy)
	fmt.Fprintf(tw, "  horizontal\t%.4f\n", d.Snap.MeanHorizontalEntropy)
	tw.Flush()

	for _, blk := range d.Criticals {
		fmt.Fprintf(&b, "\nCritical moves at threshold %d (%d)\n", blk.Threshold, len(blk.Moves))
		tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, cm := range blk.Moves {
			fmt.Fprintf(tw, "  %d\t%s\t%d back, %d fore\n",
				cm.Index, cm.Kind.Notation(blk.Threshold), cm.Backlinks, cm.Forelinks)
		}
		tw.Flush()
	}

	if d.Findings != nil {
		fmt.Fprintf(&b, "\nStructural patterns (advisory heuristics)\n")
		if len(d.Findings) == 0 {
			b.WriteString("  none detected\n")
		}
		tw = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, f := range d.Findings {
			fmt.Fprintf(tw, "  %s\t%d-%d\tL.I. %.3f\n", f.Kind, f.Start, f.End, f.LinkIndex)
		}
		tw.Flush()
	}
	return b.String()
}

func renderMarkdown(d data) string {
	var b strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", d.Title)
	}
	fmt.Fprintf(&b, "| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| moves | %d |\n", d.Snap.MoveCount)
	fmt.Fprintf(&b, "| links | %d of %d possible |\n", d.Snap.LinkCount, d.Snap.SaturationBound)
	fmt.Fprintf(&b, "| link index | %.3f |\n", d.Snap.LinkIndex)
	fmt.Fprintf(&b, "| max span | %d |\n", d.Snap.MaxSpan)

	if len(d.Ranges) > 0 {
		b.WriteString("\n## Link index by range\n\nCrossing links excluded.\n\n")
		b.WriteString("| range | link index |\n|---|---|\n")
		for _, r := range d.Ranges {
			fmt.Fprintf(&b, "| %d-%d | %.3f |\n", r.From, r.To, r.Index)
		}
	}

	if len(d.Snap.SpanTable) > 0 {
		b.WriteString("\n## Span distribution\n\n| span | count | cumulative |\n|---|---|---|\n")
		for _, s := range d.Snap.SpanTable {
			fmt.Fprintf(&b, "| %d | %d | %.1f%% |\n", s.Span, s.Count, s.CumulativePct)
		}
	}

	b.WriteString("\n## Directionality\n\n| class | moves |\n|---|---|\n")
	for _, class := range classOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", class, d.Snap.ClassCounts[class])
	}
	fmt.Fprintf(&b, "\nOrphan moves: %s\n", intList(d.Snap.Orphans))

	fmt.Fprintf(&b, "\n## Entropy\n\n| row type | mean |\n|---|---|\n")
	fmt.Fprintf(&b, "| backlink | %.4f |\n", d.Snap.MeanBacklinkEntropy)
	fmt.Fprintf(&b, "| forelink | %.4f |\n", d.Snap.MeanForelinkEntropy)
	fmt.Fprintf(&b, "| horizontal | %.4f |\n", d.Snap.MeanHorizontalEntropy)

	for _, blk := range d.Criticals {
		fmt.Fprintf(&b, "\n## Critical moves at threshold %d\n\n", blk.Threshold)
		if len(blk.Moves) == 0 {
			b.WriteString("None.\n")
			continue
		}
		b.WriteString("| move | notation | backlinks | forelinks |\n|---|---|---|---|\n")
		for _, cm := range blk.Moves {
			fmt.Fprintf(&b, "| %d | %s | %d | %d |\n",
				cm.Index, cm.Kind.Notation(blk.Threshold), cm.Backlinks, cm.Forelinks)
		}
	}

	if d.Findings != nil {
		b.WriteString("\n## Structural patterns\n\nAdvisory heuristics, not authoritative.\n\n")
		if len(d.Findings) == 0 {
			b.WriteString("None detected.\n")
		} else {
			b.WriteString("| kind | range | link index |\n|---|---|---|\n")
			for _, f := range d.Findings {
				fmt.Fprintf(&b, "| %s | %d-%d | %.3f |\n", f.Kind, f.Start, f.End, f.LinkIndex)
			}
		}
	}
	return b.String()
}

var classOrder = []string{
	analysis.ClassOrphan,
	analysis.ClassBackwardOnly,
	analysis.ClassForwardOnly,
	analysis.ClassBidirectional,
}

func intList(xs []int) string {
	if len(xs) == 0 {
		return "none"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
