package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/linkograph"
	"github.com/dsgnlab/linkograph/internal/parser"
	"github.com/dsgnlab/linkograph/internal/render"
	"github.com/dsgnlab/linkograph/internal/report"
	"github.com/dsgnlab/linkograph/internal/segmenter"
)

type rootFlags struct {
	links    string
	minWords int
	maxWords int
}

// NewRootCommand builds the linkograph CLI: analyze a local transcript
// plus a human-judged link table without running the service.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "linkograph",
		Short: "Construct and analyze linkographs from design-protocol transcripts",
		Long: `linkograph segments a transcript into design moves, attaches a
human-judged link table, and computes linkographic metrics, critical
moves, and diagrams.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.links, "links", "", "path to a source,target link-table CSV")
	cmd.PersistentFlags().IntVar(&flags.minWords, "min-words", 3, "merge move fragments shorter than this")
	cmd.PersistentFlags().IntVar(&flags.maxWords, "max-words", 40, "split moves longer than this at clause boundaries")

	cmd.AddCommand(newReportCommand(flags))
	cmd.AddCommand(newRenderCommand(flags))
	cmd.AddCommand(newCriticalCommand(flags))
	cmd.AddCommand(newThresholdCommand(flags))
	return cmd
}

// loadProtocol parses and segments a transcript file and attaches the
// link table named by --links, or an empty set when none is given.
func loadProtocol(path string, flags *rootFlags) (*linkograph.MoveStore, *linkograph.LinkSet, string, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, "", err
	}
	defer f.Close()
	session, err := p.Parse(f, path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("parse %s: %w", path, err)
	}

	turns := segmenter.Segment(session, segmenter.Config{
		MinWords: flags.minWords,
		MaxWords: flags.maxWords,
	})
	if len(turns) == 0 {
		return nil, nil, "", fmt.Errorf("%s: no segmentable content", path)
	}
	store := linkograph.NewMoveStore()
	for _, t := range turns {
		if _, err := store.AppendMove(linkograph.Move{
			Speaker: t.Speaker,
			Text:    t.Text,
			Unit:    t.Unit,
			Line:    t.Line,
		}); err != nil {
			return nil, nil, "", err
		}
	}
	store.Seal()

	var links *linkograph.LinkSet
	if flags.links != "" {
		lf, err := os.Open(flags.links)
		if err != nil {
			return nil, nil, "", err
		}
		defer lf.Close()
		links, err = linkograph.ImportLinksCSV(store, lf)
		if err != nil {
			return nil, nil, "", fmt.Errorf("links %s: %w", flags.links, err)
		}
	} else {
		links, err = linkograph.NewLinkSet(store)
		if err != nil {
			return nil, nil, "", err
		}
	}
	return store, links, session.Title, nil
}

// writeOutput sends text to --out, or stdout when unset.
func writeOutput(cmd *cobra.Command, out, text string) error {
	if out == "" {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	return os.WriteFile(out, []byte(text), 0644)
}

func newReportCommand(flags *rootFlags) *cobra.Command {
	var (
		format     string
		thresholds []int
		splits     []int
		patterns   bool
		out        string
	)
	cmd := &cobra.Command{
		Use:   "report <transcript>",
		Short: "Print the full metric report for a protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, links, title, err := loadProtocol(args[0], flags)
			if err != nil {
				return err
			}
			text, err := report.Build(store, links, report.Options{
				Title:      title,
				Format:     format,
				Thresholds: thresholds,
				Splits:     splits,
				Patterns:   patterns,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, text)
		},
	}
	cmd.Flags().StringVar(&format, "format", report.FormatText, "output format: text or markdown")
	cmd.Flags().IntSliceVar(&thresholds, "thresholds", nil, "critical-move thresholds to include")
	cmd.Flags().IntSliceVar(&splits, "splits", nil, "cut points for per-range link index")
	cmd.Flags().BoolVar(&patterns, "patterns", false, "include advisory structural patterns")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report to a file")
	return cmd
}

func newRenderCommand(flags *rootFlags) *cobra.Command {
	var (
		format    string
		threshold int
		cell      int
		out       string
	)
	cmd := &cobra.Command{
		Use:   "render <transcript>",
		Short: "Render the linkograph as a text grid, matrix, or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, links, title, err := loadProtocol(args[0], flags)
			if err != nil {
				return err
			}
			switch format {
			case "grid":
				return writeOutput(cmd, out, render.Grid(store, links))
			case "matrix":
				return writeOutput(cmd, out, render.Matrix(store, links))
			case "svg":
				var sb strings.Builder
				err := render.SVG(&sb, store, links, render.Options{
					Title:     title,
					Threshold: threshold,
					CellSize:  cell,
				})
				if err != nil {
					return err
				}
				return writeOutput(cmd, out, sb.String())
			default:
				return fmt.Errorf("unknown format %q (grid, matrix, svg)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "grid", "output format: grid, matrix, or svg")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "highlight critical moves at this threshold (svg only)")
	cmd.Flags().IntVar(&cell, "cell", 0, "cell size in pixels (svg only)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the diagram to a file")
	return cmd
}

func newCriticalCommand(flags *rootFlags) *cobra.Command {
	var (
		threshold int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "critical <transcript>",
		Short: "List critical moves at an explicit threshold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, links, _, err := loadProtocol(args[0], flags)
			if err != nil {
				return err
			}
			moves, err := analysis.ClassifyCritical(links, threshold)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(moves)
			}
			if len(moves) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no critical moves at threshold %d\n", threshold)
				return nil
			}
			for _, m := range moves {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-8s  %d back, %d fore\n",
					m.Index, m.Kind.Notation(threshold), m.Backlinks, m.Forelinks)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "criticality threshold (required, positive)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.MarkFlagRequired("threshold")
	return cmd
}

func newThresholdCommand(flags *rootFlags) *cobra.Command {
	var minPct, maxPct float64
	cmd := &cobra.Command{
		Use:   "threshold <transcript>",
		Short: "Suggest a criticality threshold for a target critical share",
		Long: `Scans ascending thresholds and reports the first whose critical-move
share falls inside the requested band. The suggestion is a starting
point for the analyst; it is never applied automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, links, _, err := loadProtocol(args[0], flags)
			if err != nil {
				return err
			}
			suggestion, err := analysis.SuggestThreshold(links, minPct, maxPct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "threshold %d yields %d critical moves (%.1f%% of moves)\n",
				suggestion.Threshold, suggestion.Count, suggestion.SharePct)
			return nil
		},
	}
	cmd.Flags().Float64Var(&minPct, "min-pct", 10, "lower bound of the critical share band")
	cmd.Flags().Float64Var(&maxPct, "max-pct", 12, "upper bound of the critical share band")
	return cmd
}
