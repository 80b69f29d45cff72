package segmenter

import (
	"strings"

	"github.com/dsgnlab/linkograph/internal/transcript"
)

// Config controls how turns are cut into candidate design moves.
type Config struct {
	MinWords int // Fragments below this merge into the previous move.
	MaxWords int // Sentences above this split at clause boundaries.
}

// DefaultConfig returns sensible defaults. A design move is a short
// verbalized act, so the caps are tight.
func DefaultConfig() Config {
	return Config{
		MinWords: 3,
		MaxWords: 40,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinWords <= 0 {
		c.MinWords = d.MinWords
	}
	if c.MaxWords <= 0 {
		c.MaxWords = d.MaxWords
	}
	return c
}

// Segment cuts every turn of a session into move-sized utterances,
// keeping speaker, unit and line annotations. Segmentation is a
// mechanical pre-pass; researchers adjust the result by editing the
// transcript, not by configuring the engine.
func Segment(session *transcript.Session, cfg Config) []*transcript.Turn {
	cfg = cfg.withDefaults()

	var out []*transcript.Turn
	for _, turn := range session.Turns {
		for _, text := range segmentText(turn.Text, cfg) {
			out = append(out, &transcript.Turn{
				Speaker: turn.Speaker,
				Text:    text,
				Unit:    turn.Unit,
				Line:    turn.Line,
			})
		}
	}
	return out
}

// segmentText splits one turn into sentences, merging short fragments
// into their predecessor and splitting oversized sentences at clause
// punctuation.
func segmentText(text string, cfg Config) []string {
	var out []string
	for _, sent := range splitSentences(text) {
		if wordCount(sent) > cfg.MaxWords {
			out = append(out, splitClauses(sent, cfg.MaxWords)...)
			continue
		}
		if len(out) > 0 && wordCount(sent) < cfg.MinWords {
			out[len(out)-1] = out[len(out)-1] + " " + sent
			continue
		}
		out = append(out, sent)
	}
	// A lone fragment below the minimum still stands as a move.
	return out
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// splitClauses breaks an oversized sentence at commas and semicolons,
// packing clauses up to the word cap.
func splitClauses(sent string, maxWords int) []string {
	clauses := strings.FieldsFunc(sent, func(r rune) bool {
		return r == ',' || r == ';'
	})

	var out []string
	var current strings.Builder
	currentWords := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
		currentWords = 0
	}

	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		w := wordCount(clause)
		if currentWords > 0 && currentWords+w > maxWords {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(", ")
		}
		current.WriteString(clause)
		currentWords += w
	}
	flush()

	if len(out) == 0 {
		return []string{sent}
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
