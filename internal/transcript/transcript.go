package transcript

import "strings"

// Session is a parsed design-protocol transcript: an ordered list of
// verbalization turns, optionally grouped under unit labels taken from
// the source document's structure.
type Session struct {
	Title string  // Session title (from metadata or filename)
	Turns []*Turn // Verbalization turns in protocol order
}

// Turn is one speaker turn from the transcript. A turn may span several
// design moves; segmentation happens downstream.
type Turn struct {
	Speaker string // Speaker tag for team protocols (empty for solo sessions)
	Text    string // Verbatim turn text
	Unit    string // Enclosing unit label (heading, page), if any
	Line    int    // Source line or row (0 if N/A)
}

// Append adds a turn, dropping whitespace-only text.
func (s *Session) Append(turn *Turn) {
	if strings.TrimSpace(turn.Text) == "" {
		return
	}
	turn.Text = strings.TrimSpace(turn.Text)
	s.Turns = append(s.Turns, turn)
}

// SplitSpeaker pulls a leading "Name:" speaker tag off a turn line.
// Tags are short (up to three words) and must precede a colon; anything
// else is treated as plain text, since transcript content itself often
// contains colons mid-sentence.
func SplitSpeaker(line string) (speaker, text string) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", line
	}
	tag := strings.TrimSpace(line[:idx])
	if tag == "" || len(tag) > 40 || len(strings.Fields(tag)) > 3 {
		return "", line
	}
	// A tag containing sentence punctuation is prose, not a name.
	if strings.ContainsAny(tag, ".!?,;") {
		return "", line
	}
	return tag, strings.TrimSpace(line[idx+1:])
}
