package parser

import (
	"bufio"
	"io"

	"github.com/dsgnlab/linkograph/internal/transcript"
)

// TextParser handles plain-text transcripts: one turn per non-blank
// line, with an optional leading "Speaker:" tag.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*transcript.Session, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	session := &transcript.Session{
		Title: titleFromFilename(filename),
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		speaker, text := transcript.SplitSpeaker(line)
		session.Append(&transcript.Turn{
			Speaker: speaker,
			Text:    text,
			Line:    lineNum,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return session, nil
}
