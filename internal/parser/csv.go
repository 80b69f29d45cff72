package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dsgnlab/linkograph/internal/transcript"
)

// CSVParser handles tabular transcripts. Rows are either
// (speaker, text) pairs or a single text column; a header row of
// `speaker,text` or `text` is recognized and skipped.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*transcript.Session, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	session := &transcript.Session{
		Title: titleFromFilename(filename),
	}
	if len(records) == 0 {
		return session, nil
	}

	start := 0
	if isTranscriptHeader(records[0]) {
		start = 1
	}

	for i, row := range records[start:] {
		rowNum := start + i + 1
		var speaker, text string
		switch len(row) {
		case 0:
			continue
		case 1:
			text = row[0]
		default:
			speaker = strings.TrimSpace(row[0])
			text = row[1]
		}
		session.Append(&transcript.Turn{
			Speaker: speaker,
			Text:    text,
			Line:    rowNum,
		})
	}

	return session, nil
}

func isTranscriptHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	if len(row) == 1 {
		return first == "text" || first == "move" || first == "utterance"
	}
	second := strings.ToLower(strings.TrimSpace(row[1]))
	return first == "speaker" && (second == "text" || second == "move" || second == "utterance")
}
