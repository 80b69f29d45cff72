package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dsgnlab/linkograph/internal/transcript"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF transcripts. It tries the Go library first,
// then falls back to pdftotext if available. Each non-blank line
// becomes a turn, labeled with its page.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*transcript.Session, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "linkograph-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	session := &transcript.Session{
		Title: titleFromFilename(filename),
	}

	lineNum := 0
	for pageIdx, page := range strings.Split(text, "\f") {
		unit := fmt.Sprintf("Page %d", pageIdx+1)
		for _, line := range strings.Split(page, "\n") {
			lineNum++
			speaker, turnText := transcript.SplitSpeaker(strings.TrimSpace(line))
			session.Append(&transcript.Turn{
				Speaker: speaker,
				Text:    turnText,
				Unit:    unit,
				Line:    lineNum,
			})
		}
	}

	return session, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
