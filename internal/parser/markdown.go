package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dsgnlab/linkograph/internal/transcript"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown transcripts using goldmark. Headings
// become unit labels; each paragraph or list item becomes one turn.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*transcript.Session, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	session := &transcript.Session{
		Title: titleFromFilename(filename),
	}

	// Track the deepest heading as the current unit label. The first h1
	// doubles as the session title.
	var unit string
	sawTitle := false

	var emit func(n ast.Node)
	emit = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Heading:
			label := string(node.Text(src))
			if node.Level == 1 && !sawTitle {
				session.Title = label
				sawTitle = true
			}
			unit = label
		case *ast.List:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				emit(c)
			}
		case *ast.ListItem:
			appendTurn(session, extractText(node, src), unit)
		default:
			appendTurn(session, extractText(n, src), unit)
		}
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		emit(n)
	}

	return session, nil
}

func appendTurn(session *transcript.Session, raw, unit string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	speaker, text := transcript.SplitSpeaker(raw)
	session.Append(&transcript.Turn{
		Speaker: speaker,
		Text:    text,
		Unit:    unit,
	})
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			// Recurse for nested inlines and block children.
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
