package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

func fixture(t *testing.T, n int, pairs [][2]int) (*linkograph.MoveStore, *linkograph.LinkSet) {
	t.Helper()
	store := linkograph.NewMoveStore()
	for i := 1; i <= n; i++ {
		if _, err := store.Append("", fmt.Sprintf("move %d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	store.Seal()
	ls, err := linkograph.NewLinkSet(store)
	if err != nil {
		t.Fatalf("new link set: %v", err)
	}
	for _, p := range pairs {
		if err := ls.Add(p[0], p[1]); err != nil {
			t.Fatalf("add %v: %v", p, err)
		}
	}
	return store, ls
}

func TestMatrix(t *testing.T) {
	store, ls := fixture(t, 3, [][2]int{{1, 3}})
	out := Matrix(store, ls)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "1 2 3") {
		t.Errorf("bad header: %q", lines[0])
	}
	// symmetric: row 1 col 3 and row 3 col 1
	if !strings.HasSuffix(lines[1], "- . *") {
		t.Errorf("row 1 wrong: %q", lines[1])
	}
	if !strings.HasSuffix(lines[3], "* . -") {
		t.Errorf("row 3 wrong: %q", lines[3])
	}
}

func TestMatrix_Empty(t *testing.T) {
	store, ls := fixture(t, 0, nil)
	if out := Matrix(store, ls); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestGrid_NodePlacement(t *testing.T) {
	store, ls := fixture(t, 5, [][2]int{{1, 3}, {2, 5}})
	out := Grid(store, ls)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// one label line, then the move row, then rows 1..maxSpan
	if len(lines) != 1+1+3 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), out)
	}
	if lines[1] != "o o o o o" {
		t.Errorf("move row wrong: %q", lines[1])
	}
	// link {1,3}: span 2, column 1+3-2 = 2
	if got := lines[1+2]; len(got) <= 2 || got[2] != '*' {
		t.Errorf("node for {1,3} not at row 2 col 2: %q", got)
	}
	// link {2,5}: span 3, column 2+5-2 = 5
	if got := lines[1+3]; len(got) <= 5 || got[5] != '*' {
		t.Errorf("node for {2,5} not at row 3 col 5: %q", got)
	}
}

func TestGrid_Labels(t *testing.T) {
	store, ls := fixture(t, 12, nil)
	out := Grid(store, ls)
	lines := strings.Split(out, "\n")
	// two digit rows for n=12; move 10 lives at column 18
	if len(lines) < 3 {
		t.Fatalf("short output:\n%s", out)
	}
	if lines[0][18] != '1' || lines[1][18] != '0' {
		t.Errorf("label for move 10 wrong:\n%q\n%q", lines[0], lines[1])
	}
}

func TestSVG(t *testing.T) {
	store, ls := fixture(t, 5, [][2]int{{1, 3}, {2, 4}, {2, 5}, {3, 4}, {3, 5}, {4, 5}})
	var buf bytes.Buffer
	if err := SVG(&buf, store, ls, Options{}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<svg ") || !strings.HasSuffix(out, "</svg>\n") {
		t.Fatalf("not an svg document:\n%s", out)
	}
	if got := strings.Count(out, "<line "); got != 12 {
		t.Errorf("expected 2 lines per link (12), got %d", got)
	}
	// 6 link nodes plus 5 move circles
	if got := strings.Count(out, "<circle "); got != 11 {
		t.Errorf("expected 11 circles, got %d", got)
	}
}

func TestSVG_CriticalHighlight(t *testing.T) {
	store, ls := fixture(t, 5, [][2]int{{1, 3}, {2, 4}, {2, 5}, {3, 4}, {3, 5}, {4, 5}})
	var buf bytes.Buffer
	if err := SVG(&buf, store, ls, Options{Threshold: 3}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	// only move 5 reaches 3 links in one direction
	if got := strings.Count(buf.String(), `fill="#c22"`); got != 1 {
		t.Errorf("expected 1 highlighted move, got %d", got)
	}
}

func TestSVG_Title(t *testing.T) {
	store, ls := fixture(t, 2, nil)
	var buf bytes.Buffer
	if err := SVG(&buf, store, ls, Options{Title: "a <b> study"}); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !strings.Contains(buf.String(), "a &lt;b&gt; study") {
		t.Errorf("title not escaped: %s", buf.String())
	}
}
