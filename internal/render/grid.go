package render

import (
	"fmt"
	"strings"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// Grid renders the classic triangular linkograph as text. Moves sit on
// the top row, two columns apart; the node for a link between moves i
// and j hangs below at row j-i (its span) and column i+j-2, halfway
// between its endpoints.
func Grid(store *linkograph.MoveStore, ls *linkograph.LinkSet) string {
	n := store.Len()
	if n == 0 {
		return ""
	}
	cols := 2*n - 1

	maxSpan := 0
	for _, l := range ls.Links() {
		if s := l.Span(); s > maxSpan {
			maxSpan = s
		}
	}

	rows := make([][]byte, maxSpan+1)
	for r := range rows {
		rows[r] = []byte(strings.Repeat(" ", cols))
	}
	for i := 1; i <= n; i++ {
		rows[0][2*(i-1)] = 'o'
	}
	for _, l := range ls.Links() {
		rows[l.Span()][l.Source+l.Target-2] = '*'
	}

	var b strings.Builder
	for _, line := range labelLines(n) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, r := range rows {
		b.WriteString(strings.TrimRight(string(r), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// labelLines stacks the digits of each move index vertically above its
// column, most significant digit first.
func labelLines(n int) []string {
	digits := len(fmt.Sprint(n))
	cols := 2*n - 1
	lines := make([][]byte, digits)
	for d := range lines {
		lines[d] = []byte(strings.Repeat(" ", cols))
	}
	for i := 1; i <= n; i++ {
		s := fmt.Sprint(i)
		for d := 0; d < len(s); d++ {
			lines[digits-len(s)+d][2*(i-1)] = s[d]
		}
	}
	out := make([]string, digits)
	for d := range lines {
		out[d] = strings.TrimRight(string(lines[d]), " ")
	}
	return out
}
