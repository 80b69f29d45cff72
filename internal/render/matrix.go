// Package render turns a move sequence and its link set into visual
// representations: a link matrix, a triangular text grid, and an SVG
// diagram. The matrix and the grid are two views of the same relation.
package render

import (
	"fmt"
	"strings"

	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// Matrix renders the link set as a square table. Rows and columns are
// move indices; a starred cell marks a link between the row and column
// moves. The table is symmetric, the diagonal is dashed out.
func Matrix(store *linkograph.MoveStore, ls *linkograph.LinkSet) string {
	n := store.Len()
	if n == 0 {
		return ""
	}
	width := len(fmt.Sprint(n))
	var b strings.Builder

	b.WriteString(strings.Repeat(" ", width+1))
	for j := 1; j <= n; j++ {
		fmt.Fprintf(&b, " %*d", width, j)
	}
	b.WriteByte('\n')

	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%*d ", width, i)
		for j := 1; j <= n; j++ {
			cell := "."
			switch {
			case i == j:
				cell = "-"
			case ls.Has(i, j):
				cell = "*"
			}
			fmt.Fprintf(&b, " %*s", width, cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
