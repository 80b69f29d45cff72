package render

import (
	"fmt"
	"html"
	"io"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/linkograph"
)

// Options control SVG output. The zero value renders with defaults and
// no critical-move highlighting.
type Options struct {
	// CellSize is the horizontal distance between adjacent moves in
	// pixels. Defaults to 24.
	CellSize int
	// Threshold, when positive, highlights moves that are critical at
	// that threshold.
	Threshold int
	Title     string
}

// SVG writes the linkograph as a scalable vector diagram: moves along
// the top edge, link nodes at the diagonal intersections below, with
// lines tracing each link back to its two moves.
func SVG(w io.Writer, store *linkograph.MoveStore, ls *linkograph.LinkSet, opts Options) error {
	n := store.Len()
	u := float64(opts.CellSize)
	if u <= 0 {
		u = 24
	}
	margin := u

	maxSpan := 0
	for _, l := range ls.Links() {
		if s := l.Span(); s > maxSpan {
			maxSpan = s
		}
	}
	width := 2*margin + float64(n-1)*u
	if n == 0 {
		width = 2 * margin
	}
	height := 2*margin + float64(maxSpan)*u/2 + u/2

	critical := map[int]bool{}
	if opts.Threshold > 0 {
		cms, err := analysis.ClassifyCritical(ls, opts.Threshold)
		if err != nil {
			return err
		}
		for _, cm := range cms {
			critical[cm.Index] = true
		}
	}

	moveX := func(i int) float64 { return margin + float64(i-1)*u }
	nodeXY := func(l linkograph.Link) (float64, float64) {
		x := margin + float64(l.Source+l.Target-2)*u/2
		y := margin + float64(l.Span())*u/2
		return x, y
	}

	if _, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		width, height, width, height); err != nil {
		return err
	}
	if opts.Title != "" {
		fmt.Fprintf(w, `<title>%s</title>`+"\n", html.EscapeString(opts.Title))
	}

	fmt.Fprintf(w, `<g stroke="#555" stroke-width="1">`+"\n")
	for _, l := range ls.Links() {
		nx, ny := nodeXY(l)
		fmt.Fprintf(w, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			moveX(l.Source), margin, nx, ny)
		fmt.Fprintf(w, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			nx, ny, moveX(l.Target), margin)
	}
	fmt.Fprintf(w, "</g>\n")

	for _, l := range ls.Links() {
		nx, ny := nodeXY(l)
		fmt.Fprintf(w, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="#333"/>`+"\n", nx, ny, u/8)
	}

	for i := 1; i <= n; i++ {
		fill, r := "#000", u/6
		if critical[i] {
			fill, r = "#c22", u/4.5
		}
		fmt.Fprintf(w, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			moveX(i), margin, r, fill)
		fmt.Fprintf(w, `<text x="%.1f" y="%.1f" font-size="%.0f" text-anchor="middle" font-family="sans-serif">%d</text>`+"\n",
			moveX(i), margin-u/2.5, u/2.5, i)
	}

	_, err := fmt.Fprint(w, "</svg>\n")
	return err
}
