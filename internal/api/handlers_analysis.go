package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/linkograph"
	"github.com/dsgnlab/linkograph/internal/render"
	"github.com/dsgnlab/linkograph/internal/report"
	"github.com/go-chi/chi/v5"
)

// session resolves {studyID} to a registered session, writing a 404 and
// returning nil when it does not exist.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *analysis.Session {
	studyID := chi.URLParam(r, "studyID")
	sess := s.orchestrator.Registry().Get(studyID)
	if sess == nil {
		jsonError(w, "protocol not found", http.StatusNotFound)
	}
	return sess
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"moves": sess.Store().Moves()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	snap, err := sess.Metrics()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// handleCritical classifies critical moves at an explicit threshold; the
// threshold is a study-level decision, never defaulted. With suggest=true
// it instead scans for a threshold whose critical share lands in a band.
func (s *Server) handleCritical(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	if r.URL.Query().Get("suggest") == "true" {
		minPct := queryFloat(r, "min_pct", 10)
		maxPct := queryFloat(r, "max_pct", 12)
		suggestion, err := analysis.SuggestThreshold(sess.LinksCopy(), minPct, maxPct)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(suggestion)
		return
	}

	t, err := strconv.Atoi(r.URL.Query().Get("t"))
	if err != nil {
		jsonError(w, "query parameter t (positive threshold) is required", http.StatusBadRequest)
		return
	}
	moves, err := sess.Critical(t)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if moves == nil {
		moves = []analysis.CriticalMove{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"threshold": t,
		"critical":  moves,
	})
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	cfg := analysis.PatternConfig{
		MinRun:        queryInt(r, "min_run", 0),
		MinChunk:      queryInt(r, "min_chunk", 0),
		MaxChunk:      queryInt(r, "max_chunk", 0),
		ChunkDensity:  queryFloat(r, "chunk_density", 0),
		BoundaryRatio: queryFloat(r, "boundary_ratio", 0),
		MaxWeb:        queryInt(r, "max_web", 0),
		WebDensity:    queryFloat(r, "web_density", 0),
	}
	findings := sess.Patterns(cfg)
	if findings == nil {
		findings = []analysis.Finding{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"advisory": true,
		"findings": findings,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	opts := report.Options{
		Title:    sess.Title(),
		Format:   r.URL.Query().Get("format"),
		Patterns: r.URL.Query().Get("patterns") == "true",
	}
	var err error
	if opts.Thresholds, err = queryIntList(r, "thresholds"); err != nil {
		jsonError(w, "thresholds: "+err.Error(), http.StatusBadRequest)
		return
	}
	if opts.Splits, err = queryIntList(r, "splits"); err != nil {
		jsonError(w, "splits: "+err.Error(), http.StatusBadRequest)
		return
	}

	out, err := report.Build(sess.Store(), sess.LinksCopy(), opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	contentType := "text/plain; charset=utf-8"
	if opts.Format == report.FormatMarkdown {
		contentType = "text/markdown; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write([]byte(out))
}

// handleLinkograph renders the diagram as a text grid, matrix, or SVG.
func (s *Server) handleLinkograph(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	store, links := sess.Store(), sess.LinksCopy()
	switch format := r.URL.Query().Get("format"); format {
	case "", "grid":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(render.Grid(store, links)))
	case "matrix":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(render.Matrix(store, links)))
	case "svg":
		opts := render.Options{
			Title:     sess.Title(),
			Threshold: queryInt(r, "threshold", 0),
			CellSize:  queryInt(r, "cell", 0),
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		if err := render.SVG(w, store, links, opts); err != nil {
			s.log.Error("svg render failed", "study_id", sess.ID(), "error", err)
		}
	default:
		jsonError(w, fmt.Sprintf("unknown format %q (grid, matrix, svg)", format), http.StatusBadRequest)
	}
}

func (s *Server) handleExportLinks(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sess.ID()+"-links.csv"))
	if err := linkograph.ExportLinksCSV(sess.LinksCopy(), w); err != nil {
		s.log.Error("csv export failed", "study_id", sess.ID(), "error", err)
	}
}

type linkEdit struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	s.editLink(w, r, func(sess *analysis.Session, e linkEdit) error {
		return sess.AddLink(e.Source, e.Target)
	})
}

func (s *Server) handleRemoveLink(w http.ResponseWriter, r *http.Request) {
	s.editLink(w, r, func(sess *analysis.Session, e linkEdit) error {
		return sess.RemoveLink(e.Source, e.Target)
	})
}

func (s *Server) editLink(w http.ResponseWriter, r *http.Request, apply func(*analysis.Session, linkEdit) error) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	var e linkEdit
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		jsonError(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := apply(sess, e); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"source": min(e.Source, e.Target),
		"target": max(e.Source, e.Target),
		"links":  sess.LinksCopy().Total(),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func queryIntList(r *http.Request, key string) ([]int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad value %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
