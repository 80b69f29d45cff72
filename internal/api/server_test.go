package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/config"
	"github.com/dsgnlab/linkograph/internal/linkograph"
	"github.com/dsgnlab/linkograph/internal/pipeline"
)

const apiKey = "test-key"

func testServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := config.Config{
		Port:           "0",
		APIKey:         apiKey,
		WorkerCount:    2,
		MaxQueueSize:   10,
		MaxUploadBytes: 1 << 20,
		MinMoveWords:   1,
		MaxMoveWords:   40,
		JobTTL:         time.Hour,
		SessionTTL:     time.Hour,
	}
	reg := analysis.NewRegistry(cfg.SessionTTL)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, reg, nil, log)
	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)
	t.Cleanup(func() {
		cancel()
		orch.Stop()
	})
	return NewServer(orch, log, cfg), orch
}

func seedSession(t *testing.T, orch *pipeline.Orchestrator, id string) *analysis.Session {
	t.Helper()
	store := linkograph.NewMoveStore()
	for i := 1; i <= 5; i++ {
		if _, err := store.Append("A", fmt.Sprintf("move %d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	store.Seal()
	ls, err := linkograph.NewLinkSet(store)
	if err != nil {
		t.Fatalf("new link set: %v", err)
	}
	for _, p := range [][2]int{{1, 3}, {2, 4}, {2, 5}, {3, 4}, {3, 5}, {4, 5}} {
		if err := ls.Add(p[0], p[1]); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	sess, err := analysis.NewSession(id, "seeded", store, ls)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	orch.Registry().Put(sess)
	return sess
}

func doRequest(s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	s, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s, _ := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/protocols", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/protocols", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad key, got %d", rec.Code)
	}
}

func TestUploadAndPoll(t *testing.T) {
	s, orch := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "session.txt")
	fw.Write([]byte("A: First I sketch the rim.\nB: Then the base gets wider.\nA: We round off the edge.\n"))
	lw, _ := mw.CreateFormFile("links", "links.csv")
	lw.Write([]byte("source,target\n1,2\n1,3\n"))
	mw.WriteField("title", "uploaded study")
	mw.Close()

	rec := doRequest(s, http.MethodPost, "/api/protocols", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload: %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		JobID   string `json:"job_id"`
		StudyID string `json:"study_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		job := orch.GetJob(resp.JobID)
		if job == nil {
			t.Fatal("job vanished")
		}
		snap := job.Snapshot()
		if snap.Status == pipeline.StatusCompleted {
			break
		}
		if snap.Status == pipeline.StatusFailed || snap.Status == pipeline.StatusPartial {
			t.Fatalf("job ended %q: %v", snap.Status, snap.Progress.Errors)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %q", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec = doRequest(s, http.MethodGet, "/api/protocols/"+resp.StudyID+"/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d: %s", rec.Code, rec.Body.String())
	}
	var snap analysis.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if snap.MoveCount != 3 || snap.LinkCount != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	s, _ := testServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "session.xyz")
	fw.Write([]byte("hello"))
	mw.Close()

	rec := doRequest(s, http.MethodPost, "/api/protocols", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCriticalEndpoint(t *testing.T) {
	s, orch := testServer(t)
	seedSession(t, orch, "study-crit")

	rec := doRequest(s, http.MethodGet, "/api/protocols/study-crit/critical?t=3", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("critical: %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Threshold int                     `json:"threshold"`
		Critical  []analysis.CriticalMove `json:"critical"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Critical) != 1 || resp.Critical[0].Index != 5 {
		t.Errorf("expected move 5 critical at t=3: %+v", resp.Critical)
	}

	// Threshold is mandatory.
	rec = doRequest(s, http.MethodGet, "/api/protocols/study-crit/critical", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without t, got %d", rec.Code)
	}
	rec = doRequest(s, http.MethodGet, "/api/protocols/study-crit/critical?t=0", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for t=0, got %d", rec.Code)
	}
}

func TestLinkEditInvalidatesMetrics(t *testing.T) {
	s, orch := testServer(t)
	seedSession(t, orch, "study-edit")

	rec := doRequest(s, http.MethodPut, "/api/protocols/study-edit/links",
		strings.NewReader(`{"source":1,"target":2}`), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("add link: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodGet, "/api/protocols/study-edit/metrics", nil, "")
	var snap analysis.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.LinkCount != 7 {
		t.Errorf("expected 7 links after edit, got %d", snap.LinkCount)
	}

	// Self-links are rejected.
	rec = doRequest(s, http.MethodPut, "/api/protocols/study-edit/links",
		strings.NewReader(`{"source":2,"target":2}`), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for self-link, got %d", rec.Code)
	}
}

func TestExportLinksCSV(t *testing.T) {
	s, orch := testServer(t)
	seedSession(t, orch, "study-csv")

	rec := doRequest(s, http.MethodGet, "/api/protocols/study-csv/links.csv", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "source,target\n") {
		t.Errorf("missing header: %q", body)
	}
	if !strings.Contains(body, "1,3\n") {
		t.Errorf("missing row: %q", body)
	}
}

func TestLinkographFormats(t *testing.T) {
	s, orch := testServer(t)
	seedSession(t, orch, "study-render")

	for _, format := range []string{"grid", "matrix", "svg"} {
		rec := doRequest(s, http.MethodGet, "/api/protocols/study-render/linkograph?format="+format, nil, "")
		if rec.Code != http.StatusOK {
			t.Errorf("format %s: %d", format, rec.Code)
		}
	}
	rec := doRequest(s, http.MethodGet, "/api/protocols/study-render/linkograph?format=png", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}
}

func TestDeleteProtocol(t *testing.T) {
	s, orch := testServer(t)
	seedSession(t, orch, "study-del")

	rec := doRequest(s, http.MethodDelete, "/api/protocols/study-del", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if orch.Registry().Get("study-del") != nil {
		t.Error("session still registered")
	}
	rec = doRequest(s, http.MethodDelete, "/api/protocols/study-del", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestArchiveListWithoutMirror(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(s, http.MethodGet, "/api/archive/studies", nil, "")
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("expected 501 when mirror disabled, got %d", rec.Code)
	}
}
