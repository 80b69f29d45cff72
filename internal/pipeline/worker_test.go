package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/archive"
	"github.com/dsgnlab/linkograph/internal/segmenter"
)

const testTranscript = `A: First I sketch the rim carefully.
B: Then the base gets much wider.
A: What about the handle shape here?
B: We round off the outer edge.
`

func testWorker(arch *archive.Client) (*Worker, *analysis.Registry) {
	reg := analysis.NewRegistry(time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(reg, arch, log, segmenter.Config{MinWords: 1, MaxWords: 40}), reg
}

func testJob() *Job {
	now := time.Now()
	job := &Job{
		ID:        "job-1",
		StudyID:   NewStudyID(),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  "session.txt",
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData([]byte(testTranscript))
	job.SetLinkData([]byte("source,target\n1,2\n2,3\n2,4\n"))
	return job
}

func TestWorker_ProcessCompletes(t *testing.T) {
	w, reg := testWorker(nil)
	job := testJob()

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Moves != 4 {
		t.Errorf("expected 4 moves, got %d", snap.Progress.Moves)
	}
	if snap.Progress.Links != 3 {
		t.Errorf("expected 3 links, got %d", snap.Progress.Links)
	}
	if job.ContentHash == "" {
		t.Error("expected content hash set")
	}

	sess := reg.Get(job.StudyID)
	if sess == nil {
		t.Fatal("expected session registered")
	}
	if sess.Store().Len() != 4 {
		t.Errorf("expected 4 moves in session, got %d", sess.Store().Len())
	}
	if !sess.Store().Sealed() {
		t.Error("expected sealed move store")
	}
}

func TestWorker_ProcessNoLinks(t *testing.T) {
	w, reg := testWorker(nil)
	job := testJob()
	job.SetLinkData(nil)

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", job.Snapshot().Status)
	}
	sess := reg.Get(job.StudyID)
	if sess == nil {
		t.Fatal("expected session registered")
	}
	if got := sess.LinksCopy().Total(); got != 0 {
		t.Errorf("expected empty link set, got %d links", got)
	}
}

func TestWorker_ProcessRejectsBadLinks(t *testing.T) {
	w, reg := testWorker(nil)
	job := testJob()
	job.SetLinkData([]byte("source,target\n1,1\n"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", snap.Status)
	}
	if snap.Phase != "linking" {
		t.Errorf("expected failure in linking phase, got %q", snap.Phase)
	}
	if reg.Get(job.StudyID) != nil {
		t.Error("failed job must not register a session")
	}
}

func TestWorker_ProcessUnsupportedFormat(t *testing.T) {
	w, _ := testWorker(nil)
	job := testJob()
	job.Filename = "session.xyz"

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Fatalf("expected failed, got %q", job.Snapshot().Status)
	}
}

func TestWorker_ProcessMirrorsToArchive(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	w, _ := testWorker(archive.NewClient(srv.URL, "k"))
	job := testJob()

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors: %v)", snap.Status, snap.Progress.Errors)
	}
	if !snap.Progress.Archived {
		t.Error("expected archived flag set")
	}
	if gotPath != "/studies/"+job.StudyID {
		t.Errorf("archive path: %q", gotPath)
	}
}

func TestWorker_ArchiveFailureIsPartial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	w, reg := testWorker(archive.NewClient(srv.URL, "k"))
	job := testJob()

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if snap.Progress.Archived {
		t.Error("archived flag must stay unset")
	}
	// The local session is still the source of truth.
	if reg.Get(job.StudyID) == nil {
		t.Error("expected session registered despite archive failure")
	}
}
