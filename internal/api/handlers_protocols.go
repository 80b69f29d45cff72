package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dsgnlab/linkograph/internal/archive"
	"github.com/dsgnlab/linkograph/internal/parser"
	"github.com/dsgnlab/linkograph/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// handleUpload accepts a transcript file plus an optional link-table CSV
// and queues the analysis pipeline.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	// Optional link table, judged by a human, attached as a second file.
	var linkData []byte
	if lf, _, err := r.FormFile("links"); err == nil {
		linkData, err = io.ReadAll(io.LimitReader(lf, s.cfg.MaxUploadBytes+1))
		lf.Close()
		if err != nil {
			jsonError(w, "failed to read links file", http.StatusInternalServerError)
			return
		}
	}

	studyID := r.FormValue("study_id")
	if studyID == "" {
		studyID = pipeline.NewStudyID()
	}
	title := r.FormValue("title")

	now := time.Now()
	job := &pipeline.Job{
		ID:        pipeline.ContentHashHex([]byte(fmt.Sprintf("%s-%s-%d", studyID, filename, now.UnixNano())))[:20],
		StudyID:   studyID,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	job.SetFileData(data)
	job.SetLinkData(linkData)

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"study_id": job.StudyID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"study_id": snap.StudyID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

// handleListProtocols lists the registered analysis sessions.
func (s *Server) handleListProtocols(w http.ResponseWriter, r *http.Request) {
	var out []map[string]any
	for _, sess := range s.orchestrator.Registry().List() {
		out = append(out, map[string]any{
			"study_id":   sess.ID(),
			"title":      sess.Title(),
			"moves":      sess.Store().Len(),
			"links":      sess.LinksCopy().Total(),
			"created_at": sess.CreatedAt,
		})
	}
	if out == nil {
		out = []map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"protocols": out})
}

func (s *Server) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"study_id":   sess.ID(),
		"title":      sess.Title(),
		"moves":      sess.Store().Len(),
		"links":      sess.LinksCopy().Total(),
		"speakers":   sess.Store().Speakers(),
		"created_at": sess.CreatedAt,
		"updated_at": sess.UpdatedAt(),
	})
}

// handleDeleteProtocol removes a session locally and, best effort, from
// the archive mirror.
func (s *Server) handleDeleteProtocol(w http.ResponseWriter, r *http.Request) {
	studyID := chi.URLParam(r, "studyID")
	if !s.orchestrator.Registry().Delete(studyID) {
		jsonError(w, "protocol not found", http.StatusNotFound)
		return
	}
	archiveDeleted := false
	if arch := s.orchestrator.Archive(); arch != nil {
		if err := arch.DeleteStudy(r.Context(), studyID); err != nil {
			s.log.Warn("archive delete failed", "study_id", studyID, "error", err)
		} else {
			archiveDeleted = true
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"deleted":         true,
		"archive_deleted": archiveDeleted,
	})
}

// handleArchiveList proxies a study listing from the archive mirror.
func (s *Server) handleArchiveList(w http.ResponseWriter, r *http.Request) {
	arch := s.orchestrator.Archive()
	if arch == nil {
		jsonError(w, "archive mirror is not configured", http.StatusNotImplemented)
		return
	}
	studies, err := arch.ListStudies(r.Context(), 200)
	if err != nil {
		jsonError(w, "failed to list archive: "+err.Error(), http.StatusBadGateway)
		return
	}
	if studies == nil {
		studies = []archive.StudySummary{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"studies": studies})
}

// handleArchiveDelete removes a mirrored study without touching the
// local session, if any.
func (s *Server) handleArchiveDelete(w http.ResponseWriter, r *http.Request) {
	arch := s.orchestrator.Archive()
	if arch == nil {
		jsonError(w, "archive mirror is not configured", http.StatusNotImplemented)
		return
	}
	studyID := chi.URLParam(r, "studyID")
	if err := arch.DeleteStudy(r.Context(), studyID); err != nil {
		jsonError(w, "failed to delete study: "+err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": true})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
