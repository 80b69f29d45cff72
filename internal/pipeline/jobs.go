package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a protocol analysis job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSegmenting JobStatus = "segmenting"
	StatusLinking    JobStatus = "linking"
	StatusValidating JobStatus = "validating"
	StatusAnalyzing  JobStatus = "analyzing"
	StatusArchiving  JobStatus = "archiving"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks the state of a single protocol import.
type Job struct {
	mu sync.Mutex

	ID      string `json:"job_id"`
	StudyID string `json:"study_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	linkData []byte
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Moves     int      `json:"moves"`
	Links     int      `json:"links"`
	LinkIndex float64  `json:"link_index"`
	Archived  bool     `json:"archived"`
	Errors    []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetMoves records the sealed move count.
func (j *Job) SetMoves(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Moves = n
	j.UpdatedAt = time.Now()
}

// SetLinkStats records the imported link count and overall link index.
func (j *Job) SetLinkStats(links int, linkIndex float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Links = links
	j.Progress.LinkIndex = linkIndex
	j.UpdatedAt = time.Now()
}

// SetArchived records that the study record reached the archive.
func (j *Job) SetArchived() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Archived = true
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw transcript bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw transcript bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetLinkData sets the raw link-table CSV bytes, if one was uploaded.
func (j *Job) SetLinkData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.linkData = data
}

// LinkData returns the raw link-table CSV bytes.
func (j *Job) LinkData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.linkData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	StudyID  string    `json:"study_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		StudyID:  j.StudyID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			Moves:     j.Progress.Moves,
			Links:     j.Progress.Links,
			LinkIndex: j.Progress.LinkIndex,
			Archived:  j.Progress.Archived,
			Errors:    errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
