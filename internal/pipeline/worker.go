package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/archive"
	"github.com/dsgnlab/linkograph/internal/linkograph"
	"github.com/dsgnlab/linkograph/internal/parser"
	"github.com/dsgnlab/linkograph/internal/segmenter"
	"github.com/dsgnlab/linkograph/internal/transcript"
)

// Worker processes a single protocol job end to end: parse the
// transcript, segment it into moves, seal the store, import the link
// table, validate, compute metrics, register the analysis session, and
// mirror the study to the archive.
type Worker struct {
	registry *analysis.Registry
	archive  *archive.Client
	log      *slog.Logger
	segCfg   segmenter.Config
}

func NewWorker(reg *analysis.Registry, arch *archive.Client, log *slog.Logger, segCfg segmenter.Config) *Worker {
	return &Worker{
		registry: reg,
		archive:  arch,
		log:      log,
		segCfg:   segCfg,
	}
}

// Process runs the full analysis pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "study_id", job.StudyID)

	// Phase 1: parse the transcript.
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	session, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		session.Title = job.Title
	}

	// Compute content hash from the parsed text.
	job.ContentHash = ContentHashHex([]byte(flattenSessionText(session)))

	// Phase 2: segment turns into moves and seal the sequence.
	job.SetStatus(StatusSegmenting, "segmenting")
	turns := segmenter.Segment(session, w.segCfg)
	if len(turns) == 0 {
		log.Warn("no moves produced")
		job.AddError("no segmentable content")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	store := linkograph.NewMoveStore()
	for _, t := range turns {
		if _, err := store.AppendMove(linkograph.Move{
			Speaker: t.Speaker,
			Text:    t.Text,
			Unit:    t.Unit,
			Line:    t.Line,
		}); err != nil {
			job.AddError(fmt.Sprintf("append move: %s", err))
			job.SetStatus(StatusFailed, "segmenting")
			return
		}
	}
	store.Seal()
	job.SetMoves(store.Len())
	log.Info("segmented protocol", "moves", store.Len())

	// Phase 3: attach the link table, if one was uploaded.
	job.SetStatus(StatusLinking, "linking")
	var links *linkograph.LinkSet
	if data := job.LinkData(); len(data) > 0 {
		links, err = linkograph.ImportLinksCSV(store, bytes.NewReader(data))
		if err != nil {
			log.Error("link import failed", "error", err)
			job.AddError(fmt.Sprintf("links: %s", err))
			job.SetStatus(StatusFailed, "linking")
			return
		}
	} else {
		links, err = linkograph.NewLinkSet(store)
		if err != nil {
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "linking")
			return
		}
	}

	// Phase 4: validate the full link relation.
	job.SetStatus(StatusValidating, "validating")
	if err := links.Validate(); err != nil {
		log.Error("validation failed", "error", err)
		job.AddError(fmt.Sprintf("validate: %s", err))
		job.SetStatus(StatusFailed, "validating")
		return
	}

	// Phase 5: compute the metric snapshot.
	job.SetStatus(StatusAnalyzing, "analyzing")
	snap, err := analysis.Compute(links)
	if err != nil {
		log.Error("analysis failed", "error", err)
		job.AddError(fmt.Sprintf("analyze: %s", err))
		job.SetStatus(StatusFailed, "analyzing")
		return
	}
	job.SetLinkStats(snap.LinkCount, snap.LinkIndex)
	log.Info("analysis complete", "links", snap.LinkCount, "link_index", snap.LinkIndex)

	// Phase 6: register the interactive session.
	sess, err := analysis.NewSession(job.StudyID, session.Title, store, links)
	if err != nil {
		job.AddError(fmt.Sprintf("session: %s", err))
		job.SetStatus(StatusFailed, "analyzing")
		return
	}
	w.registry.Put(sess)

	// Phase 7: mirror the study to the archive, best effort with retry.
	if w.archive == nil {
		job.SetStatus(StatusCompleted, "done")
		return
	}
	job.SetStatus(StatusArchiving, "archiving")
	rec := archive.StudyRecord{
		ID:          job.StudyID,
		Title:       session.Title,
		ContentHash: job.ContentHash,
		CreatedAt:   job.CreatedAt,
		Moves:       store.Moves(),
		Links:       links.Links(),
		Metrics:     snap,
	}
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		lastErr = w.archive.PutStudy(ctx, rec)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable archive error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != nil {
		log.Error("archive mirror failed", "error", lastErr)
		job.AddError(fmt.Sprintf("archive: %s", lastErr))
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.SetArchived()
	job.SetStatus(StatusCompleted, "done")
}

// flattenSessionText joins all turn text into a single string for hashing.
func flattenSessionText(s *transcript.Session) string {
	var sb strings.Builder
	for _, t := range s.Turns {
		if t.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}
