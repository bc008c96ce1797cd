// Package dedup decides whether a fetched posting is already known to the
// store. Identity is the source-native id when present, otherwise the
// fallback fingerprint; the store's uniqueness constraints settle races.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobdigest/internal/fingerprint"
	"github.com/amishk599/jobdigest/internal/model"
)

// Result is the outcome of a dedup lookup.
type Result struct {
	Known       bool   // an existing job matched; its is_new flag was cleared
	ExistingID  int64  // id of the matched job when Known
	Fingerprint string // fallback fingerprint of the posting
}

// Deduplicator looks up and persists postings for one source at a time.
type Deduplicator struct {
	repo   model.Repository
	logger *slog.Logger
}

// New creates a Deduplicator backed by repo.
func New(repo model.Repository, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{repo: repo, logger: logger}
}

// Check looks the posting up by native id, then by fingerprint. A match is
// demoted to not-new before returning.
func (d *Deduplicator) Check(ctx context.Context, sourceID int64, job model.NormalizedJob) (Result, error) {
	res := Result{Fingerprint: fingerprint.Compute(job.CanonicalURL, job.Title, job.Company)}

	var existing *model.Job
	if job.SourceJobID != "" {
		found, err := d.repo.FindJobByNativeID(ctx, sourceID, job.SourceJobID)
		if err != nil {
			return res, fmt.Errorf("dedup by native id: %w", err)
		}
		existing = found
	}
	if existing == nil {
		found, err := d.repo.FindJobByFallbackHash(ctx, sourceID, res.Fingerprint)
		if err != nil {
			return res, fmt.Errorf("dedup by fingerprint: %w", err)
		}
		existing = found
	}
	if existing == nil {
		return res, nil
	}

	if existing.IsNew {
		if err := d.repo.MarkJobSeen(ctx, existing.ID); err != nil {
			return res, fmt.Errorf("demoting job %d: %w", existing.ID, err)
		}
	}
	res.Known = true
	res.ExistingID = existing.ID
	return res, nil
}

// Persist inserts a new job with its score. It reports false without an
// error when a uniqueness constraint shows the job is already known.
func (d *Deduplicator) Persist(ctx context.Context, job *model.Job, score *model.JobScore) (bool, error) {
	err := d.repo.InsertJobWithScore(ctx, job, score)
	if errors.Is(err, model.ErrDuplicate) {
		d.logger.Debug("duplicate insert discarded", "source_id", job.SourceID, "title", job.Title)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NewJob builds the persisted form of a posting that Check reported as new.
func NewJob(sourceID int64, n model.NormalizedJob, res Result) *model.Job {
	return &model.Job{
		SourceID:       sourceID,
		SourceJobID:    n.SourceJobID,
		FallbackHash:   res.Fingerprint,
		CanonicalURL:   n.CanonicalURL,
		Title:          n.Title,
		Company:        n.Company,
		Location:       n.Location,
		RemoteType:     orUnknown(n.RemoteType),
		EmploymentType: orUnknown(n.EmploymentType),
		Description:    n.Description,
		PostedAt:       n.PostedAt,
		Raw:            n.Raw,
		IsNew:          true,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
