package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

const jobColumns = `j.id, j.source_id, j.source_job_id, j.fallback_hash, j.canonical_url, j.title,
	j.company, j.location, j.remote_type, j.employment_type, j.description,
	j.posted_at, j.collected_at, j.raw_payload, j.is_new`

const scoreColumns = `s.job_id, s.total_score, s.keyword_score, s.seniority_score, s.remote_bonus,
	s.region_bonus, s.decision, s.matched_keywords, s.scored_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner, extra ...any) (*model.Job, error) {
	var (
		j        model.Job
		nativeID sql.NullString
		posted   sql.NullTime
		raw      string
	)
	dest := append([]any{
		&j.ID, &j.SourceID, &nativeID, &j.FallbackHash, &j.CanonicalURL, &j.Title,
		&j.Company, &j.Location, &j.RemoteType, &j.EmploymentType, &j.Description,
		&posted, &j.CollectedAt, &raw, &j.IsNew,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	j.SourceJobID = nativeID.String
	j.PostedAt = timePtr(posted)
	j.CollectedAt = j.CollectedAt.UTC()
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &j.Raw); err != nil {
			return nil, fmt.Errorf("decoding raw payload of job %d: %w", j.ID, err)
		}
	}
	return &j, nil
}

// nullableScore receives the LEFT JOINed score columns.
type nullableScore struct {
	jobID     sql.NullInt64
	total     sql.NullFloat64
	keyword   sql.NullFloat64
	seniority sql.NullFloat64
	remote    sql.NullFloat64
	region    sql.NullFloat64
	decision  sql.NullString
	matched   sql.NullString
	scoredAt  sql.NullTime
}

func (n *nullableScore) dest() []any {
	return []any{&n.jobID, &n.total, &n.keyword, &n.seniority, &n.remote, &n.region, &n.decision, &n.matched, &n.scoredAt}
}

func (n *nullableScore) score() (*model.JobScore, error) {
	if !n.jobID.Valid {
		return nil, nil
	}
	decision, err := model.ParseDecision(n.decision.String)
	if err != nil {
		return nil, fmt.Errorf("reading score of job %d: %w", n.jobID.Int64, err)
	}
	sc := &model.JobScore{
		JobID:          n.jobID.Int64,
		Total:          n.total.Float64,
		KeywordScore:   n.keyword.Float64,
		SeniorityScore: n.seniority.Float64,
		RemoteBonus:    n.remote.Float64,
		RegionBonus:    n.region.Float64,
		Decision:       decision,
		ScoredAt:       n.scoredAt.Time.UTC(),
	}
	if n.matched.String != "" {
		if err := json.Unmarshal([]byte(n.matched.String), &sc.MatchedKeywords); err != nil {
			return nil, fmt.Errorf("decoding matched keywords of job %d: %w", sc.JobID, err)
		}
	}
	return sc, nil
}

func (s *SQLStore) findJob(ctx context.Context, where string, args ...any) (*model.Job, error) {
	row := s.queryRow(ctx, "SELECT "+jobColumns+" FROM jobs j WHERE "+where, args...)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

// FindJobByNativeID looks up a job by its source-native id within a source.
func (s *SQLStore) FindJobByNativeID(ctx context.Context, sourceID int64, nativeID string) (*model.Job, error) {
	if nativeID == "" {
		return nil, nil
	}
	j, err := s.findJob(ctx, "j.source_id = ? AND j.source_job_id = ?", sourceID, nativeID)
	if err != nil {
		return nil, fmt.Errorf("finding job %s/%d by native id: %w", nativeID, sourceID, err)
	}
	return j, nil
}

// FindJobByFallbackHash looks up a job by its fingerprint within a source.
func (s *SQLStore) FindJobByFallbackHash(ctx context.Context, sourceID int64, hash string) (*model.Job, error) {
	j, err := s.findJob(ctx, "j.source_id = ? AND j.fallback_hash = ?", sourceID, hash)
	if err != nil {
		return nil, fmt.Errorf("finding job by fingerprint in source %d: %w", sourceID, err)
	}
	return j, nil
}

// MarkJobSeen clears the is_new flag of a job that was observed again.
func (s *SQLStore) MarkJobSeen(ctx context.Context, jobID int64) error {
	if _, err := s.exec(ctx, "UPDATE jobs SET is_new = ? WHERE id = ?", false, jobID); err != nil {
		return fmt.Errorf("marking job %d seen: %w", jobID, err)
	}
	return nil
}

// InsertJobWithScore writes a job and its score in a single transaction.
func (s *SQLStore) InsertJobWithScore(ctx context.Context, job *model.Job, score *model.JobScore) error {
	raw, err := json.Marshal(job.Raw)
	if err != nil {
		return fmt.Errorf("encoding raw payload: %w", err)
	}
	if job.Raw == nil {
		raw = []byte("{}")
	}
	matched, err := json.Marshal(score.MatchedKeywords)
	if err != nil {
		return fmt.Errorf("encoding matched keywords: %w", err)
	}
	if score.MatchedKeywords == nil {
		matched = []byte("[]")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning job transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var id int64
	err = tx.QueryRowContext(ctx, s.rebind(`INSERT INTO jobs (
			source_id, source_job_id, fallback_hash, canonical_url, title, company, company_key,
			location, remote_type, employment_type, description, posted_at, collected_at, raw_payload, is_new
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		job.SourceID, nullString(job.SourceJobID), job.FallbackHash, job.CanonicalURL, job.Title,
		job.Company, model.CompanyKey(job.Company), job.Location, job.RemoteType, job.EmploymentType, job.Description,
		nullTime(job.PostedAt), job.CollectedAt.UTC(), string(raw), job.IsNew,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicate
		}
		return fmt.Errorf("inserting job %q: %w", job.Title, err)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO job_scores (
			job_id, total_score, keyword_score, seniority_score, remote_bonus, region_bonus,
			decision, matched_keywords, scored_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		id, score.Total, score.KeywordScore, score.SeniorityScore, score.RemoteBonus,
		score.RegionBonus, string(score.Decision), string(matched), score.ScoredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting score for job %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing job %d: %w", id, err)
	}
	job.ID = id
	score.JobID = id
	return nil
}

// JobsByCompanySince returns the jobs of one company collected at or after
// since. Names are compared by their model.CompanyKey.
func (s *SQLStore) JobsByCompanySince(ctx context.Context, company string, since time.Time) ([]model.HistoryJob, error) {
	rows, err := s.query(ctx, `SELECT j.source_id, j.title, j.collected_at, COALESCE(s.seniority_score, 0)
		FROM jobs j LEFT JOIN job_scores s ON s.job_id = j.id
		WHERE j.company_key = ? AND j.collected_at >= ?
		ORDER BY j.collected_at DESC`,
		model.CompanyKey(company), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying history of %q: %w", company, err)
	}
	defer rows.Close()

	var out []model.HistoryJob
	for rows.Next() {
		var h model.HistoryJob
		if err := rows.Scan(&h.SourceID, &h.Title, &h.CollectedAt, &h.SeniorityScore); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		h.CollectedAt = h.CollectedAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListJobs returns scored jobs matching q, newest first.
func (s *SQLStore) ListJobs(ctx context.Context, q model.JobQuery) ([]model.ScoredJob, error) {
	var (
		where []string
		args  []any
	)
	if q.Text != "" {
		like := "%" + strings.ToLower(q.Text) + "%"
		where = append(where, "(LOWER(j.title) LIKE ? OR LOWER(j.company) LIKE ? OR LOWER(j.description) LIKE ?)")
		args = append(args, like, like, like)
	}
	if q.SourceID != 0 {
		where = append(where, "j.source_id = ?")
		args = append(args, q.SourceID)
	}
	if q.Decision != "" {
		values := q.Decision.StoredValues()
		where = append(where, "s.decision IN (?"+strings.Repeat(", ?", len(values)-1)+")")
		for _, v := range values {
			args = append(args, v)
		}
	}
	if q.Since != nil {
		where = append(where, "j.collected_at >= ?")
		args = append(args, q.Since.UTC())
	}
	if q.Until != nil {
		where = append(where, "j.collected_at < ?")
		args = append(args, q.Until.UTC())
	}

	query := "SELECT " + jobColumns + ", " + scoreColumns + " FROM jobs j LEFT JOIN job_scores s ON s.job_id = j.id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY j.collected_at DESC, j.id DESC"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []model.ScoredJob
	for rows.Next() {
		var ns nullableScore
		j, err := scanJob(rows, ns.dest()...)
		if err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		sc, err := ns.score()
		if err != nil {
			return nil, err
		}
		out = append(out, model.ScoredJob{Job: *j, Score: sc})
	}
	return out, rows.Err()
}

// GetJob returns one job with its score, or model.ErrNotFound.
func (s *SQLStore) GetJob(ctx context.Context, id int64) (*model.ScoredJob, error) {
	var ns nullableScore
	row := s.queryRow(ctx, "SELECT "+jobColumns+", "+scoreColumns+
		" FROM jobs j LEFT JOIN job_scores s ON s.job_id = j.id WHERE j.id = ?", id)
	j, err := scanJob(row, ns.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %d: %w", id, err)
	}
	sc, err := ns.score()
	if err != nil {
		return nil, err
	}
	return &model.ScoredJob{Job: *j, Score: sc}, nil
}
