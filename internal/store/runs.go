package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// CreateRun inserts a running crawl run and sets run.ID.
func (s *SQLStore) CreateRun(ctx context.Context, run *model.CrawlRun) error {
	if run.Status == "" {
		run.Status = model.RunRunning
	}
	err := s.queryRow(ctx, `INSERT INTO crawl_runs (invocation_id, source_id, started_at, status)
		VALUES (?, ?, ?, ?) RETURNING id`,
		run.InvocationID, run.SourceID, run.StartedAt.UTC(), string(run.Status),
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("creating run for source %d: %w", run.SourceID, err)
	}
	return nil
}

// FinishRun stores the terminal state and counters of a run.
func (s *SQLStore) FinishRun(ctx context.Context, run *model.CrawlRun) error {
	if !run.Status.Terminal() {
		return fmt.Errorf("finishing run %d: status %q is not terminal", run.ID, run.Status)
	}
	_, err := s.exec(ctx, `UPDATE crawl_runs SET finished_at = ?, fetched_count = ?, new_count = ?,
		high_priority_count = ?, filtered_count = ?, status = ?, error_summary = ?
		WHERE id = ?`,
		nullTime(run.FinishedAt), run.FetchedCount, run.NewCount, run.HighPriorityCount,
		run.FilteredCount, string(run.Status), run.ErrorSummary, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent runs with their source names.
func (s *SQLStore) ListRuns(ctx context.Context, limit int) ([]model.CrawlRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, `SELECT r.id, r.invocation_id, r.source_id, COALESCE(src.name, ''),
		r.started_at, r.finished_at, r.fetched_count, r.new_count, r.high_priority_count,
		r.filtered_count, r.status, r.error_summary
		FROM crawl_runs r LEFT JOIN sources src ON src.id = r.source_id
		ORDER BY r.started_at DESC, r.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []model.CrawlRun
	for rows.Next() {
		var (
			r        model.CrawlRun
			finished sql.NullTime
			status   string
		)
		if err := rows.Scan(&r.ID, &r.InvocationID, &r.SourceID, &r.SourceName, &r.StartedAt, &finished,
			&r.FetchedCount, &r.NewCount, &r.HighPriorityCount, &r.FilteredCount, &status, &r.ErrorSummary); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if r.Status, err = model.ParseRunStatus(status); err != nil {
			return nil, fmt.Errorf("reading run %d: %w", r.ID, err)
		}
		r.StartedAt = r.StartedAt.UTC()
		r.FinishedAt = timePtr(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertNotification appends a delivery log row and sets n.ID.
func (s *SQLStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	var jobID sql.NullInt64
	if n.JobID != nil {
		jobID = sql.NullInt64{Int64: *n.JobID, Valid: true}
	}
	err := s.queryRow(ctx, `INSERT INTO notifications (job_id, channel, mode, sent_at, status, error)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		jobID, n.Channel, string(n.Mode), n.SentAt.UTC(), string(n.Status), n.Error,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("inserting %s notification: %w", n.Mode, err)
	}
	return nil
}

// CountNotificationsSince counts rows with the given mode and status sent at
// or after since.
func (s *SQLStore) CountNotificationsSince(ctx context.Context, since time.Time, mode model.NotificationMode, status model.NotificationStatus) (int, error) {
	var count int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE sent_at >= ? AND mode = ? AND status = ?`,
		since.UTC(), string(mode), string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting %s notifications: %w", mode, err)
	}
	return count, nil
}
