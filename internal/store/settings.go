package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// GetSetting returns the raw JSON blob stored under key.
func (s *SQLStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.queryRow(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading setting %q: %w", key, err)
	}
	return []byte(value), nil
}

// PutSetting inserts or replaces the blob stored under key.
func (s *SQLStore) PutSetting(ctx context.Context, key string, value []byte) error {
	_, err := s.exec(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}

const sourceColumns = `id, name, kind, base_url, board_token, listing_url, enabled, created_at`

func scanSource(row rowScanner) (model.Source, error) {
	var src model.Source
	err := row.Scan(&src.ID, &src.Name, &src.Kind, &src.BaseURL, &src.BoardToken, &src.ListingURL, &src.Enabled, &src.CreatedAt)
	src.CreatedAt = src.CreatedAt.UTC()
	return src, err
}

func (s *SQLStore) listSources(ctx context.Context, where string, args ...any) ([]model.Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources"
	if where != "" {
		query += " WHERE " + where
	}
	rows, err := s.query(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []model.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// ListSources returns every source ordered by id.
func (s *SQLStore) ListSources(ctx context.Context) ([]model.Source, error) {
	return s.listSources(ctx, "")
}

// ListEnabledSources returns the enabled sources ordered by id.
func (s *SQLStore) ListEnabledSources(ctx context.Context) ([]model.Source, error) {
	return s.listSources(ctx, "enabled = ?", true)
}

// UpsertSource inserts a source or updates the one with the same name, and
// sets src.ID and src.CreatedAt.
func (s *SQLStore) UpsertSource(ctx context.Context, src *model.Source) error {
	err := s.queryRow(ctx, `INSERT INTO sources (name, kind, base_url, board_token, listing_url, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET kind = excluded.kind, base_url = excluded.base_url,
			board_token = excluded.board_token, listing_url = excluded.listing_url, enabled = excluded.enabled
		RETURNING id`,
		src.Name, src.Kind, src.BaseURL, src.BoardToken, src.ListingURL, src.Enabled, time.Now().UTC(),
	).Scan(&src.ID)
	if err != nil {
		return fmt.Errorf("upserting source %q: %w", src.Name, err)
	}
	stored, err := scanSource(s.queryRow(ctx, "SELECT "+sourceColumns+" FROM sources WHERE id = ?", src.ID))
	if err != nil {
		return fmt.Errorf("reading source %q: %w", src.Name, err)
	}
	src.CreatedAt = stored.CreatedAt
	return nil
}

// SetSourceEnabled toggles a source and returns its updated row, or
// model.ErrNotFound.
func (s *SQLStore) SetSourceEnabled(ctx context.Context, id int64, enabled bool) (*model.Source, error) {
	res, err := s.exec(ctx, "UPDATE sources SET enabled = ? WHERE id = ?", enabled, id)
	if err != nil {
		return nil, fmt.Errorf("updating source %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.ErrNotFound
	}
	src, err := scanSource(s.queryRow(ctx, "SELECT "+sourceColumns+" FROM sources WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reading source %d: %w", id, err)
	}
	return &src, nil
}
