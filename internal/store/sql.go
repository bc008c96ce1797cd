package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure SQLStore implements model.Repository.
var _ model.Repository = (*SQLStore)(nil)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	name      string
	idColumn  string
	timestamp string
	float     string
}

var (
	sqliteDialect = dialect{
		name:      DriverSQLite,
		idColumn:  "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestamp: "TIMESTAMP",
		float:     "REAL",
	}
	postgresDialect = dialect{
		name:      DriverPostgres,
		idColumn:  "BIGSERIAL PRIMARY KEY",
		timestamp: "TIMESTAMPTZ",
		float:     "DOUBLE PRECISION",
	}
)

// SQLStore persists jobs, scores, runs, notifications, sources and settings
// in SQLite or PostgreSQL. Queries are written with "?" placeholders and
// rebound for PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to the given driver ("sqlite" or "postgres") and ensures the
// schema exists.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var (
		db  *sql.DB
		d   dialect
		err error
	)
	switch driver {
	case DriverSQLite, "":
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		d = sqliteDialect
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		// One writer at a time; keeps the busy_timeout pragma on the only connection.
		db.SetMaxOpenConns(1)
	}

	// Verify the connection is alive.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s db: %w", d.name, err)
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "_time_format") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite"
}

func (s *SQLStore) migrate(ctx context.Context) error {
	d := s.dialect
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sources (
			id          %s,
			name        TEXT NOT NULL UNIQUE,
			kind        TEXT NOT NULL,
			base_url    TEXT NOT NULL DEFAULT '',
			board_token TEXT NOT NULL DEFAULT '',
			listing_url TEXT NOT NULL DEFAULT '',
			enabled     BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  %s NOT NULL
		)`, d.idColumn, d.timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS jobs (
			id              %s,
			source_id       BIGINT NOT NULL REFERENCES sources(id),
			source_job_id   TEXT,
			fallback_hash   TEXT NOT NULL,
			canonical_url   TEXT NOT NULL,
			title           TEXT NOT NULL,
			company         TEXT NOT NULL DEFAULT '',
			company_key     TEXT NOT NULL DEFAULT '',
			location        TEXT NOT NULL DEFAULT '',
			remote_type     TEXT NOT NULL DEFAULT 'unknown',
			employment_type TEXT NOT NULL DEFAULT 'unknown',
			description     TEXT NOT NULL DEFAULT '',
			posted_at       %s,
			collected_at    %s NOT NULL,
			raw_payload     TEXT NOT NULL DEFAULT '{}',
			is_new          BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (source_id, source_job_id),
			UNIQUE (source_id, fallback_hash)
		)`, d.idColumn, d.timestamp, d.timestamp),
		`CREATE INDEX IF NOT EXISTS idx_jobs_company_key ON jobs (company_key, collected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_collected_at ON jobs (collected_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS job_scores (
			job_id           BIGINT PRIMARY KEY REFERENCES jobs(id),
			total_score      %[1]s NOT NULL,
			keyword_score    %[1]s NOT NULL,
			seniority_score  %[1]s NOT NULL,
			remote_bonus     %[1]s NOT NULL,
			region_bonus     %[1]s NOT NULL,
			decision         TEXT NOT NULL,
			matched_keywords TEXT NOT NULL DEFAULT '[]',
			scored_at        %[2]s NOT NULL
		)`, d.float, d.timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS crawl_runs (
			id                  %[1]s,
			invocation_id       TEXT NOT NULL,
			source_id           BIGINT NOT NULL REFERENCES sources(id),
			started_at          %[2]s NOT NULL,
			finished_at         %[2]s,
			fetched_count       INTEGER NOT NULL DEFAULT 0,
			new_count           INTEGER NOT NULL DEFAULT 0,
			high_priority_count INTEGER NOT NULL DEFAULT 0,
			filtered_count      INTEGER NOT NULL DEFAULT 0,
			status              TEXT NOT NULL,
			error_summary       TEXT NOT NULL DEFAULT ''
		)`, d.idColumn, d.timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS notifications (
			id      %s,
			job_id  BIGINT REFERENCES jobs(id),
			channel TEXT NOT NULL,
			mode    TEXT NOT NULL,
			sent_at %s NOT NULL,
			status  TEXT NOT NULL,
			error   TEXT NOT NULL DEFAULT ''
		)`, d.idColumn, d.timestamp),
		`CREATE INDEX IF NOT EXISTS idx_notifications_sent_at ON notifications (sent_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at %s NOT NULL
		)`, d.timestamp),
	}
	if d.name == DriverSQLite {
		stmts = append([]string{`PRAGMA busy_timeout = 5000`}, stmts...)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating %s schema: %w", d.name, err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect.name != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a uniqueness constraint failure
// from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
