package model

import (
	"context"
	"strings"
	"time"
)

// NormalizedJob is the adapter output contract: one posting from any source,
// before it has an identity in the store.
type NormalizedJob struct {
	SourceJobID    string     // source-native id, empty when the source has none
	CanonicalURL   string     // direct link to the posting
	Title          string     // job title
	Company        string     // hiring company, may be blank
	Location       string     // free-text location
	RemoteType     string     // "remote", "hybrid", "onsite", "unknown"
	EmploymentType string     // "full-time", "contract", ... or "unknown"
	Description    string     // plain-text description
	PostedAt       *time.Time // nullable (not all sources provide this)
	Raw            RawPayload // source-specific fields
}

// Job is a persisted posting owned by a Source.
type Job struct {
	ID             int64
	SourceID       int64
	SourceJobID    string // empty when absent
	FallbackHash   string
	CanonicalURL   string
	Title          string
	Company        string
	Location       string
	RemoteType     string
	EmploymentType string
	Description    string
	PostedAt       *time.Time
	CollectedAt    time.Time
	Raw            RawPayload
	IsNew          bool
}

// JobScore is the immutable score breakdown written alongside its Job.
type JobScore struct {
	JobID           int64
	Total           float64
	KeywordScore    float64
	SeniorityScore  float64
	RemoteBonus     float64
	RegionBonus     float64
	Decision        Decision
	MatchedKeywords []string
	ScoredAt        time.Time
}

// ScoredJob pairs a Job with its score. Score is nil when no score row exists.
type ScoredJob struct {
	Job   Job
	Score *JobScore
}

// CrawlRun records one source's processing within one invocation.
type CrawlRun struct {
	ID                int64
	InvocationID      string
	SourceID          int64
	SourceName        string // filled by ListRuns
	StartedAt         time.Time
	FinishedAt        *time.Time
	FetchedCount      int
	NewCount          int
	HighPriorityCount int
	FilteredCount     int
	Status            RunStatus
	ErrorSummary      string
}

// Notification is one row of the append-only delivery log.
type Notification struct {
	ID      int64
	JobID   *int64
	Channel string
	Mode    NotificationMode
	SentAt  time.Time
	Status  NotificationStatus
	Error   string
}

// Source is an external job-posting origin with its adapter settings.
type Source struct {
	ID         int64
	Name       string
	Kind       string // adapter kind: greenhouse, lever, ashby, jsonld
	BaseURL    string
	BoardToken string
	ListingURL string
	Enabled    bool
	CreatedAt  time.Time
}

// HistoryJob is the slice of a persisted job the company history needs.
type HistoryJob struct {
	SourceID       int64
	Title          string
	CollectedAt    time.Time
	SeniorityScore float64
}

// JobQuery filters ListJobs. Zero values mean "no filter".
type JobQuery struct {
	Text     string
	SourceID int64
	Decision Decision
	Since    *time.Time
	Until    *time.Time
	Limit    int
	Offset   int
}

// SourceAdapter fetches one bounded batch of postings from a source.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context) ([]NormalizedJob, error)
}

// JobFilter decides whether a fetched posting enters the dedup gate.
type JobFilter interface {
	Match(job NormalizedJob, now time.Time) bool
}

// Sink delivers one digest or alert message to the outbound channel.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// Repository is the persistence contract the pipeline consumes.
// Find* lookups return (nil, nil) when nothing matches; GetJob and GetSetting
// return ErrNotFound.
type Repository interface {
	FindJobByNativeID(ctx context.Context, sourceID int64, nativeID string) (*Job, error)
	FindJobByFallbackHash(ctx context.Context, sourceID int64, hash string) (*Job, error)
	MarkJobSeen(ctx context.Context, jobID int64) error
	// InsertJobWithScore writes job and score in one transaction and sets
	// job.ID. It returns ErrDuplicate when a uniqueness constraint rejects the job.
	InsertJobWithScore(ctx context.Context, job *Job, score *JobScore) error

	CreateRun(ctx context.Context, run *CrawlRun) error
	FinishRun(ctx context.Context, run *CrawlRun) error
	ListRuns(ctx context.Context, limit int) ([]CrawlRun, error)

	InsertNotification(ctx context.Context, n *Notification) error
	CountNotificationsSince(ctx context.Context, since time.Time, mode NotificationMode, status NotificationStatus) (int, error)

	JobsByCompanySince(ctx context.Context, company string, since time.Time) ([]HistoryJob, error)
	ListJobs(ctx context.Context, q JobQuery) ([]ScoredJob, error)
	GetJob(ctx context.Context, id int64) (*ScoredJob, error)

	GetSetting(ctx context.Context, key string) ([]byte, error)
	PutSetting(ctx context.Context, key string, value []byte) error

	ListSources(ctx context.Context) ([]Source, error)
	ListEnabledSources(ctx context.Context) ([]Source, error)
	UpsertSource(ctx context.Context, src *Source) error
	SetSourceEnabled(ctx context.Context, id int64, enabled bool) (*Source, error)
}

// CompanyKey folds a company name for matching: surrounding whitespace is
// trimmed and Unicode letters are lower-cased. Stores persist it alongside
// the raw name so history lookups compare by equality.
func CompanyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
