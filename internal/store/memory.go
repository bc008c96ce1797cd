package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// Ensure MemoryStore implements model.Repository.
var _ model.Repository = (*MemoryStore)(nil)

// MemoryStore is an in-process Repository used by dry runs and tests. It
// enforces the same uniqueness rules as the SQL schema.
type MemoryStore struct {
	mu            sync.Mutex
	jobs          []model.Job
	scores        map[int64]model.JobScore
	runs          []model.CrawlRun
	notifications []model.Notification
	settings      map[string][]byte
	sources       []model.Source
	nextID        int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores:   make(map[int64]model.JobScore),
		settings: make(map[string][]byte),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) findJob(match func(*model.Job) bool) *model.Job {
	for i := range m.jobs {
		if match(&m.jobs[i]) {
			j := m.jobs[i]
			return &j
		}
	}
	return nil
}

func (m *MemoryStore) FindJobByNativeID(_ context.Context, sourceID int64, nativeID string) (*model.Job, error) {
	if nativeID == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findJob(func(j *model.Job) bool {
		return j.SourceID == sourceID && j.SourceJobID == nativeID
	}), nil
}

func (m *MemoryStore) FindJobByFallbackHash(_ context.Context, sourceID int64, hash string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findJob(func(j *model.Job) bool {
		return j.SourceID == sourceID && j.FallbackHash == hash
	}), nil
}

func (m *MemoryStore) MarkJobSeen(_ context.Context, jobID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID == jobID {
			m.jobs[i].IsNew = false
		}
	}
	return nil
}

func (m *MemoryStore) InsertJobWithScore(_ context.Context, job *model.Job, score *model.JobScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := m.findJob(func(j *model.Job) bool {
		if j.SourceID != job.SourceID {
			return false
		}
		return j.FallbackHash == job.FallbackHash || (job.SourceJobID != "" && j.SourceJobID == job.SourceJobID)
	})
	if dup != nil {
		return model.ErrDuplicate
	}
	job.ID = m.id()
	job.CollectedAt = job.CollectedAt.UTC()
	score.JobID = job.ID
	m.jobs = append(m.jobs, *job)
	m.scores[job.ID] = *score
	return nil
}

func (m *MemoryStore) CreateRun(_ context.Context, run *model.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.Status == "" {
		run.Status = model.RunRunning
	}
	run.ID = m.id()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemoryStore) FinishRun(_ context.Context, run *model.CrawlRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = *run
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.CrawlRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CrawlRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		for _, s := range m.sources {
			if s.ID == r.SourceID {
				r.SourceName = s.Name
			}
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) InsertNotification(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *MemoryStore) CountNotificationsSince(_ context.Context, since time.Time, mode model.NotificationMode, status model.NotificationStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.notifications {
		if n.Mode == mode && n.Status == status && !n.SentAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// Notifications returns a copy of the delivery log.
func (m *MemoryStore) Notifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Notification(nil), m.notifications...)
}

func (m *MemoryStore) JobsByCompanySince(_ context.Context, company string, since time.Time) ([]model.HistoryJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := model.CompanyKey(company)
	var out []model.HistoryJob
	for _, j := range m.jobs {
		if model.CompanyKey(j.Company) != key || j.CollectedAt.Before(since) {
			continue
		}
		out = append(out, model.HistoryJob{
			SourceID:       j.SourceID,
			Title:          j.Title,
			CollectedAt:    j.CollectedAt,
			SeniorityScore: m.scores[j.ID].SeniorityScore,
		})
	}
	return out, nil
}

func (m *MemoryStore) scored(j model.Job) model.ScoredJob {
	sj := model.ScoredJob{Job: j}
	if sc, ok := m.scores[j.ID]; ok {
		sj.Score = &sc
	}
	return sj
}

func (m *MemoryStore) ListJobs(_ context.Context, q model.JobQuery) ([]model.ScoredJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text := strings.ToLower(q.Text)
	var out []model.ScoredJob
	for i := len(m.jobs) - 1; i >= 0; i-- {
		j := m.jobs[i]
		sj := m.scored(j)
		switch {
		case text != "" && !strings.Contains(strings.ToLower(j.Title+"\x00"+j.Company+"\x00"+j.Description), text):
			continue
		case q.SourceID != 0 && j.SourceID != q.SourceID:
			continue
		case q.Decision != "" && (sj.Score == nil || sj.Score.Decision != q.Decision):
			continue
		case q.Since != nil && j.CollectedAt.Before(*q.Since):
			continue
		case q.Until != nil && !j.CollectedAt.Before(*q.Until):
			continue
		}
		out = append(out, sj)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Job.CollectedAt.After(out[b].Job.CollectedAt) })
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *MemoryStore) GetJob(_ context.Context, id int64) (*model.ScoredJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.ID == id {
			sj := m.scored(j)
			return &sj, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *MemoryStore) GetSetting(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[key]
	if !ok {
		return nil, model.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) PutSetting(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) ListSources(_ context.Context) ([]model.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Source(nil), m.sources...), nil
}

func (m *MemoryStore) ListEnabledSources(_ context.Context) ([]model.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Source
	for _, s := range m.sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpsertSource(_ context.Context, src *model.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sources {
		if m.sources[i].Name == src.Name {
			src.ID = m.sources[i].ID
			src.CreatedAt = m.sources[i].CreatedAt
			m.sources[i] = *src
			return nil
		}
	}
	src.ID = m.id()
	src.CreatedAt = time.Now().UTC()
	m.sources = append(m.sources, *src)
	return nil
}

func (m *MemoryStore) SetSourceEnabled(_ context.Context, id int64, enabled bool) (*model.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sources {
		if m.sources[i].ID == id {
			m.sources[i].Enabled = enabled
			s := m.sources[i]
			return &s, nil
		}
	}
	return nil, model.ErrNotFound
}
