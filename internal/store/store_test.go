package store

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachRepo runs fn against the SQLite store and the in-memory store so
// both honour the same contract.
func forEachRepo(t *testing.T, fn func(t *testing.T, repo model.Repository)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newTestStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func ptrTo(t time.Time) *time.Time { return &t }

func seedSource(t *testing.T, repo model.Repository, name string) model.Source {
	t.Helper()
	src := model.Source{Name: name, Kind: "greenhouse", BoardToken: name, Enabled: true}
	if err := repo.UpsertSource(context.Background(), &src); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	return src
}

func newJob(sourceID int64, nativeID, hash, title string, collected time.Time) *model.Job {
	return &model.Job{
		SourceID:       sourceID,
		SourceJobID:    nativeID,
		FallbackHash:   hash,
		CanonicalURL:   "https://example.com/" + hash,
		Title:          title,
		Company:        "Acme",
		RemoteType:     "remote",
		EmploymentType: "unknown",
		CollectedAt:    collected,
		Raw:            model.RawPayload{"team": model.String("core"), "level": model.Number(3)},
		IsNew:          true,
	}
}

func newScore(total float64, d model.Decision) *model.JobScore {
	return &model.JobScore{
		Total:           total,
		KeywordScore:    total / 2,
		SeniorityScore:  20,
		Decision:        d,
		MatchedKeywords: []string{"rust"},
		ScoredAt:        time.Now().UTC(),
	}
}

func TestInsertAndFindJob(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		src := seedSource(t, repo, "acme")
		now := time.Now().UTC().Truncate(time.Second)

		job := newJob(src.ID, "n-1", "h-1", "Senior Rust Engineer", now)
		score := newScore(80, model.DecisionAccept)
		if err := repo.InsertJobWithScore(ctx, job, score); err != nil {
			t.Fatalf("InsertJobWithScore: %v", err)
		}
		if job.ID == 0 || score.JobID != job.ID {
			t.Fatalf("ids not set: job=%d score=%d", job.ID, score.JobID)
		}

		byNative, err := repo.FindJobByNativeID(ctx, src.ID, "n-1")
		if err != nil || byNative == nil {
			t.Fatalf("FindJobByNativeID = %v, %v", byNative, err)
		}
		if byNative.Title != "Senior Rust Engineer" || !byNative.IsNew {
			t.Errorf("unexpected job: %+v", byNative)
		}
		if got, _ := byNative.Raw.GetString("team"); got != "core" {
			t.Errorf("raw team = %q, want core", got)
		}

		byHash, err := repo.FindJobByFallbackHash(ctx, src.ID, "h-1")
		if err != nil || byHash == nil || byHash.ID != job.ID {
			t.Fatalf("FindJobByFallbackHash = %v, %v", byHash, err)
		}

		missing, err := repo.FindJobByNativeID(ctx, src.ID, "nope")
		if err != nil || missing != nil {
			t.Errorf("expected (nil, nil) for unknown id, got %v, %v", missing, err)
		}
		empty, err := repo.FindJobByNativeID(ctx, src.ID, "")
		if err != nil || empty != nil {
			t.Errorf("expected (nil, nil) for empty id, got %v, %v", empty, err)
		}
	})
}

func TestInsertDuplicateReturnsErrDuplicate(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		src := seedSource(t, repo, "acme")
		now := time.Now().UTC()

		if err := repo.InsertJobWithScore(ctx, newJob(src.ID, "n-1", "h-1", "A", now), newScore(10, model.DecisionReject)); err != nil {
			t.Fatalf("first insert: %v", err)
		}

		err := repo.InsertJobWithScore(ctx, newJob(src.ID, "n-1", "h-2", "B", now), newScore(10, model.DecisionReject))
		if !errors.Is(err, model.ErrDuplicate) {
			t.Errorf("same native id: err = %v, want ErrDuplicate", err)
		}
		err = repo.InsertJobWithScore(ctx, newJob(src.ID, "", "h-1", "C", now), newScore(10, model.DecisionReject))
		if !errors.Is(err, model.ErrDuplicate) {
			t.Errorf("same fingerprint: err = %v, want ErrDuplicate", err)
		}

		// Jobs without a native id only collide on the fingerprint.
		if err := repo.InsertJobWithScore(ctx, newJob(src.ID, "", "h-3", "D", now), newScore(10, model.DecisionReject)); err != nil {
			t.Errorf("empty native id: %v", err)
		}
		if err := repo.InsertJobWithScore(ctx, newJob(src.ID, "", "h-4", "E", now), newScore(10, model.DecisionReject)); err != nil {
			t.Errorf("second empty native id: %v", err)
		}

		// A different source may reuse the same identifiers.
		other := seedSource(t, repo, "other")
		if err := repo.InsertJobWithScore(ctx, newJob(other.ID, "n-1", "h-1", "A", now), newScore(10, model.DecisionReject)); err != nil {
			t.Errorf("other source: %v", err)
		}
	})
}

func TestMarkJobSeen(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		src := seedSource(t, repo, "acme")
		job := newJob(src.ID, "n-1", "h-1", "A", time.Now().UTC())
		if err := repo.InsertJobWithScore(ctx, job, newScore(10, model.DecisionReject)); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := repo.MarkJobSeen(ctx, job.ID); err != nil {
			t.Fatalf("MarkJobSeen: %v", err)
		}
		got, err := repo.FindJobByNativeID(ctx, src.ID, "n-1")
		if err != nil || got == nil {
			t.Fatalf("find: %v, %v", got, err)
		}
		if got.IsNew {
			t.Error("expected IsNew=false after MarkJobSeen")
		}
	})
}

func TestListJobsAndGetJob(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		src := seedSource(t, repo, "acme")
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		accepted := newJob(src.ID, "n-1", "h-1", "Senior Rust Engineer", base)
		rejected := newJob(src.ID, "n-2", "h-2", "Sales Manager", base.Add(time.Hour))
		if err := repo.InsertJobWithScore(ctx, accepted, newScore(80, model.DecisionAccept)); err != nil {
			t.Fatal(err)
		}
		if err := repo.InsertJobWithScore(ctx, rejected, newScore(20, model.DecisionReject)); err != nil {
			t.Fatal(err)
		}

		all, err := repo.ListJobs(ctx, model.JobQuery{})
		if err != nil {
			t.Fatalf("ListJobs: %v", err)
		}
		if len(all) != 2 || all[0].Job.ID != rejected.ID {
			t.Fatalf("expected newest first, got %d jobs", len(all))
		}

		onlyAccepted, err := repo.ListJobs(ctx, model.JobQuery{Decision: model.DecisionAccept})
		if err != nil {
			t.Fatal(err)
		}
		if len(onlyAccepted) != 1 || onlyAccepted[0].Score.Total != 80 {
			t.Errorf("decision filter: %+v", onlyAccepted)
		}

		byText, err := repo.ListJobs(ctx, model.JobQuery{Text: "RUST"})
		if err != nil {
			t.Fatal(err)
		}
		if len(byText) != 1 || byText[0].Job.ID != accepted.ID {
			t.Errorf("text filter: got %d jobs", len(byText))
		}

		paged, err := repo.ListJobs(ctx, model.JobQuery{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(paged) != 1 || paged[0].Job.ID != accepted.ID {
			t.Errorf("paging: got %d jobs", len(paged))
		}

		got, err := repo.GetJob(ctx, accepted.ID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if got.Score == nil || got.Score.Decision != model.DecisionAccept || len(got.Score.MatchedKeywords) != 1 {
			t.Errorf("unexpected score: %+v", got.Score)
		}
		if _, err := repo.GetJob(ctx, 9999); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("GetJob unknown: err = %v, want ErrNotFound", err)
		}
	})
}

func TestJobsByCompanySince(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		src := seedSource(t, repo, "acme")
		now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

		old := newJob(src.ID, "n-1", "h-1", "Old", now.AddDate(0, 0, -40))
		recent := newJob(src.ID, "n-2", "h-2", "Recent", now.AddDate(0, 0, -2))
		recent.Company = "  ACME "
		tabbed := newJob(src.ID, "n-3", "h-3", "Tabbed", now.AddDate(0, 0, -1))
		tabbed.Company = "Acme\t"
		uber := newJob(src.ID, "n-4", "h-4", "Umlaut", now.AddDate(0, 0, -1))
		uber.Company = "Über Labs"
		for _, j := range []*model.Job{old, recent, tabbed, uber} {
			if err := repo.InsertJobWithScore(ctx, j, newScore(50, model.DecisionReject)); err != nil {
				t.Fatal(err)
			}
		}

		tests := []struct {
			company string
			want    []string
		}{
			{"acme", []string{"Tabbed", "Recent"}},
			{"Acme", []string{"Tabbed", "Recent"}},
			{"Über Labs", []string{"Umlaut"}},
			{"ÜBER LABS\n", []string{"Umlaut"}},
			{"globex", nil},
		}
		for _, tt := range tests {
			hist, err := repo.JobsByCompanySince(ctx, tt.company, now.AddDate(0, 0, -30))
			if err != nil {
				t.Fatalf("JobsByCompanySince(%q): %v", tt.company, err)
			}
			var titles []string
			for _, h := range hist {
				titles = append(titles, h.Title)
				if h.SeniorityScore != 20 {
					t.Errorf("%q: seniority = %v, want 20", h.Title, h.SeniorityScore)
				}
			}
			sort.Strings(titles)
			want := append([]string(nil), tt.want...)
			sort.Strings(want)
			if strings.Join(titles, ",") != strings.Join(want, ",") {
				t.Errorf("JobsByCompanySince(%q) = %v, want %v", tt.company, titles, want)
			}
		}
	})
}

// Rows written by older deployments carry "high"/"low" decisions.
func TestLegacyDecisionRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := seedSource(t, s, "acme")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	high := newJob(src.ID, "n-1", "h-1", "Senior Rust Engineer", base)
	low := newJob(src.ID, "n-2", "h-2", "Sales Manager", base.Add(time.Hour))
	if err := s.InsertJobWithScore(ctx, high, newScore(80, model.DecisionAccept)); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertJobWithScore(ctx, low, newScore(20, model.DecisionReject)); err != nil {
		t.Fatal(err)
	}
	for id, d := range map[int64]string{high.ID: "high", low.ID: "low"} {
		if _, err := s.exec(ctx, "UPDATE job_scores SET decision = ? WHERE job_id = ?", d, id); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetJob(ctx, high.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Score.Decision != model.DecisionAccept {
		t.Errorf("legacy high read back as %q, want accept", got.Score.Decision)
	}

	accepted, err := s.ListJobs(ctx, model.JobQuery{Decision: model.DecisionAccept})
	if err != nil {
		t.Fatal(err)
	}
	if len(accepted) != 1 || accepted[0].Job.ID != high.ID {
		t.Errorf("accept filter missed legacy row: %d jobs", len(accepted))
	}
	rejected, err := s.ListJobs(ctx, model.JobQuery{Decision: model.DecisionReject})
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 1 || rejected[0].Score.Decision != model.DecisionReject {
		t.Errorf("reject filter: %+v", rejected)
	}

	if _, err := s.exec(ctx, "UPDATE job_scores SET decision = 'maybe' WHERE job_id = ?", high.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetJob(ctx, high.ID); err == nil {
		t.Error("expected an error for an unknown stored decision")
	}
	if _, err := s.ListJobs(ctx, model.JobQuery{}); err == nil {
		t.Error("ListJobs: expected an error for an unknown stored decision")
	}
}

func TestListRunsRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	src := seedSource(t, s, "acme")

	run := &model.CrawlRun{InvocationID: "inv-1", SourceID: src.ID, StartedAt: time.Now().UTC()}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ListRuns(ctx, 10); err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if _, err := s.exec(ctx, "UPDATE crawl_runs SET status = 'paused' WHERE id = ?", run.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ListRuns(ctx, 10); err == nil {
		t.Error("expected an error for an unknown stored run status")
	}
}

func TestRunLifecycle(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		src := seedSource(t, repo, "acme")
		start := time.Now().UTC().Truncate(time.Second)

		run := &model.CrawlRun{InvocationID: "inv-1", SourceID: src.ID, StartedAt: start}
		if err := repo.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
		if run.ID == 0 || run.Status != model.RunRunning {
			t.Fatalf("unexpected run after create: %+v", run)
		}

		run.Status = model.RunSuccess
		run.FinishedAt = ptrTo(start.Add(time.Minute))
		run.FetchedCount, run.NewCount, run.HighPriorityCount = 3, 2, 1
		if err := repo.FinishRun(ctx, run); err != nil {
			t.Fatalf("FinishRun: %v", err)
		}

		runs, err := repo.ListRuns(ctx, 10)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		got := runs[0]
		if got.Status != model.RunSuccess || got.NewCount != 2 || got.SourceName != "acme" || got.FinishedAt == nil {
			t.Errorf("unexpected run: %+v", got)
		}
	})
}

func TestNotificationCounting(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		now := time.Now().UTC()

		rows := []model.Notification{
			{Channel: "discord", Mode: model.ModeDigestItem, Status: model.StatusSent, SentAt: now.Add(-time.Hour)},
			{Channel: "discord", Mode: model.ModeDigestItem, Status: model.StatusSent, SentAt: now.Add(-2 * time.Hour)},
			{Channel: "discord", Mode: model.ModeDigestItem, Status: model.StatusFailed, SentAt: now.Add(-time.Hour)},
			{Channel: "discord", Mode: model.ModeDigestItem, Status: model.StatusSent, SentAt: now.Add(-30 * time.Hour)},
			{Channel: "discord", Mode: model.ModeSingle, Status: model.StatusSent, SentAt: now.Add(-time.Hour)},
		}
		for i := range rows {
			if err := repo.InsertNotification(ctx, &rows[i]); err != nil {
				t.Fatalf("InsertNotification: %v", err)
			}
		}

		count, err := repo.CountNotificationsSince(ctx, now.Add(-24*time.Hour), model.ModeDigestItem, model.StatusSent)
		if err != nil {
			t.Fatalf("CountNotificationsSince: %v", err)
		}
		if count != 2 {
			t.Errorf("count = %d, want 2", count)
		}
	})
}

func TestSettings(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		if _, err := repo.GetSetting(ctx, "scoring"); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("GetSetting on empty store: err = %v, want ErrNotFound", err)
		}
		if err := repo.PutSetting(ctx, "scoring", []byte(`{"threshold":70}`)); err != nil {
			t.Fatal(err)
		}
		if err := repo.PutSetting(ctx, "scoring", []byte(`{"threshold":60}`)); err != nil {
			t.Fatal(err)
		}
		got, err := repo.GetSetting(ctx, "scoring")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"threshold":60}` {
			t.Errorf("GetSetting = %s", got)
		}
	})
}

func TestSources(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo model.Repository) {
		ctx := context.Background()
		a := seedSource(t, repo, "acme")
		b := seedSource(t, repo, "beta")

		// Upsert by name keeps the id.
		again := model.Source{Name: "acme", Kind: "lever", BoardToken: "acme", Enabled: false}
		if err := repo.UpsertSource(ctx, &again); err != nil {
			t.Fatal(err)
		}
		if again.ID != a.ID {
			t.Errorf("upsert changed id: %d != %d", again.ID, a.ID)
		}

		all, err := repo.ListSources(ctx)
		if err != nil || len(all) != 2 {
			t.Fatalf("ListSources = %d, %v", len(all), err)
		}
		enabled, err := repo.ListEnabledSources(ctx)
		if err != nil || len(enabled) != 1 || enabled[0].ID != b.ID {
			t.Fatalf("ListEnabledSources = %+v, %v", enabled, err)
		}

		updated, err := repo.SetSourceEnabled(ctx, a.ID, true)
		if err != nil || !updated.Enabled || updated.Kind != "lever" {
			t.Errorf("SetSourceEnabled = %+v, %v", updated, err)
		}
		if _, err := repo.SetSourceEnabled(ctx, 9999, true); !errors.Is(err, model.ErrNotFound) {
			t.Errorf("unknown source: err = %v, want ErrNotFound", err)
		}
	})
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: postgresDialect}
	got := pg.rebind("SELECT * FROM jobs WHERE a = ? AND b = ?")
	if got != "SELECT * FROM jobs WHERE a = $1 AND b = $2" {
		t.Errorf("rebind = %q", got)
	}
	lite := &SQLStore{dialect: sqliteDialect}
	if q := "a = ?"; lite.rebind(q) != q {
		t.Error("sqlite queries must not be rebound")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "x"); err == nil {
		t.Error("expected error for unknown driver")
	}
}
