package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobdigest/internal/filter"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/scoring"
)

var auditNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func sampleJobs() []model.NormalizedJob {
	return []model.NormalizedJob{
		{Title: "Account Executive", Location: "NYC", PostedAt: ptr(auditNow.Add(-2 * time.Hour))},
		{Title: "Senior Solidity Engineer", Description: "DeFi protocol, rust and evm", Location: "Remote", RemoteType: "remote", PostedAt: ptr(auditNow.Add(-time.Hour)), Raw: model.RawPayload{"team": model.String("core")}},
		{Title: "Staff Rust Engineer", Description: "zk rollup protocol", Location: "Remote", PostedAt: ptr(auditNow.Add(-72 * time.Hour))},
		{Title: "Undated Role", Location: "Berlin"},
	}
}

func TestEvaluate_SortsAndScores(t *testing.T) {
	entries := Evaluate(sampleJobs(), scoring.DefaultRubric(), filter.NewRecencyFilter(24*time.Hour, 0), auditNow)

	if len(entries) != 4 {
		t.Fatalf("len = %d, want 4", len(entries))
	}
	wantOrder := []string{"Senior Solidity Engineer", "Account Executive", "Staff Rust Engineer", "Undated Role"}
	for i, want := range wantOrder {
		if entries[i].Job.Title != want {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Job.Title, want)
		}
	}

	if !entries[0].Accepted() {
		t.Errorf("senior solidity role should be accepted, score %+v", entries[0].Score)
	}
	if entries[1].Accepted() {
		t.Error("sales role should not be accepted")
	}
	if entries[2].Passed {
		t.Error("72h old posting should fail the 24h recency filter")
	}
	if entries[2].Accepted() {
		t.Error("filtered posting must not count as accepted even with a high score")
	}
	if !entries[3].Passed {
		t.Error("undated posting passes the recency filter")
	}
}

func TestEvaluate_NilFilterPassesEverything(t *testing.T) {
	for _, e := range Evaluate(sampleJobs(), scoring.DefaultRubric(), nil, auditNow) {
		if !e.Passed {
			t.Errorf("%q did not pass with no filter", e.Job.Title)
		}
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m auditModel, msgs ...tea.Msg) auditModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(auditModel)
	}
	return m
}

func TestAuditModel_NavigateAndOpenDetail(t *testing.T) {
	entries := Evaluate(sampleJobs(), scoring.DefaultRubric(), nil, auditNow)
	m := send(t, newAuditModel("acme", entries), tea.WindowSizeMsg{Width: 120, Height: 40})

	if len(m.panes[paneAccepted].entries) == 0 {
		t.Fatal("expected at least one accepted entry")
	}
	if !strings.Contains(m.View(), "acme: all postings (4)") {
		t.Errorf("list view missing header:\n%s", m.View())
	}

	m = send(t, m, keyMsg("j"), keyMsg("enter"))
	if m.view != viewDetail {
		t.Fatal("enter should open the detail view")
	}
	if m.detail.Job.Title != entries[1].Job.Title {
		t.Errorf("detail = %q, want %q", m.detail.Job.Title, entries[1].Job.Title)
	}

	m = send(t, m, keyMsg("esc"), keyMsg("tab"), keyMsg("enter"))
	if m.detail.Job.Title != "Senior Solidity Engineer" {
		t.Errorf("accepted pane detail = %q", m.detail.Job.Title)
	}
	detail := m.renderDetail()
	for _, want := range []string{"ACCEPT", "solidity", "team", "core"} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail missing %q:\n%s", want, detail)
		}
	}

	m = send(t, m, keyMsg("q"))
	if !m.wantQuit {
		t.Error("q should request quit")
	}
}

func TestAuditModel_EscReturnsToPicker(t *testing.T) {
	m := send(t, newAuditModel("acme", nil), tea.WindowSizeMsg{Width: 80, Height: 24}, keyMsg("enter"))
	if m.view != viewList {
		t.Error("enter on an empty list should stay in the list view")
	}
	m = send(t, m, keyMsg("esc"))
	if m.wantQuit {
		t.Error("esc should go back, not quit")
	}
}

func TestPickerModel(t *testing.T) {
	m := pickerModel{sources: []model.Source{{Name: "a", Kind: "lever"}, {Name: "b", Kind: "jsonld"}}, chosen: pickerPending}
	next, _ := m.Update(keyMsg("j"))
	next, _ = next.Update(keyMsg("j"))
	next, _ = next.Update(keyMsg("enter"))
	if got := next.(pickerModel).chosen; got != 1 {
		t.Errorf("chosen = %d, want 1", got)
	}
}

func TestLoaderModel(t *testing.T) {
	jobs := sampleJobs()
	m := newLoaderModel(context.Background(), "acme", func(context.Context) ([]model.NormalizedJob, error) {
		return jobs, nil
	})
	if !strings.Contains(m.View(), "Fetching postings from acme") {
		t.Errorf("view = %q", m.View())
	}

	next, _ := m.Update(fetchedMsg{jobs: jobs})
	done := next.(loaderModel)
	if !done.finished || len(done.jobs) != len(jobs) || done.err != nil {
		t.Errorf("unexpected final state: finished=%v jobs=%d err=%v", done.finished, len(done.jobs), done.err)
	}
	if done.View() != "" {
		t.Error("finished loader should render nothing")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if err := next.(loaderModel).err; !errors.Is(err, ErrCancelled) {
		t.Errorf("ctrl+c err = %v, want ErrCancelled", err)
	}
}
