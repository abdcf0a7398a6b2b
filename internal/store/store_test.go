package store

import (
	"encoding/json"
	"testing"

	"github.com/devguard-labs/devguard/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBackendURLTrimming(t *testing.T) {
	s := newTestStore(t)

	s.SetBackendURL("https://devguard.example.app///")
	if got := s.BackendURL(); got != "https://devguard.example.app" {
		t.Errorf("trailing slashes not trimmed, got %q", got)
	}

	s.SetBackendURL(" http://localhost:8000 ")
	if got := s.BackendURL(); got != "http://localhost:8000" {
		t.Errorf("whitespace not trimmed, got %q", got)
	}
}

func TestRecordAndCurrent(t *testing.T) {
	s := newTestStore(t)

	cur, err := s.Current()
	if err != nil {
		t.Fatalf("Current on empty store: %v", err)
	}
	if cur != nil {
		t.Fatal("expected nil result before any scan")
	}

	result := model.ScanResult{
		Score: 42,
		Findings: []model.Finding{
			{ID: "f-1", Severity: model.SeverityHigh, Title: "No auth on /users", Details: "anyone can list users"},
			{Severity: model.SeverityLow, Title: "Open CORS", Evidence: json.RawMessage(`{"cors":"*"}`)},
		},
	}
	if err := s.RecordResult(result); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	cur, err = s.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur == nil {
		t.Fatal("expected a stored result")
	}
	if cur.Score != 42 {
		t.Errorf("score = %d, want 42", cur.Score)
	}
	if len(cur.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(cur.Findings))
	}
	if cur.Findings[0].ID != "f-1" {
		t.Errorf("existing id rewritten to %q", cur.Findings[0].ID)
	}
	if cur.Findings[1].ID != "auto_1" {
		t.Errorf("missing id = %q, want auto_1", cur.Findings[1].ID)
	}
	if cur.Findings[0].Details != "anyone can list users" {
		t.Errorf("details lost: %q", cur.Findings[0].Details)
	}
	if string(cur.Findings[1].Evidence) != `{"cors":"*"}` {
		t.Errorf("evidence lost: %q", string(cur.Findings[1].Evidence))
	}
}

func TestRecordReplacesWholesale(t *testing.T) {
	s := newTestStore(t)

	first := model.ScanResult{Score: 42, Findings: []model.Finding{
		{ID: "f-1", Severity: model.SeverityHigh, Title: "No auth on /users"},
		{ID: "f-2", Severity: model.SeverityMed, Title: "Leaked API key"},
	}}
	if err := s.RecordResult(first); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	second := model.ScanResult{Score: 78, Findings: []model.Finding{
		{ID: "f-9", Severity: model.SeverityLow, Title: "Missing headers"},
	}}
	if err := s.RecordResult(second); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	cur, err := s.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.Score != 78 {
		t.Errorf("score = %d, want 78", cur.Score)
	}
	if len(cur.Findings) != 1 || cur.Findings[0].ID != "f-9" {
		t.Errorf("old findings leaked into the new result: %+v", cur.Findings)
	}
}

func TestFiltered(t *testing.T) {
	s := newTestStore(t)

	result := model.ScanResult{Score: 30, Findings: []model.Finding{
		{ID: "m1", Severity: model.SeverityMed, Title: "med one"},
		{ID: "l1", Severity: model.SeverityLow, Title: "low one"},
		{ID: "h1", Severity: model.SeverityHigh, Title: "high one"},
		{ID: "m2", Severity: model.SeverityMed, Title: "med two"},
		{ID: "u1", Severity: "weird", Title: "unknown"},
		{ID: "h2", Severity: model.SeverityHigh, Title: "high two"},
	}}
	if err := s.RecordResult(result); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	t.Run("AllSortsByRankKeepingArrivalOrder", func(t *testing.T) {
		findings, err := s.Filtered(model.SeverityAll)
		if err != nil {
			t.Fatalf("Filtered: %v", err)
		}
		var ids []string
		for _, f := range findings {
			ids = append(ids, f.ID)
		}
		want := []string{"h1", "h2", "m1", "m2", "l1", "u1"}
		if len(ids) != len(want) {
			t.Fatalf("got %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("got %v, want %v", ids, want)
			}
		}
		for i := 1; i < len(findings); i++ {
			if model.SeverityRank(findings[i].Severity) > model.SeverityRank(findings[i-1].Severity) {
				t.Errorf("ranks not monotonic at %d: %v", i, ids)
			}
		}
	})

	t.Run("SeverityFilterIsPureSubset", func(t *testing.T) {
		findings, err := s.Filtered(model.SeverityMed)
		if err != nil {
			t.Fatalf("Filtered: %v", err)
		}
		if len(findings) != 2 || findings[0].ID != "m1" || findings[1].ID != "m2" {
			t.Errorf("med filter = %+v, want m1 then m2", findings)
		}
	})

	t.Run("FilterWithNoMatches", func(t *testing.T) {
		if err := s.RecordResult(model.ScanResult{Score: 90}); err != nil {
			t.Fatalf("RecordResult: %v", err)
		}
		findings, err := s.Filtered(model.SeverityHigh)
		if err != nil {
			t.Fatalf("Filtered: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %+v", findings)
		}
	})
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordResult(model.ScanResult{Score: 42, Findings: []model.Finding{{Title: "x"}}}); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	cur, err := s.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur != nil {
		t.Errorf("expected empty store after Clear, got %+v", cur)
	}
}
