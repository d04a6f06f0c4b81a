package session

import (
	"testing"
	"time"

	"github.com/pavelanni/classifier/internal/model"
)

func newTestRegistry(t *testing.T, ttl time.Duration) (*Registry, *time.Time) {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(testCatalog(), ttl)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRegistryCreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour)

	e := r.Create()
	if e.Token == "" {
		t.Fatal("expected a token")
	}
	if got := r.Get(e.Token); got != e {
		t.Error("Get should return the created entry")
	}
	if r.Get("nope") != nil {
		t.Error("unknown token should return nil")
	}
	if r.Get("") != nil {
		t.Error("empty token should return nil")
	}

	other := r.Create()
	if other.Token == e.Token {
		t.Error("tokens must be unique")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistrySessionsAreIndependent(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour)
	a, b := r.Create(), r.Create()

	a.Store.SelectTest(1)
	if _, ok := b.Store.ActiveTestID(); ok {
		t.Error("selecting a test in one session leaked into another")
	}
}

func TestRegistryExpiry(t *testing.T) {
	r, now := newTestRegistry(t, time.Hour)
	stale := r.Create()
	*now = now.Add(50 * time.Minute)
	fresh := r.Create()

	*now = now.Add(20 * time.Minute)
	if r.Get(stale.Token) != nil {
		t.Error("expected stale session to expire on Get")
	}
	if r.Get(fresh.Token) == nil {
		t.Error("expected fresh session to survive")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, expired session should be dropped", r.Len())
	}
}

func TestRegistrySweep(t *testing.T) {
	r, now := newTestRegistry(t, time.Hour)
	r.Create()
	r.Create()
	keep := r.Create()

	*now = now.Add(45 * time.Minute)
	r.Get(keep.Token)

	if n := r.Sweep(now.Add(30 * time.Minute)); n != 2 {
		t.Errorf("Sweep removed %d, want 2", n)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Delete(keep.Token)
	if r.Len() != 0 {
		t.Error("Delete did not remove the entry")
	}
}

func TestRegistryObserver(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour)
	var tokens []string
	r.Observe(func(token string, ev Event) { tokens = append(tokens, token) })

	e := r.Create()
	e.Store.SelectTest(1)

	if len(tokens) != 1 || tokens[0] != e.Token {
		t.Errorf("observer got %v, want [%s]", tokens, e.Token)
	}
}

func TestEntryCommentaryCache(t *testing.T) {
	r, _ := newTestRegistry(t, time.Hour)
	e := r.Create()

	if _, ok := e.Commentary(1); ok {
		t.Error("expected empty cache")
	}
	e.SetCommentary(3, "Well done")
	if c, ok := e.Commentary(3); !ok || c != "Well done" {
		t.Errorf("Commentary(3) = %q, %v", c, ok)
	}
	if _, ok := e.Commentary(4); ok {
		t.Error("cache must miss for a different version")
	}
}

func TestSummarize(t *testing.T) {
	mk := func(correct, total int) []model.Result {
		res := make([]model.Result, total)
		for i := range correct {
			res[i].IsCorrect = true
		}
		return res
	}

	tests := []struct {
		name    string
		results []model.Result
		pct     int
		verdict model.Verdict
	}{
		{"empty", nil, 0, model.VerdictNeedsPractice},
		{"all correct", mk(5, 5), 100, model.VerdictExcellent},
		{"four of five", mk(4, 5), 80, model.VerdictVeryGood},
		{"two of three rounds up", mk(2, 3), 67, model.VerdictNotBad},
		{"half", mk(1, 2), 50, model.VerdictNotBad},
		{"one of three", mk(1, 3), 33, model.VerdictNeedsPractice},
		{"nine of ten", mk(9, 10), 90, model.VerdictExcellent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.results)
			if got.Percentage != tt.pct {
				t.Errorf("Percentage = %d, want %d", got.Percentage, tt.pct)
			}
			if got.Verdict != tt.verdict {
				t.Errorf("Verdict = %q, want %q", got.Verdict, tt.verdict)
			}
			if got.Total != len(tt.results) {
				t.Errorf("Total = %d, want %d", got.Total, len(tt.results))
			}
		})
	}
}
