package digest

import (
	"slices"
	"testing"
	"time"

	"github.com/ppiankov/chandigest/internal/store"
)

type fakeWindower struct {
	nonEmptyFrom int
	calls        []int
}

func (f *fakeWindower) Window(hours int) store.Window {
	f.calls = append(f.calls, hours)
	if hours >= f.nonEmptyFrom {
		return store.Window{Hours: hours, Batches: []store.Batch{batch("a", "A", "text")}}
	}
	return store.Window{Hours: hours}
}

func TestWiden(t *testing.T) {
	q := &fakeWindower{nonEmptyFrom: 72}

	w, hours := Widen(q, nil)
	if hours != 72 || w.Empty() {
		t.Errorf("hours = %d, empty = %v", hours, w.Empty())
	}
	if want := []int{24, 72}; !slices.Equal(q.calls, want) {
		t.Errorf("calls = %v, want %v", q.calls, want)
	}
}

func TestWiden_AllEmpty(t *testing.T) {
	q := &fakeWindower{nonEmptyFrom: 1000}

	w, hours := Widen(q, []int{1, 2})
	if !w.Empty() || hours != 2 {
		t.Errorf("hours = %d, empty = %v", hours, w.Empty())
	}
}

func TestWiden_StoreScenario(t *testing.T) {
	now := time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC)
	st := store.New(store.WithClock(func() time.Time { return now }))
	st.SetMonitored("slow", true)
	st.Ingest("slow", store.Record{Text: "sparse update", Timestamp: now.Add(-5 * time.Hour).Format(time.RFC3339)})

	w, hours := Widen(st, []int{3, 6})
	if hours != 6 {
		t.Fatalf("hours = %d, want 6", hours)
	}
	if w.Len() != 1 {
		t.Errorf("records = %d, want 1", w.Len())
	}
}
