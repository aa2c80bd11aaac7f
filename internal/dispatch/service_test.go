package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/chandigest/internal/archive"
	"github.com/ppiankov/chandigest/internal/digest"
	"github.com/ppiankov/chandigest/internal/source"
	"github.com/ppiankov/chandigest/internal/store"
)

type recordingPublisher struct {
	name  string
	err   error
	texts []string
}

func (p *recordingPublisher) Name() string { return p.name }

func (p *recordingPublisher) Publish(_ context.Context, text string) error {
	p.texts = append(p.texts, text)
	return p.err
}

type memoryArchive struct {
	entries []archive.Entry
	pruned  []int
}

func (a *memoryArchive) Save(_ context.Context, e archive.Entry) (archive.Entry, error) {
	e.ID = "entry-1"
	a.entries = append(a.entries, e)
	return e, nil
}

func (a *memoryArchive) PruneOld(_ context.Context, retainDays int) (int64, error) {
	a.pruned = append(a.pruned, retainDays)
	return 0, nil
}

func newTestComposer(t *testing.T) *digest.Composer {
	t.Helper()
	c, err := digest.NewComposer(digest.Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}, nil)
	if err != nil {
		t.Fatalf("new composer: %v", err)
	}
	return c
}

func TestNewServiceValidates(t *testing.T) {
	if _, err := NewService(ServiceConfig{Composer: newTestComposer(t)}); err == nil {
		t.Error("expected error without store")
	}
	if _, err := NewService(ServiceConfig{Store: newTestStore()}); err == nil {
		t.Error("expected error without composer")
	}
}

func TestDeliverWidensAndArchives(t *testing.T) {
	st := newTestStore()
	st.SetMonitored("tass", true)
	st.RegisterSource("tass", store.SourceInfo{Title: "TASS"})
	st.Ingest("tass", store.Record{
		Text:      "Правительство утвердило новую программу развития регионов до 2030 года",
		Timestamp: testNow.Add(-48 * time.Hour).Format(time.RFC3339),
	})

	pub := &recordingPublisher{name: "memory"}
	arc := &memoryArchive{}
	svc, err := NewService(ServiceConfig{
		Store:      st,
		Composer:   newTestComposer(t),
		Publishers: []Publisher{pub},
		Archive:    arc,
		WidenSteps: []int{24, 72},
		Format:     "text",
		RetainDays: 30,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.Deliver(context.Background())
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if res.Empty || res.Hours != 72 {
		t.Errorf("result = %+v, want non-empty over 72h", res)
	}
	if !strings.Contains(res.Text, "TASS") {
		t.Errorf("text missing source title:\n%s", res.Text)
	}
	if len(pub.texts) != 1 || pub.texts[0] != res.Text {
		t.Errorf("published = %q", pub.texts)
	}
	if res.ArchiveID != "entry-1" || len(arc.entries) != 1 {
		t.Fatalf("archive id = %q, entries = %d", res.ArchiveID, len(arc.entries))
	}
	e := arc.entries[0]
	if e.WindowHours != 72 || e.Format != "text" || e.Body != res.Text || e.Delivered[0] != "memory" {
		t.Errorf("entry = %+v", e)
	}
	if len(arc.pruned) != 1 || arc.pruned[0] != 30 {
		t.Errorf("pruned = %v", arc.pruned)
	}
}

func TestDeliverNothingToSummarize(t *testing.T) {
	pub := &recordingPublisher{name: "memory"}
	arc := &memoryArchive{}
	svc, err := NewService(ServiceConfig{
		Store:      newTestStore(),
		Composer:   newTestComposer(t),
		Publishers: []Publisher{pub},
		Archive:    arc,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.Deliver(context.Background())
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !res.Empty || res.Text != digest.NothingToSummarize {
		t.Errorf("result = %+v", res)
	}
	if len(pub.texts) != 1 {
		t.Errorf("empty digest must still be published")
	}
	if len(arc.entries) != 0 {
		t.Error("empty digest must not be archived")
	}
}

func TestDeliverPublisherFailures(t *testing.T) {
	st := newTestStore()
	st.SetMonitored("a", true)
	st.Ingest("a", fresh("Совещание по бюджету перенесли на следующую неделю"))

	broken := &recordingPublisher{name: "broken", err: errors.New("boom")}
	working := &recordingPublisher{name: "working"}

	svc, _ := NewService(ServiceConfig{Store: st, Composer: newTestComposer(t), Publishers: []Publisher{broken, working}})
	res, err := svc.Deliver(context.Background())
	if err != nil {
		t.Fatalf("one working publisher must be enough: %v", err)
	}
	if len(res.Delivered) != 1 || res.Delivered[0] != "working" {
		t.Errorf("delivered = %v", res.Delivered)
	}

	svc, _ = NewService(ServiceConfig{Store: st, Composer: newTestComposer(t), Publishers: []Publisher{broken}})
	if _, err := svc.Deliver(context.Background()); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want all publishers failed", err)
	}
}

func TestRunCollectsFirst(t *testing.T) {
	st := newTestStore()
	st.RegisterSource("rbc", store.SourceInfo{Title: "RBC", Handle: "rbc_news", Kind: store.KindChannel})
	st.SetMonitored("rbc", true)

	fetch := source.FetcherFunc(func(_ context.Context, _ string) []store.Record {
		return []store.Record{fresh("Центробанк сохранил ключевую ставку на прежнем уровне")}
	})
	pool := source.NewPool(map[string]source.Fetcher{store.KindChannel: fetch}, 1, 0, nil)

	pub := &recordingPublisher{name: "memory"}
	svc, err := NewService(ServiceConfig{
		Store:      st,
		Collector:  NewCollector(st, pool, nil, nil),
		Composer:   newTestComposer(t),
		Publishers: []Publisher{pub},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	res, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Collect.Updated != 1 || res.Empty {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(pub.texts[0], "RBC") {
		t.Errorf("digest missing collected source:\n%s", pub.texts[0])
	}
}
