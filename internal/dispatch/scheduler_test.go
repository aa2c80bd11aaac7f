package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewSchedulerInvalidSpec(t *testing.T) {
	_, err := NewScheduler("not a cron", time.UTC, func(context.Context) error { return nil }, nil)
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if _, err := NewScheduler("0 9 * * *", time.UTC, nil, nil); err == nil {
		t.Fatal("expected error for nil job")
	}
}

func TestSchedulerNext(t *testing.T) {
	s, err := NewScheduler("0 9,12,15,18,21 * * *", time.UTC, func(context.Context) error { return nil }, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	got := s.Next(time.Date(2026, 2, 16, 13, 30, 0, 0, time.UTC), 4)
	want := []time.Time{
		time.Date(2026, 2, 16, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 16, 18, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 16, 21, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 17, 9, 0, 0, 0, time.UTC),
	}
	if len(got) != len(want) {
		t.Fatalf("next = %v", got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("next[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSchedulerRunOnStart(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	job := func(context.Context) error {
		calls.Add(1)
		cancel()
		return errors.New("logged, not fatal")
	}
	s, err := NewScheduler("0 0 1 1 *", time.UTC, job, nil)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, true) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}
