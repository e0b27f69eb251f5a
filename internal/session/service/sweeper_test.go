package service

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"multitenant-cms/internal/session/repository"
)

func TestSweeper_SweepOnce(t *testing.T) {
	mock := clock.NewMock()
	repo := repository.NewMemoryRepository()
	m := NewManager(repo, newMemUsers(editor), DefaultConfig(), WithClock(mock))
	ctx := context.Background()

	stale, _ := m.Issue(ctx, editor, nil)
	mock.Add(6 * 24 * time.Hour)
	fresh, _ := m.Issue(ctx, editor, nil)
	mock.Add(24 * time.Hour)

	sw := NewSweeper(repo, time.Minute, mock, nil, nil)
	n, err := sw.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}
	if got, _ := repo.GetByRefreshToken(ctx, stale.RefreshToken); got != nil {
		t.Error("stale session should be swept")
	}
	if got, _ := repo.GetByRefreshToken(ctx, fresh.RefreshToken); got == nil {
		t.Error("session with a live refresh token must survive the sweep")
	}
}

func TestSweeper_RunDisabled(t *testing.T) {
	sw := NewSweeper(repository.NewMemoryRepository(), 0, nil, nil, nil)
	done := make(chan struct{})
	go func() {
		sw.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with zero interval should return immediately")
	}
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	sw := NewSweeper(repository.NewMemoryRepository(), time.Minute, clock.NewMock(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return after cancel")
	}
}
