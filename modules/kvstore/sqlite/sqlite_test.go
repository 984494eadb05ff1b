package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flemzord/newsclaw/internal/core"
	"github.com/flemzord/newsclaw/internal/cron"
	"github.com/flemzord/newsclaw/internal/kvstore"
)

func newTestModule(t *testing.T) *Module {
	t.Helper()

	dir := t.TempDir()
	m := &Module{
		config: Config{Path: filepath.Join(dir, "test.db")},
	}
	m.config.defaults()

	ctx := core.NewAppContext(slog.New(slog.NewTextHandler(io.Discard, nil)), dir)
	if err := m.Provision(ctx); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	t.Cleanup(func() {
		_ = m.Stop(context.Background())
	})
	return m
}

func TestStore_LoadNotFound(t *testing.T) {
	m := newTestModule(t)

	_, err := m.Collection(kvstore.CollectionUsers).Load(context.Background(), "psid")
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestStore_CreateAndLoad(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	users := m.Collection(kvstore.CollectionUsers)

	if err := users.Create(ctx, "psid", kvstore.Record{"uuid": "abc"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec, err := users.Load(ctx, "psid")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := rec.String("uuid"); got != "abc" {
		t.Errorf("uuid = %q, want %q", got, "abc")
	}
}

func TestStore_CreateExisting(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	users := m.Collection(kvstore.CollectionUsers)

	_ = users.Create(ctx, "psid", kvstore.Record{"uuid": "first"})
	if err := users.Create(ctx, "psid", kvstore.Record{"uuid": "second"}); !errors.Is(err, kvstore.ErrExists) {
		t.Fatalf("Create error = %v, want ErrExists", err)
	}

	rec, _ := users.Load(ctx, "psid")
	if got := rec.String("uuid"); got != "first" {
		t.Errorf("uuid = %q, want first record kept", got)
	}
}

func TestStore_CreateConcurrentSingleWinner(t *testing.T) {
	m := newTestModule(t)
	users := m.Collection(kvstore.CollectionUsers)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := users.Create(context.Background(), "psid", kvstore.Record{"uuid": "x"}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("successful creates = %d, want 1", wins.Load())
	}
}

func TestStore_PutAndNumbers(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	states := m.Collection(kvstore.CollectionUserStates)

	if err := states.Put(ctx, "psid", kvstore.Record{"feedbackTime": int64(1700000000)}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := states.Put(ctx, "psid", kvstore.Record{"surveyTime": int64(1700000500)}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rec, err := states.Load(ctx, "psid")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := rec.Int64("feedbackTime"); ok {
		t.Error("Put must replace the whole record")
	}
	if ts, ok := rec.Int64("surveyTime"); !ok || ts != 1700000500 {
		t.Errorf("surveyTime = (%d, %v), want 1700000500", ts, ok)
	}
}

func TestStore_CollectionsIsolated(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()

	_ = m.Collection(kvstore.CollectionSubscriptions).Put(ctx, "psid", kvstore.Record{"morning": true})

	if _, err := m.Collection(kvstore.CollectionTracking).Load(ctx, "psid"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("tracking Load error = %v, want ErrNotFound", err)
	}
	rec, err := m.Collection(kvstore.CollectionSubscriptions).Load(ctx, "psid")
	if err != nil || !rec.Bool("morning") {
		t.Errorf("subscriptions = %v, %v", rec, err)
	}
}

func TestPurgeBefore(t *testing.T) {
	m := newTestModule(t)
	ctx := context.Background()
	states := m.Collection(kvstore.CollectionUserStates)
	subs := m.Collection(kvstore.CollectionSubscriptions)

	_ = states.Put(ctx, "old", kvstore.Record{"surveyTime": 1})
	_ = subs.Put(ctx, "old", kvstore.Record{"morning": true})

	n, err := m.PurgeBefore(ctx, kvstore.CollectionUserStates, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, err := states.Load(ctx, "old"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Errorf("userstates record survived purge: %v", err)
	}
	if _, err := subs.Load(ctx, "old"); err != nil {
		t.Errorf("other collections must be untouched: %v", err)
	}

	n, err = m.PurgeBefore(ctx, kvstore.CollectionUserStates, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Errorf("second purge = (%d, %v), want (0, nil)", n, err)
	}
}

func TestProvision_RegistersServices(t *testing.T) {
	dir := t.TempDir()
	m := &Module{config: Config{Path: filepath.Join(dir, "svc.db")}}
	ctx := core.NewAppContext(slog.New(slog.NewTextHandler(io.Discard, nil)), dir)
	if err := m.Provision(ctx); err != nil {
		t.Fatalf("provision: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	if _, err := core.ServiceAs[kvstore.Collections](ctx, "kvstore.collections"); err != nil {
		t.Errorf("kvstore.collections: %v", err)
	}
	if _, err := core.ServiceAs[kvstore.Opener](ctx, "kvstore.opener"); err != nil {
		t.Errorf("kvstore.opener: %v", err)
	}
	if err := m.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestStartStop_WithPurgeJob(t *testing.T) {
	m := newTestModule(t)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.scheduler.RunNow(context.Background(), "purge:"+kvstore.CollectionUserStates); err != nil {
		t.Errorf("RunNow: %v", err)
	}
}

func TestProvision_PublishesPurgeRunner(t *testing.T) {
	disabled := false
	tests := []struct {
		name    string
		purge   PurgeConfig
		wantJob bool
	}{
		{name: "enabled by default", wantJob: true},
		{name: "disabled", purge: PurgeConfig{Enabled: &disabled}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			m := &Module{config: Config{Path: filepath.Join(dir, "purge.db"), Purge: tt.purge}}
			m.config.defaults()
			ctx := core.NewAppContext(slog.New(slog.NewTextHandler(io.Discard, nil)), dir)
			if err := m.Provision(ctx); err != nil {
				t.Fatalf("provision: %v", err)
			}
			t.Cleanup(func() { _ = m.Stop(context.Background()) })

			runner, err := core.ServiceAs[cron.Runner](ctx, "kvstore.scheduler")
			if !tt.wantJob {
				if err == nil {
					t.Error("kvstore.scheduler registered with purge disabled")
				}
				return
			}
			if err != nil {
				t.Fatalf("kvstore.scheduler: %v", err)
			}

			// Runs without Start, as the maintenance command does.
			stale := time.Now().Add(-2 * m.config.Purge.MaxAge)
			if _, err := m.db.ExecContext(context.Background(),
				"INSERT INTO records (collection, key, updated_at) VALUES (?, ?, ?)",
				kvstore.CollectionUserStates, "psid-old", stale.UTC().Format(timestampFormat)); err != nil {
				t.Fatalf("seed: %v", err)
			}
			for _, job := range runner.Jobs() {
				if err := runner.RunNow(context.Background(), job); err != nil {
					t.Fatalf("RunNow(%s): %v", job, err)
				}
			}
			_, err = m.Collection(kvstore.CollectionUserStates).Load(context.Background(), "psid-old")
			if !errors.Is(err, kvstore.ErrNotFound) {
				t.Errorf("stale record after purge: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{BusyTimeout: -1}
	cfg.defaults()
	if err := cfg.validate(); err == nil {
		t.Error("expected error for negative busy_timeout")
	}

	cfg = Config{Purge: PurgeConfig{MaxAge: time.Hour}}
	cfg.defaults()
	if err := cfg.validate(); err == nil {
		t.Error("expected error for purge.max_age below the survey window")
	}
}

func TestConfigValidate_Schedule(t *testing.T) {
	cfg := Config{Purge: PurgeConfig{Schedule: "every hour"}}
	cfg.defaults()
	if err := cfg.validate(); err == nil {
		t.Error("expected error for invalid purge.schedule")
	}

	cfg = Config{Purge: PurgeConfig{Schedule: "17 * * * *"}}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
