package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testRecord(username, ip string, at time.Time) SessionRecord {
	return SessionRecord{
		Username:        username,
		IP:              ip,
		ProtocolVersion: 757,
		AuthenticatedAt: at,
	}
}

func TestPruner(t *testing.T) {
	newSQLite := func(t *testing.T) (Pruner, SessionStore, func(func() time.Time)) {
		s, err := NewSQLiteStore(SQLiteConfig{
			Path: filepath.Join(t.TempDir(), "sessions.db"),
			TTL:  time.Minute,
		})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		return s, s, func(now func() time.Time) { s.now = now }
	}
	newMemory := func(t *testing.T) (Pruner, SessionStore, func(func() time.Time)) {
		s := NewMemoryStore(time.Minute)
		return s, s, func(now func() time.Time) { s.now = now }
	}

	tt := []struct {
		name     string
		newStore func(t *testing.T) (Pruner, SessionStore, func(func() time.Time))
	}{
		{name: "memory", newStore: newMemory},
		{name: "sqlite", newStore: newSQLite},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Unix(1000, 0)
			p, s, setNow := tc.newStore(t)

			setNow(func() time.Time { return now })
			if err := s.PutSession(ctx, testRecord("Alice", "10.0.0.1", now)); err != nil {
				t.Fatal(err)
			}
			setNow(func() time.Time { return now.Add(30 * time.Second) })
			if err := s.PutSession(ctx, testRecord("Bob", "10.0.0.2", now)); err != nil {
				t.Fatal(err)
			}

			setNow(func() time.Time { return now.Add(time.Minute) })
			n, err := p.Prune(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if n != 1 {
				t.Errorf("got: %d pruned, want: 1", n)
			}

			n, err = p.Prune(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if n != 0 {
				t.Errorf("got: %d pruned, want: 0", n)
			}
		})
	}
}

type chanPruner chan struct{}

func (p chanPruner) Prune(context.Context) (int, error) {
	select {
	case p <- struct{}{}:
	default:
	}
	return 0, nil
}

func TestSchedulePrune(t *testing.T) {
	p := make(chanPruner, 1)
	c, err := SchedulePrune("@every 1s", p, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	select {
	case <-p:
	case <-time.After(3 * time.Second):
		t.Fatal("prune was not scheduled")
	}
}

func TestSchedulePrune_invalidSpec(t *testing.T) {
	if _, err := SchedulePrune("every now and then", make(chanPruner, 1), nil); err == nil {
		t.Error("expected an error for an invalid schedule")
	}
}
