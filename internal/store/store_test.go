package store

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOrderStateRepo_SaveAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &OrderStateRepo{}

	state := OrderState{
		AgentID: "red-1",
		Current: domain.NewTargetedOrder("attack", "blue-1"),
		Last:    domain.NewOrder("stop"),
		Queue: []domain.OrderDescriptor{
			domain.NewLocationOrder("move", orb.Point{100, 200}),
		},
		UpdatedAt: time.Now().Unix(),
	}
	if err := repo.Save(ctx, db, state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, db, "red-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for a saved agent")
	}
	if !got.Current.Equal(state.Current) || !got.Last.Equal(state.Last) {
		t.Errorf("got current=%v last=%v", got.Current, got.Last)
	}
	if len(got.Queue) != 1 || !got.Queue[0].Equal(state.Queue[0]) {
		t.Errorf("queue = %v", got.Queue)
	}

	// Upsert replaces.
	state.Current = domain.NewOrder("stop")
	state.Queue = nil
	if err := repo.Save(ctx, db, state); err != nil {
		t.Fatalf("Save upsert: %v", err)
	}
	got, err = repo.Get(ctx, db, "red-1")
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if got.Current.Type != "stop" || len(got.Queue) != 0 {
		t.Errorf("after upsert current=%v queue=%v", got.Current, got.Queue)
	}
}

func TestOrderStateRepo_GetMissingAgent(t *testing.T) {
	db := newTestDB(t)

	got, err := (&OrderStateRepo{}).Get(context.Background(), db, "ghost")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("got = %v, want nil", got)
	}
}

func TestOrderStateRepo_ListAgentsSorted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &OrderStateRepo{}

	for _, id := range []domain.AgentID{"zulu", "alpha", "mike"} {
		if err := repo.Save(ctx, db, OrderState{AgentID: id, Current: domain.NewOrder("stop")}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	ids, err := repo.ListAgents(ctx, db)
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	want := []domain.AgentID{"alpha", "mike", "zulu"}
	if len(ids) != len(want) {
		t.Fatalf("len = %d, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestAutoOrderRepo_SetAndStates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &AutoOrderRepo{}
	now := time.Now().Unix()

	attack := domain.NewOrderSlot("attack")
	heal := domain.OrderSlot{Type: "ability", Index: 2}

	if err := repo.SetEnabled(ctx, db, "red-1", attack, true, now); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if err := repo.SetEnabled(ctx, db, "red-1", heal, false, now); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	// Toggle off again, exercising the upsert.
	if err := repo.SetEnabled(ctx, db, "red-1", attack, false, now+1); err != nil {
		t.Fatalf("SetEnabled toggle: %v", err)
	}

	states, err := repo.States(ctx, db, "red-1")
	if err != nil {
		t.Fatalf("States: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("len = %d, want 2", len(states))
	}
	if states[attack] {
		t.Error("attack still enabled after toggle off")
	}
	if states[heal] {
		t.Error("heal enabled, never was")
	}

	other, err := repo.States(ctx, db, "red-2")
	if err != nil {
		t.Fatalf("States other agent: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("other agent has %d states", len(other))
	}
}

func TestEventRepo_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &EventRepo{}
	now := time.Now().Unix()

	events := []domain.OrderEvent{
		{AgentID: "red-1", SeqNo: 1, EventType: EventOrderChanged, PayloadJSON: "{}", CreatedAt: now},
		{AgentID: "red-1", SeqNo: 2, EventType: EventOrderEnded, PayloadJSON: "{}", CreatedAt: now + 1},
		{AgentID: "blue-1", SeqNo: 1, EventType: EventOrderChanged, PayloadJSON: "{}", CreatedAt: now + 2},
	}
	for _, e := range events {
		if err := repo.Append(ctx, db, e); err != nil {
			t.Fatalf("Append seq=%d: %v", e.SeqNo, err)
		}
	}

	got, err := repo.ListByAgent(ctx, db, "red-1", 0)
	if err != nil {
		t.Fatalf("ListByAgent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].SeqNo != 1 || got[1].SeqNo != 2 {
		t.Errorf("seqs = %d, %d", got[0].SeqNo, got[1].SeqNo)
	}

	got, err = repo.ListByAgent(ctx, db, "red-1", 1)
	if err != nil {
		t.Fatalf("ListByAgent sinceSeq=1: %v", err)
	}
	if len(got) != 1 || got[0].SeqNo != 2 {
		t.Fatalf("since 1: %v", got)
	}

	recent, err := repo.ListRecent(ctx, db, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent len = %d, want 2", len(recent))
	}
	if recent[0].AgentID != "blue-1" {
		t.Errorf("newest event agent = %s, want blue-1", recent[0].AgentID)
	}
}

func TestSnapshotRepo_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo, err := NewSnapshotRepo()
	if err != nil {
		t.Fatalf("NewSnapshotRepo: %v", err)
	}

	empty, err := repo.GetLatest(ctx, db)
	if err != nil {
		t.Fatalf("GetLatest on empty db: %v", err)
	}
	if empty != nil {
		t.Fatalf("got %v, want nil", empty)
	}

	payload := []byte(`{"agents":[{"id":"red-1","current":{"type":"stop","index":-1}}]}`)
	if err := repo.Save(ctx, db, 10, payload, time.Now().Unix()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := repo.Save(ctx, db, 20, payload, time.Now().Unix()); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	got, err := repo.GetLatest(ctx, db)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got == nil || got.Tick != 20 {
		t.Fatalf("got = %v, want the tick-20 snapshot", got)
	}
	if !bytes.Equal(got.Blob, payload) {
		t.Errorf("payload did not survive the round trip")
	}

	if err := repo.Prune(ctx, db, 1); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM world_snapshots`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d after prune, want 1", count)
	}
}
