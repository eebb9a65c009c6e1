package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitlog/internal/core"
	"fitlog/internal/storage"
)

func fixedClock(key string) Clock {
	t, err := time.ParseInLocation(core.DateKeyLayout, key, time.UTC)
	if err != nil {
		panic(err)
	}
	t = t.Add(15 * time.Hour)
	return func() time.Time { return t }
}

func newTestLedger(t *testing.T, today string) (*Ledger, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return New(store, Options{Now: fixedClock(today), Location: time.UTC}), store
}

func TestMergeTodayScenario(t *testing.T) {
	l, _ := newTestLedger(t, "2024-01-01")
	got, err := l.MergeToday(context.Background(), core.DailyRecord{Pushups: 50})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := core.DailyRecord{Pushups: 50}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if rec := l.Get("2024-01-01"); rec != want {
		t.Fatalf("ledger entry %+v, want %+v", rec, want)
	}
}

func TestMergeTodayIsAdditive(t *testing.T) {
	tests := []struct {
		name     string
		r1, r2   core.DailyRecord
		wantHang string
	}{
		{"second hold wins", core.DailyRecord{Pushups: 10, DeadHang: "0:30"}, core.DailyRecord{Pushups: 5, Squats: 3, DeadHang: "1:00"}, "1:00"},
		{"empty hold keeps first", core.DailyRecord{Pullups: 4, DeadHang: "0:30"}, core.DailyRecord{Pullups: 6}, "0:30"},
		{"both empty", core.DailyRecord{Squats: 1}, core.DailyRecord{Squats: 1}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLedger(t, "2024-05-05")
			ctx := context.Background()
			if _, err := l.MergeToday(ctx, tt.r1); err != nil {
				t.Fatal(err)
			}
			got, err := l.MergeToday(ctx, tt.r2)
			if err != nil {
				t.Fatal(err)
			}
			want := core.DailyRecord{
				Pushups:  tt.r1.Pushups + tt.r2.Pushups,
				Pullups:  tt.r1.Pullups + tt.r2.Pullups,
				Squats:   tt.r1.Squats + tt.r2.Squats,
				DeadHang: tt.wantHang,
			}
			if got != want {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestMergeCoercesNegativeToZero(t *testing.T) {
	l, _ := newTestLedger(t, "2024-05-05")
	got, err := l.MergeToday(context.Background(), core.DailyRecord{Pushups: -10, Squats: 3})
	if err != nil {
		t.Fatal(err)
	}
	if got != (core.DailyRecord{Squats: 3}) {
		t.Fatalf("got %+v", got)
	}
}

func TestReplaceAndRemove(t *testing.T) {
	l, _ := newTestLedger(t, "2024-05-05")
	ctx := context.Background()

	if _, err := l.Merge(ctx, "2024-05-01", core.DailyRecord{Pushups: 100, DeadHang: "1:00"}); err != nil {
		t.Fatal(err)
	}
	r := core.DailyRecord{Pushups: 7, Pullups: 1}
	if err := l.Replace(ctx, "2024-05-01", r); err != nil {
		t.Fatal(err)
	}
	if got := l.Get("2024-05-01"); got != r {
		t.Fatalf("replace is not a wholesale overwrite: got %+v", got)
	}

	if err := l.Remove(ctx, "2024-05-01"); err != nil {
		t.Fatal(err)
	}
	if got := l.Get("2024-05-01"); !got.IsZero() {
		t.Fatalf("expected zero record after remove, got %+v", got)
	}
	if _, ok := l.Lookup("2024-05-01"); ok || l.Len() != 0 {
		t.Fatalf("entry still present after remove")
	}

	// Removing an absent key is a no-op.
	if err := l.Remove(ctx, "1999-01-01"); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
}

func TestGetDoesNotCreate(t *testing.T) {
	l, _ := newTestLedger(t, "2024-05-05")
	_ = l.Get("2024-05-05")
	if l.Len() != 0 {
		t.Fatalf("get created an entry")
	}
}

func TestInsertionOrder(t *testing.T) {
	l, _ := newTestLedger(t, "2024-05-05")
	ctx := context.Background()
	for _, k := range []string{"2024-05-03", "2024-05-01", "2024-05-02"} {
		if err := l.Replace(ctx, k, core.DailyRecord{Pushups: 1}); err != nil {
			t.Fatal(err)
		}
	}
	// Overwriting keeps the original position.
	if err := l.Replace(ctx, "2024-05-03", core.DailyRecord{Pushups: 9}); err != nil {
		t.Fatal(err)
	}
	if err := l.Remove(ctx, "2024-05-01"); err != nil {
		t.Fatal(err)
	}
	if err := l.Replace(ctx, "2024-05-01", core.DailyRecord{Pushups: 2}); err != nil {
		t.Fatal(err)
	}

	snap := l.Snapshot()
	want := []string{"2024-05-03", "2024-05-02", "2024-05-01"}
	if len(snap) != len(want) {
		t.Fatalf("snapshot length %d", len(snap))
	}
	for i, k := range want {
		if snap[i].Date != k {
			t.Fatalf("position %d: expected %s, got %s", i, k, snap[i].Date)
		}
	}
	if rec, ok := snap.Get("2024-05-03"); !ok || rec.Pushups != 9 {
		t.Fatalf("snapshot lookup: %+v %v", rec, ok)
	}
}

func TestPersistsAfterEveryMutation(t *testing.T) {
	l, store := newTestLedger(t, "2024-05-05")
	ctx := context.Background()

	if _, err := l.MergeToday(ctx, core.DailyRecord{Pushups: 3}); err != nil {
		t.Fatal(err)
	}
	if err := l.Replace(ctx, "2024-04-30", core.DailyRecord{Squats: 8, DeadHang: "0:40"}); err != nil {
		t.Fatal(err)
	}
	data, err := store.Load(ctx, storage.LedgerKey)
	if err != nil {
		t.Fatalf("load persisted: %v", err)
	}
	want := `{"2024-05-05":{"pushups":3,"pullups":0,"squats":0,"deadHang":""},"2024-04-30":{"pushups":0,"pullups":0,"squats":8,"deadHang":"0:40"}}`
	if string(data) != want {
		t.Fatalf("persisted\n got %s\nwant %s", data, want)
	}

	if err := l.Remove(ctx, "2024-05-05"); err != nil {
		t.Fatal(err)
	}
	data, _ = store.Load(ctx, storage.LedgerKey)
	if string(data) != `{"2024-04-30":{"pushups":0,"pullups":0,"squats":8,"deadHang":"0:40"}}` {
		t.Fatalf("after remove: %s", data)
	}
}

func TestRollbackOnPersistFailure(t *testing.T) {
	l, store := newTestLedger(t, "2024-05-05")
	ctx := context.Background()
	if _, err := l.MergeToday(ctx, core.DailyRecord{Pushups: 3}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("disk full")
	store.FailSaves(boom)

	if _, err := l.MergeToday(ctx, core.DailyRecord{Pushups: 10}); !errors.Is(err, boom) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if got := l.Get("2024-05-05"); got.Pushups != 3 {
		t.Fatalf("merge not rolled back: %+v", got)
	}
	if err := l.Replace(ctx, "2024-01-01", core.DailyRecord{Pushups: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if _, ok := l.Lookup("2024-01-01"); ok {
		t.Fatalf("replace of new key not rolled back")
	}
	if err := l.Remove(ctx, "2024-05-05"); !errors.Is(err, boom) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if rec, ok := l.Lookup("2024-05-05"); !ok || rec.Pushups != 3 || l.Len() != 1 {
		t.Fatalf("remove not rolled back")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	raw := `{"2024-02-02":{"pushups":"12","squats":null},"bogus":{"pushups":1},"2024-02-01":{"pushups":4,"deadHang":"0:20"},"2024-02-02":{"pushups":13}}`
	if err := store.Save(ctx, storage.LedgerKey, []byte(raw)); err != nil {
		t.Fatal(err)
	}

	l, err := Load(ctx, store, Options{Now: fixedClock("2024-02-03"), Location: time.UTC})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := l.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 entries, got %+v", snap)
	}
	if snap[0].Date != "2024-02-02" || snap[0].Record.Pushups != 13 {
		t.Fatalf("duplicate key should keep first position and last value: %+v", snap[0])
	}
	if snap[1].Record != (core.DailyRecord{Pushups: 4, DeadHang: "0:20"}) {
		t.Fatalf("second entry: %+v", snap[1])
	}
}

func TestLoadEmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	l, err := Load(ctx, store, Options{})
	if err != nil || l.Len() != 0 {
		t.Fatalf("empty store: len=%d err=%v", l.Len(), err)
	}

	if err := store.Save(ctx, storage.LedgerKey, []byte(`[1,2,3]`)); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(ctx, store, Options{}); err == nil {
		t.Fatalf("expected decode error for non-object ledger")
	}
}

func TestTodayUsesLocation(t *testing.T) {
	utc := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	east := time.FixedZone("UTC+2", 2*3600)
	l := New(storage.NewMemoryStore(), Options{Now: func() time.Time { return utc }, Location: east})
	if got := l.Today(); got != "2024-03-02" {
		t.Fatalf("expected local calendar day, got %s", got)
	}
}
