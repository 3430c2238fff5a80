package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
	"github.com/nerrad567/gray-logic-systembus/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-systembus/migrations"
)

// openTestRepo creates a migrated temp database and a repository on top.
func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_Create(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	entry := &Entry{Op: bus.OpWrite, Outcome: bus.OutcomeOK, DeviceID: 1, Address: 0x10, Data: 42}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if !strings.HasPrefix(entry.ID, "evt-") {
		t.Errorf("ID = %q, want evt- prefix", entry.ID)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt was not set")
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("List() total=%d len=%d, want 1", res.Total, len(res.Entries))
	}

	got := res.Entries[0]
	if got.ID != entry.ID || got.Op != bus.OpWrite || got.Data != 42 || got.Address != 0x10 {
		t.Errorf("List()[0] = %+v, want %+v", got, *entry)
	}
	if !got.CreatedAt.Equal(entry.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, entry.CreatedAt)
	}
}

func TestSQLiteRepository_CreateInvalid(t *testing.T) {
	repo := openTestRepo(t)

	err := repo.Create(context.Background(), &Entry{DeviceID: 1})
	if !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Create() error = %v, want ErrInvalidEntry", err)
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Op: bus.OpAdd, Outcome: bus.OutcomeOK, DeviceID: 1, Address: 0x10},
		{Op: bus.OpAdd, Outcome: bus.OutcomeOK, DeviceID: 2, Address: 0x20},
		{Op: bus.OpWrite, Outcome: bus.OutcomeOK, DeviceID: 1, Address: 0x10, Data: 42},
		{Op: bus.OpRead, Outcome: bus.OutcomeNotFound, DeviceID: 9, Address: 0x90},
		{Op: bus.OpRemove, Outcome: bus.OutcomeOK, DeviceID: 1, Address: 0x10, Data: 42},
	}
	for i := range seed {
		seed[i].CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantFirst bus.Op
	}{
		{name: "all newest first", filter: Filter{}, wantTotal: 5, wantFirst: bus.OpRemove},
		{name: "by device", filter: Filter{DeviceID: Device(1)}, wantTotal: 3, wantFirst: bus.OpRemove},
		{name: "by op", filter: Filter{Op: bus.OpAdd}, wantTotal: 2, wantFirst: bus.OpAdd},
		{name: "by outcome", filter: Filter{Outcome: bus.OutcomeNotFound}, wantTotal: 1, wantFirst: bus.OpRead},
		{name: "device and op", filter: Filter{DeviceID: Device(1), Op: bus.OpWrite}, wantTotal: 1, wantFirst: bus.OpWrite},
		{name: "offset", filter: Filter{Limit: 2, Offset: 1}, wantTotal: 5, wantFirst: bus.OpRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			if len(res.Entries) == 0 {
				t.Fatal("expected entries")
			}
			if res.Entries[0].Op != tt.wantFirst {
				t.Errorf("first op = %s, want %s", res.Entries[0].Op, tt.wantFirst)
			}
		})
	}
}

func TestSQLiteRepository_ListClampsLimit(t *testing.T) {
	repo := openTestRepo(t)

	res, err := repo.List(context.Background(), Filter{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != maxListLimit || res.Offset != 0 {
		t.Errorf("Limit=%d Offset=%d, want %d and 0", res.Limit, res.Offset, maxListLimit)
	}
	if res.Entries == nil {
		t.Error("Entries should be empty, not nil")
	}
}

func TestRecorder_PersistsReset(t *testing.T) {
	repo := openTestRepo(t)
	recorder := NewRecorder(repo)
	warn := &warnCounter{}
	recorder.SetLogger(warn)

	b := bus.New(bus.WithObserver(recorder))
	_ = b.AddDevice(1, 0x10)
	_ = b.AddDevice(2, 0x20)
	b.Reset()

	if warn.count != 0 {
		t.Fatalf("recorder logged %d insert failures", warn.count)
	}

	result, err := repo.List(context.Background(), Filter{Op: bus.OpReset})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("reset entries = %d, want 1", result.Total)
	}
	if got := result.Entries[0]; got.Outcome != bus.OutcomeOK || got.Data != 2 {
		t.Errorf("reset entry = %+v, want ok with 2 devices removed", got)
	}
}
