package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-display/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-display/migrations" // registers embedded migrations
)

// openTestDB creates a migrated database in a temporary directory.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal_test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	return db
}

func TestDeviceEventRecords(t *testing.T) {
	db := openTestDB(t)
	j := New(db.DB, 0, nil)

	j.DeviceEvent("/dev/ft800", "registered")
	j.DeviceEvent("/dev/ft800", "open")
	j.DeviceEvent("/dev/ft801", "registered")

	result, err := j.Recent(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("Total = %d, want 3", result.Total)
	}

	// Most recent first.
	if result.Events[0].Node != "/dev/ft801" || result.Events[0].Event != "registered" {
		t.Errorf("first event = %s/%s, want /dev/ft801/registered",
			result.Events[0].Node, result.Events[0].Event)
	}
	if result.Events[2].Event != "registered" || result.Events[2].Node != "/dev/ft800" {
		t.Errorf("oldest event = %s/%s, want /dev/ft800/registered",
			result.Events[2].Node, result.Events[2].Event)
	}

	for _, e := range result.Events {
		if e.ID == "" {
			t.Error("event ID not set")
		}
		if e.CreatedAt.IsZero() {
			t.Error("event CreatedAt not set")
		}
	}
}

func TestRecentFilters(t *testing.T) {
	db := openTestDB(t)
	j := New(db.DB, 0, nil)

	j.DeviceEvent("/dev/ft800", "registered")
	j.DeviceEvent("/dev/ft800", "open")
	j.DeviceEvent("/dev/ft800", "close")
	j.DeviceEvent("/dev/ft801", "registered")

	ctx := context.Background()

	byNode, err := j.Recent(ctx, Filter{Node: "/dev/ft800"})
	if err != nil {
		t.Fatalf("Recent by node: %v", err)
	}
	if byNode.Total != 3 {
		t.Errorf("node filter Total = %d, want 3", byNode.Total)
	}

	byEvent, err := j.Recent(ctx, Filter{Event: "registered"})
	if err != nil {
		t.Fatalf("Recent by event: %v", err)
	}
	if byEvent.Total != 2 {
		t.Errorf("event filter Total = %d, want 2", byEvent.Total)
	}

	both, err := j.Recent(ctx, Filter{Node: "/dev/ft801", Event: "registered"})
	if err != nil {
		t.Fatalf("Recent by node and event: %v", err)
	}
	if both.Total != 1 {
		t.Errorf("combined filter Total = %d, want 1", both.Total)
	}
}

func TestRecentPagination(t *testing.T) {
	db := openTestDB(t)
	j := New(db.DB, 0, nil)

	for i := 0; i < 5; i++ {
		j.DeviceEvent("/dev/ft800", "open")
	}

	result, err := j.Recent(context.Background(), Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if result.Total != 5 {
		t.Errorf("Total = %d, want 5", result.Total)
	}
	if len(result.Events) != 2 {
		t.Errorf("len(Events) = %d, want 2", len(result.Events))
	}
	if result.Limit != 2 || result.Offset != 2 {
		t.Errorf("Limit/Offset = %d/%d, want 2/2", result.Limit, result.Offset)
	}
}

func TestPruneRetainsNewest(t *testing.T) {
	db := openTestDB(t)
	j := New(db.DB, 3, nil)

	events := []string{"registered", "open", "close", "open", "close"}
	for _, e := range events {
		j.DeviceEvent("/dev/ft800", e)
	}

	ctx := context.Background()
	count, err := j.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Fatalf("Count = %d, want 3 after pruning", count)
	}

	result, err := j.Recent(ctx, Filter{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	// The three newest survive, in reverse insert order.
	want := []string{"close", "open", "close"}
	for i, e := range result.Events {
		if e.Event != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Event, want[i])
		}
	}
}

func TestRecentEmpty(t *testing.T) {
	db := openTestDB(t)
	j := New(db.DB, 0, nil)

	result, err := j.Recent(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if result.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Total)
	}
	if result.Events == nil {
		t.Error("Events should be an empty slice, not nil")
	}
}

func TestDeviceEventLogsFailure(t *testing.T) {
	db := openTestDB(t)

	logger := &captureLogger{}
	j := New(db.DB, 0, logger)

	// Close the database to force the insert to fail.
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j.DeviceEvent("/dev/ft800", "open")

	if len(logger.errors) != 1 {
		t.Errorf("logged %d errors, want 1", len(logger.errors))
	}
}

type captureLogger struct {
	errors []string
}

func (l *captureLogger) Error(msg string, keysAndValues ...any) {
	l.errors = append(l.errors, msg)
}
