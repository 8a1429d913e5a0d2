package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-display/internal/eve"
	"github.com/nerrad567/gray-logic-display/internal/eve/evesim"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-display/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-display/internal/journal"
	"github.com/nerrad567/gray-logic-display/internal/node"
	_ "github.com/nerrad567/gray-logic-display/migrations" // registers embedded migrations
)

// newTestServer builds a server with a simulated display and a migrated
// journal, without starting the HTTP listener.
func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	sim := evesim.New(eve.VariantFT800)
	dev, err := eve.Register(sim, eve.Config{
		Variant: eve.VariantFT800,
		Profile: eve.ProfileWQVGA,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	reg := node.NewRegistry()
	if _, err := reg.Publish("/dev/ft800", dev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "api_test.db"),
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

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "json", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:   logger,
		Registry: reg,
		Journal:  journal.New(db.DB, 0, nil),
		DB:       db,
		Displays: map[string]string{"panel-hall": "/dev/ft800"},
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv.startTime = time.Now()

	return srv, srv.buildRouter()
}

func TestNewValidation(t *testing.T) {
	logger := logging.New(config.LoggingConfig{Level: "error", Format: "json", Output: "stdout"}, "test")

	if _, err := New(Deps{Registry: node.NewRegistry()}); err == nil {
		t.Error("New without logger should fail")
	}
	if _, err := New(Deps{Logger: logger}); err == nil {
		t.Error("New without registry should fail")
	}
}

func TestHandleHealth(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestHandleListDisplays(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/displays/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Displays []DisplayInfo `json:"displays"`
		Total    int           `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("total = %d, want 1", body.Total)
	}
	d := body.Displays[0]
	if d.Name != "panel-hall" || d.Path != "/dev/ft800" {
		t.Errorf("display = %+v, want panel-hall at /dev/ft800", d)
	}
	if d.Variant != "ft800" {
		t.Errorf("variant = %s, want ft800", d.Variant)
	}
}

func TestHandleDisplayStats(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/displays/panel-hall/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats DisplayStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if stats.Name != "panel-hall" {
		t.Errorf("name = %s, want panel-hall", stats.Name)
	}
}

func TestHandleDisplayStatsUnknown(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/displays/panel-ghost/stats", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var metrics SystemMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &metrics); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if metrics.Displays.Total != 1 {
		t.Errorf("displays total = %d, want 1", metrics.Displays.Total)
	}
	if metrics.Runtime.Goroutines == 0 {
		t.Error("goroutines = 0, want > 0")
	}
	if metrics.Database.OpenConnections == 0 {
		t.Error("open connections = 0, want > 0")
	}
}

func TestHandleListEvents(t *testing.T) {
	srv, router := newTestServer(t)

	srv.journal.DeviceEvent("/dev/ft800", "registered")
	srv.journal.DeviceEvent("/dev/ft800", "open")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events?node=/dev/ft800", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result journal.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("total = %d, want 2", result.Total)
	}
}

func TestHandleListEventsBadLimit(t *testing.T) {
	_, router := newTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListEventsNoJournal(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.journal = nil
	router := srv.buildRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestStartAndClose(t *testing.T) {
	srv, _ := newTestServer(t)

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCloseNotStarted(t *testing.T) {
	srv, _ := newTestServer(t)

	if err := srv.Close(); err != nil {
		t.Errorf("Close before Start: %v", err)
	}
}
