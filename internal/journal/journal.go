// Package journal persists display lifecycle events to SQLite.
//
// The journal implements eve.EventSink, so a configured device records
// every lifecycle transition (registered, open, close, unlink,
// destroyed) as it happens. Entries are pruned oldest-first once the
// table exceeds the configured maximum.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-display/internal/eve"
)

// Default limits for event queries and retention.
const (
	defaultListLimit = 50
	maxListLimit     = 200

	// writeTimeout bounds the insert performed by DeviceEvent, which
	// runs on the device's calling goroutine.
	writeTimeout = 5 * time.Second
)

// Event is a single recorded lifecycle transition.
type Event struct {
	ID        string    `json:"id"`
	Node      string    `json:"node"`
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter controls which events Recent returns.
type Filter struct {
	Node   string // optional: filter by node path (e.g. "/dev/ft800")
	Event  string // optional: filter by event name (e.g. "unlink")
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// ListResult contains paginated event results.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Logger is the minimal logging interface the journal needs.
// DeviceEvent cannot return an error, so failures are logged instead.
type Logger interface {
	Error(msg string, keysAndValues ...any)
}

// Journal records display lifecycle events in SQLite.
type Journal struct {
	db        *sql.DB
	maxEvents int
	logger    Logger
}

var _ eve.EventSink = (*Journal)(nil)

// New creates a journal backed by the given database. The display_events
// table must already exist (created by migrations). maxEvents of zero
// disables pruning.
func New(db *sql.DB, maxEvents int, logger Logger) *Journal {
	return &Journal{
		db:        db,
		maxEvents: maxEvents,
		logger:    logger,
	}
}

// DeviceEvent records a lifecycle event. It satisfies eve.EventSink;
// insert failures are logged rather than surfaced, so a journal outage
// never blocks device operations.
func (j *Journal) DeviceEvent(node, event string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := j.record(ctx, node, event); err != nil {
		if j.logger != nil {
			j.logger.Error("failed to journal display event",
				"node", node, "event", event, "error", err)
		}
	}
}

// record inserts the event and prunes old rows past the retention limit.
func (j *Journal) record(ctx context.Context, node, event string) error {
	id := "evt-" + uuid.NewString()[:8]
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO display_events (id, node, event, created_at) VALUES (?, ?, ?, ?)`,
		id, node, event, createdAt,
	)
	if err != nil {
		return fmt.Errorf("inserting display event: %w", err)
	}

	if j.maxEvents > 0 {
		// rowid order is insert order, which keeps pruning stable even
		// when multiple events land within the same second.
		_, err = j.db.ExecContext(ctx,
			`DELETE FROM display_events WHERE rowid NOT IN
			 (SELECT rowid FROM display_events ORDER BY rowid DESC LIMIT ?)`,
			j.maxEvents,
		)
		if err != nil {
			return fmt.Errorf("pruning display events: %w", err)
		}
	}

	return nil
}

// Recent returns events matching the filter, most recent first.
func (j *Journal) Recent(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.Node != "" {
		conditions = append(conditions, "node = ?")
		args = append(args, filter.Node)
	}
	if filter.Event != "" {
		conditions = append(conditions, "event = ?")
		args = append(args, filter.Event)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// WHERE clause is built from parameterised conditions (? placeholders) — no user input in SQL string.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM display_events %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := j.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting display events: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, node, event, created_at FROM display_events %s ORDER BY rowid DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying display events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var createdAt string

		if err := rows.Scan(&e.ID, &e.Node, &e.Event, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning display event: %w", err)
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating display events: %w", err)
	}

	if events == nil {
		events = []Event{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// Count returns the total number of journalled events.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var count int
	if err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM display_events",
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting display events: %w", err)
	}
	return count, nil
}
