package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig contains configuration for the SQLite event store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is the database/sql driver name. Default: "sqlite3"
	// (mattn/go-sqlite3). Tests use "sqlite" (modernc.org/sqlite) to
	// avoid cgo.
	Driver string

	// WALMode enables write-ahead logging for better concurrency.
	// Default: true.
	WALMode bool

	// BusyTimeout is the wait when the database is locked.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        "data/events.db",
		Driver:      "sqlite3",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteLog is the durable Log backend.
type SQLiteLog struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteLog opens (and initializes if needed) a SQLite event store.
func NewSQLiteLog(config *SQLiteConfig) (*SQLiteLog, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite3"
	}

	logger := slog.Default().With("component", "eventlog.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %q: %w", config.Path, err)
	}

	l := &SQLiteLog{db: db, config: config, logger: logger}
	if err := l.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite event store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return l, nil
}

// initialize sets pragmas and creates the schema.
func (l *SQLiteLog) initialize() error {
	if l.config.WALMode {
		if _, err := l.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("eventlog: enable wal: %w", err)
		}
	}
	if _, err := l.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", l.config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("eventlog: set busy_timeout: %w", err)
	}

	if _, err := l.db.Exec(Schema); err != nil {
		return fmt.Errorf("eventlog: create schema: %w", err)
	}
	if _, err := l.db.Exec(insertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("eventlog: insert schema version: %w", err)
	}

	var version int
	if err := l.db.QueryRow(getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("eventlog: read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("eventlog: schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// Append atomically appends a batch of events in one transaction.
func (l *SQLiteLog) Append(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventlog: begin append: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEvent)
	if err != nil {
		return fmt.Errorf("eventlog: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		bindings, err := json.Marshal(e.Bindings)
		if err != nil {
			return fmt.Errorf("eventlog: marshal bindings for %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Tick, e.Seq, e.Where, e.RuleID, string(bindings), e.Recorded.UTC()); err != nil {
			return fmt.Errorf("eventlog: insert event %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("eventlog: commit append: %w", err)
	}

	l.logger.Debug("events appended", "count", len(events), "tick", events[0].Tick)
	return nil
}

// Since returns all events with Tick >= tick, ordered by (tick, seq).
func (l *SQLiteLog) Since(ctx context.Context, tick uint64) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, selectEventsSince, tick)
	if err != nil {
		return nil, fmt.Errorf("eventlog: query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var bindings string
		if err := rows.Scan(&e.ID, &e.Tick, &e.Seq, &e.Where, &e.RuleID, &bindings, &e.Recorded); err != nil {
			return nil, fmt.Errorf("eventlog: scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(bindings), &e.Bindings); err != nil {
			return nil, fmt.Errorf("eventlog: unmarshal bindings for %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: iterate events: %w", err)
	}
	return out, nil
}

// SaveCheckpoint stores a snapshot checkpoint for the given tick. The
// snapshot is an opaque serialized blob owned by the caller.
func (l *SQLiteLog) SaveCheckpoint(ctx context.Context, tick uint64, snapshot []byte) error {
	if _, err := l.db.ExecContext(ctx, insertCheckpoint, tick, string(snapshot), time.Now().UTC()); err != nil {
		return fmt.Errorf("eventlog: save checkpoint at tick %d: %w", tick, err)
	}
	l.logger.Info("checkpoint saved", "tick", tick, "bytes", len(snapshot))
	return nil
}

// LatestCheckpoint returns the most recent checkpoint, if any.
func (l *SQLiteLog) LatestCheckpoint(ctx context.Context) (uint64, []byte, bool, error) {
	var tick uint64
	var snapshot string
	err := l.db.QueryRowContext(ctx, selectLatestCheckpoint).Scan(&tick, &snapshot)
	if err == sql.ErrNoRows {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, fmt.Errorf("eventlog: load checkpoint: %w", err)
	}
	return tick, []byte(snapshot), true, nil
}

// PruneBefore deletes all events with Tick < tick. Callers must only
// prune below an existing checkpoint or replay equivalence is lost.
func (l *SQLiteLog) PruneBefore(ctx context.Context, tick uint64) (int64, error) {
	res, err := l.db.ExecContext(ctx, deleteEventsBefore, tick)
	if err != nil {
		return 0, fmt.Errorf("eventlog: prune before tick %d: %w", tick, err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		l.logger.Info("events pruned", "before_tick", tick, "deleted", deleted)
	}
	return deleted, nil
}

// Close closes the database.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
