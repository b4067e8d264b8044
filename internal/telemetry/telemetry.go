// Package telemetry records anonymous local usage events in SQLite.
// Nothing leaves the machine; the store exists so users can inspect
// their own usage and so failures are countable across sessions.
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Recorder writes telemetry events. A nil Recorder is valid and drops
// everything, which is how opt-out is implemented.
type Recorder struct {
	db        *sql.DB
	installID string
	log       *zap.Logger
}

// ToolStat is one row of the per-tool summary.
type ToolStat struct {
	Tool         string
	Calls        int
	Failures     int
	AvgLatencyMS float64
}

// Summary aggregates the event store for the telemetry subcommand.
type Summary struct {
	InstallID string
	Startups  int
	ToolCalls int
	Tools     []ToolStat
}

// Open initializes the event store at the given path.
func Open(path string, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	r := &Recorder{db: db, log: log}
	if err := r.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return r, nil
}

func (r *Recorder) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		install_id TEXT NOT NULL,
		event      TEXT NOT NULL,
		tool       TEXT,
		ok         INTEGER NOT NULL DEFAULT 1,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_events_tool ON events(tool);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	// Install id persists across sessions so counts can be grouped.
	var id string
	err := r.db.QueryRow(`SELECT value FROM meta WHERE key = 'install_id'`).Scan(&id)
	if err == sql.ErrNoRows {
		id = uuid.NewString()
		if _, err := r.db.Exec(`INSERT INTO meta (key, value) VALUES ('install_id', ?)`, id); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	r.installID = id
	return nil
}

// InstallID returns the persistent anonymous install id.
func (r *Recorder) InstallID() string {
	if r == nil {
		return ""
	}
	return r.installID
}

// RecordStartup logs a process start.
func (r *Recorder) RecordStartup(ctx context.Context) {
	if r == nil {
		return
	}
	r.insert(ctx, "startup", "", true, 0)
}

// RecordTool logs one tool invocation.
func (r *Recorder) RecordTool(ctx context.Context, tool string, ok bool, latency time.Duration) {
	if r == nil {
		return
	}
	r.insert(ctx, "tool_call", tool, ok, latency.Milliseconds())
}

func (r *Recorder) insert(ctx context.Context, event, tool string, ok bool, latencyMS int64) {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (install_id, event, tool, ok, latency_ms) VALUES (?, ?, ?, ?, ?)`,
		r.installID, event, tool, okInt, latencyMS)
	if err != nil {
		// Telemetry must never break a tool call.
		r.log.Debug("telemetry insert failed", zap.Error(err))
	}
}

// Summarize aggregates the event store.
func (r *Recorder) Summarize(ctx context.Context) (*Summary, error) {
	if r == nil {
		return nil, fmt.Errorf("telemetry is disabled")
	}

	s := &Summary{InstallID: r.installID}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE event = 'startup'`).Scan(&s.Startups)
	if err != nil {
		return nil, fmt.Errorf("failed to count startups: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT tool,
		       COUNT(*),
		       SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END),
		       AVG(latency_ms)
		FROM events
		WHERE event = 'tool_call'
		GROUP BY tool
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st ToolStat
		if err := rows.Scan(&st.Tool, &st.Calls, &st.Failures, &st.AvgLatencyMS); err != nil {
			return nil, err
		}
		s.ToolCalls += st.Calls
		s.Tools = append(s.Tools, st)
	}
	return s, rows.Err()
}

// Close flushes and closes the store. Safe on nil.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.db.Close()
}
