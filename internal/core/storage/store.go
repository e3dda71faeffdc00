package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ticktree/ticktree/internal/core/bt"
)

// TickRecord is one persisted tick: the root outcome plus the full node
// snapshot, so past ticks can be replayed in the monitor.
type TickRecord struct {
	TreeID     string            `json:"tree_id"`
	TreeName   string            `json:"tree_name"`
	TickID     uint64            `json:"tick_id"`
	State      string            `json:"state"`
	DurationMS float64           `json:"duration_ms"`
	Executed   int               `json:"executed"`
	Nodes      []bt.NodeSnapshot `json:"nodes,omitempty"`
	At         time.Time         `json:"at"`
}

// NewRecord converts an agent tick report into its persisted form.
func NewRecord(rep bt.TickReport) *TickRecord {
	rec := &TickRecord{
		TreeID:     rep.TreeID,
		TreeName:   rep.TreeName,
		TickID:     rep.TickID,
		State:      rep.State.String(),
		DurationMS: float64(rep.Duration) / float64(time.Millisecond),
		At:         time.Now(),
	}
	if rep.Snapshot != nil {
		rec.Executed = len(rep.Snapshot.Nodes)
		rec.Nodes = rep.Snapshot.Nodes
	}
	return rec
}

// Store keeps tick history in SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the tick database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the database under the user's home directory,
// ~/.ticktree/ticks.db.
func OpenDefault() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return Open(filepath.Join(homeDir, ".ticktree", "ticks.db"))
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ticks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		tree_id     TEXT NOT NULL,
		tree_name   TEXT NOT NULL,
		tick_id     INTEGER NOT NULL,
		state       TEXT NOT NULL,
		duration_ms REAL NOT NULL,
		executed    INTEGER NOT NULL,
		nodes       TEXT,
		at          TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ticks_tree_at ON ticks(tree_id, at DESC);
	CREATE INDEX IF NOT EXISTS idx_ticks_at ON ticks(at);
	`
	_, err := db.Exec(schema)
	return err
}

// Append persists one tick record.
func (s *Store) Append(ctx context.Context, rec *TickRecord) error {
	if rec == nil {
		return fmt.Errorf("cannot append nil record")
	}

	var nodes sql.NullString
	if len(rec.Nodes) > 0 {
		data, err := json.Marshal(rec.Nodes)
		if err != nil {
			return fmt.Errorf("failed to marshal nodes: %w", err)
		}
		nodes.Valid = true
		nodes.String = string(data)
	}

	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticks (tree_id, tree_name, tick_id, state, duration_ms, executed, nodes, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TreeID, rec.TreeName, rec.TickID, rec.State,
		rec.DurationMS, rec.Executed, nodes, at,
	)
	if err != nil {
		return fmt.Errorf("failed to append tick: %w", err)
	}
	return nil
}

// Recent returns up to limit records for a tree, newest first. An empty
// treeID matches every tree.
func (s *Store) Recent(ctx context.Context, treeID string, limit int) ([]TickRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT tree_id, tree_name, tick_id, state, duration_ms, executed, nodes, at
		FROM ticks`
	args := []any{}
	if treeID != "" {
		query += " WHERE tree_id = ?"
		args = append(args, treeID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []TickRecord
	for rows.Next() {
		var rec TickRecord
		var nodes sql.NullString
		if err := rows.Scan(&rec.TreeID, &rec.TreeName, &rec.TickID, &rec.State,
			&rec.DurationMS, &rec.Executed, &nodes, &rec.At); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}
		if nodes.Valid {
			if err := json.Unmarshal([]byte(nodes.String), &rec.Nodes); err != nil {
				return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes records older than keep and reports how many went away.
func (s *Store) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM ticks WHERE at < ?", time.Now().Add(-keep))
	if err != nil {
		return 0, fmt.Errorf("failed to prune ticks: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
