// Package journal keeps a SQLite history of every file tidyd has moved.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/mover"
)

// Entry is one recorded move
type Entry struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	From     string            `json:"from" yaml:"from"`
	To       string            `json:"to" yaml:"to"`
	DestRoot string            `json:"dest_root" yaml:"dest_root"`
	Category category.Category `json:"category" yaml:"category"`
	Size     int64             `json:"size" yaml:"size"`
	MovedAt  time.Time         `json:"moved_at" yaml:"moved_at"`
}

// Totals aggregates moves for one category
type Totals struct {
	Count int   `json:"count" yaml:"count"`
	Size  int64 `json:"size" yaml:"size"`
}

// Store manages move history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the journal database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordMove stores a completed move. It satisfies mover.Recorder.
func (s *Store) RecordMove(ctx context.Context, m mover.Move) error {
	movedAt := m.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO moves (id, name, from_path, to_path, category, size, dest_root, moved_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		m.Name,
		m.From,
		m.To,
		m.Category.String(),
		m.Size,
		m.DestRoot,
		movedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// Recent returns the newest moves first. A non-positive limit returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, name, from_path, to_path, dest_root, category, size, moved_at
              FROM moves ORDER BY moved_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			cat     string
			movedAt int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.From, &e.To, &e.DestRoot, &cat, &e.Size, &movedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		e.Category = category.Category(cat)
		e.MovedAt = time.UnixMilli(movedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moves: %w", err)
	}
	return entries, nil
}

// CountsSince totals moves at or after since, per category. When destRoot is
// non-empty only moves into that root are counted.
func (s *Store) CountsSince(ctx context.Context, since time.Time, destRoot string) (map[category.Category]Totals, error) {
	query := `SELECT category, COUNT(1), COALESCE(SUM(size), 0) FROM moves WHERE moved_at >= ?`
	args := []any{since.UnixMilli()}
	if destRoot != "" {
		query += " AND dest_root = ?"
		args = append(args, filepath.Clean(destRoot))
	}
	query += " GROUP BY category"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count moves: %w", err)
	}
	defer rows.Close()

	counts := make(map[category.Category]Totals)
	for rows.Next() {
		var (
			cat string
			t   Totals
		)
		if err := rows.Scan(&cat, &t.Count, &t.Size); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		counts[category.Category(cat)] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// Prune deletes moves recorded before cutoff and returns how many were removed
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM moves WHERE moved_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune moves: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
