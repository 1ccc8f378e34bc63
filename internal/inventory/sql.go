package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLSource reads the inventory table from a SQLite database.
type SQLSource struct {
	db   *sql.DB
	path string
}

// OpenSQL opens the database at path and makes sure the inventory table
// exists.
func OpenSQL(path string) (*SQLSource, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open inventory db: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	s := &SQLSource{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLSource) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS inventory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT ''
	)`)
	return err
}

func (s *SQLSource) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLSource) Path() string {
	return s.path
}

// List returns every row in id order.
func (s *SQLSource) List(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, url, type FROM inventory ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.URL, &it.Type); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return items, nil
}

// Add inserts an item and returns its id. The name falls back to the
// last path segment of the URL.
func (s *SQLSource) Add(ctx context.Context, it Item) (int64, error) {
	it.URL = strings.TrimSpace(it.URL)
	if it.URL == "" {
		return 0, fmt.Errorf("inventory item needs a url")
	}
	if strings.TrimSpace(it.Name) == "" {
		it.Name = it.URL[strings.LastIndex(it.URL, "/")+1:]
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory (name, url, type) VALUES (?, ?, ?)`, it.Name, it.URL, it.Type)
	if err != nil {
		return 0, fmt.Errorf("insert inventory: %w", err)
	}
	return res.LastInsertId()
}

// Remove deletes a row by id. Removing a missing id is not an error.
func (s *SQLSource) Remove(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete inventory %d: %w", id, err)
	}
	return nil
}
