// Package sqlite provides a SQLite implementation of the embedding store.
//
// SQLite is a lightweight, file-based database suitable for local
// development and small-scale runs. Vectors are stored as JSON strings
// in TEXT fields.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/store"
)

// Client implements EmbeddingStore using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// table is the name of the table storing embeddings.
	table string
}

// Config contains configuration for creating a SQLite embedding store.
type Config struct {
	// Path is the path to the SQLite database file.
	Path string

	// Table is the name of the table to use. Defaults to "embeddings".
	Table string
}

// NewClient creates a new SQLite embedding store.
//
// Parameters:
//   - cfg: Configuration containing the database path and table name
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = "embeddings"
	}

	client := &Client{
		db:    db,
		table: table,
	}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			key TEXT NOT NULL,
			vector TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, key)
		)
	`, c.table)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_run ON %s(run_id)
	`, c.table, c.table)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Put writes one record, replacing any existing (run_id, key) row.
func (c *Client) Put(ctx context.Context, record *store.Record) error {
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (run_id, key, vector, created_at)
		VALUES (?, ?, ?, ?)
	`, c.table)

	vectorJSON, err := json.Marshal(record.Vector)
	if err != nil {
		return fmt.Errorf("Put: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = c.db.ExecContext(ctx, query,
		record.RunID,
		record.Key,
		string(vectorJSON),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

// PutBatch writes multiple records in a single transaction.
func (c *Client) PutBatch(ctx context.Context, records []*store.Record) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("PutBatch: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (run_id, key, vector, created_at)
		VALUES (?, ?, ?, ?)
	`, c.table)

	for _, record := range records {
		vectorJSON, err := json.Marshal(record.Vector)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("PutBatch: %w", err)
		}
		createdAt := record.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := tx.ExecContext(ctx, query, record.RunID, record.Key, string(vectorJSON), createdAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("PutBatch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("PutBatch: %w", err)
	}
	return nil
}

// Get retrieves a record by run and key.
//
// Returns pipeline.ErrNotFound if no such record exists.
func (c *Client) Get(ctx context.Context, runID, key string) (*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT run_id, key, vector, created_at FROM %s
		WHERE run_id = ? AND key = ?
	`, c.table)

	row := c.db.QueryRowContext(ctx, query, runID, key)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pipeline.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return record, nil
}

// List retrieves all records of a run, ordered by key.
func (c *Client) List(ctx context.Context, runID string) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT run_id, key, vector, created_at FROM %s
		WHERE run_id = ? ORDER BY key
	`, c.table)

	rows, err := c.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return records, nil
}

// DeleteRun deletes all records of a run.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = ?`, c.table)
	if _, err := c.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("DeleteRun: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord reads one record from a row, decoding the JSON vector.
func scanRecord(s scanner) (*store.Record, error) {
	var (
		record     store.Record
		vectorJSON string
	)
	if err := s.Scan(&record.RunID, &record.Key, &vectorJSON, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(vectorJSON), &record.Vector); err != nil {
		return nil, err
	}
	return &record, nil
}
