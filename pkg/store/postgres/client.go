// Package postgres provides a PostgreSQL implementation of the
// embedding store. Vectors are stored as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/store"
)

// Client is a PostgreSQL embedding store client.
type Client struct {
	db    *sql.DB
	table string
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Table    string
	SSLMode  string
}

// NewClient creates a new PostgreSQL client.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
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

// initTables initializes the database table.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id VARCHAR(255) NOT NULL,
			key VARCHAR(255) NOT NULL,
			vector JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, key)
		)
	`, c.table)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: create table: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_run ON %s(run_id)
	`, c.table, c.table)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: create index: %w", err)
	}

	return nil
}

// Put writes one record, replacing any existing (run_id, key) row.
func (c *Client) Put(ctx context.Context, record *store.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, key, vector, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, key) DO UPDATE
		SET vector = EXCLUDED.vector, created_at = EXCLUDED.created_at
	`, c.table)

	vectorJSON, err := json.Marshal(record.Vector)
	if err != nil {
		return fmt.Errorf("Put: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = c.db.ExecContext(ctx, query, record.RunID, record.Key, string(vectorJSON), createdAt)
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
		INSERT INTO %s (run_id, key, vector, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, key) DO UPDATE
		SET vector = EXCLUDED.vector, created_at = EXCLUDED.created_at
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
		WHERE run_id = $1 AND key = $2
	`, c.table)

	var (
		record     store.Record
		vectorJSON []byte
	)
	err := c.db.QueryRowContext(ctx, query, runID, key).
		Scan(&record.RunID, &record.Key, &vectorJSON, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pipeline.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if err := json.Unmarshal(vectorJSON, &record.Vector); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &record, nil
}

// List retrieves all records of a run, ordered by key.
func (c *Client) List(ctx context.Context, runID string) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT run_id, key, vector, created_at FROM %s
		WHERE run_id = $1 ORDER BY key
	`, c.table)

	rows, err := c.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var records []*store.Record
	for rows.Next() {
		var (
			record     store.Record
			vectorJSON []byte
		)
		if err := rows.Scan(&record.RunID, &record.Key, &vectorJSON, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		if err := json.Unmarshal(vectorJSON, &record.Vector); err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return records, nil
}

// DeleteRun deletes all records of a run.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = $1`, c.table)
	if _, err := c.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("DeleteRun: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}
