// Package store provides interfaces and types for embedding persistence.
//
// It defines the EmbeddingStore interface that all storage backends must
// satisfy. The store sits downstream of the pipeline: the core transforms
// keep no state between calls, and persistence is strictly a sink for
// finished vectors.
package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/embedlab/hidim-go/pkg/pipeline"
)

// Record is one persisted embedding vector.
type Record struct {
	// RunID is the pipeline run that produced the vector.
	RunID string

	// Key identifies the vector within the run (a token or group key).
	Key string

	// Vector is the embedding, stored as JSON text by the backends.
	Vector []float64

	// CreatedAt is when the record was written.
	CreatedAt time.Time
}

// EmbeddingStore defines the interface for embedding storage backends.
//
// All storage implementations (SQLite, PostgreSQL) must implement this
// interface.
type EmbeddingStore interface {
	// Put writes one record, replacing any record with the same
	// (RunID, Key).
	Put(ctx context.Context, record *Record) error

	// PutBatch writes multiple records.
	PutBatch(ctx context.Context, records []*Record) error

	// Get retrieves a record by run and key.
	//
	// Returns pipeline.ErrNotFound if no such record exists.
	Get(ctx context.Context, runID, key string) (*Record, error)

	// List retrieves all records of a run, ordered by key.
	List(ctx context.Context, runID string) ([]*Record, error)

	// DeleteRun deletes all records of a run.
	DeleteRun(ctx context.Context, runID string) error

	// Close closes the store and releases resources.
	Close() error
}

// Sink persists pipeline output vectors under the run's ID and passes
// the vectors through unchanged, so it can sit anywhere after the stage
// that produces them.
type Sink struct {
	store EmbeddingStore
}

// NewSink creates a Sink writing to s.
func NewSink(s EmbeddingStore) *Sink {
	return &Sink{store: s}
}

// Name implements pipeline.Transform.
func (s *Sink) Name() string { return "store" }

// Apply implements pipeline.Transform. Input must be a
// map[string][]float64 of key -> vector; records are written in sorted
// key order and the input map is returned unchanged.
func (s *Sink) Apply(ctx context.Context, input interface{}, pc *pipeline.Context) (interface{}, error) {
	vectors, ok := input.(map[string][]float64)
	if !ok {
		return nil, fmt.Errorf("%w: expected map[string][]float64, got %T", pipeline.ErrInvalidInput, input)
	}

	keys := make([]string, 0, len(vectors))
	for k := range vectors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now()
	records := make([]*Record, 0, len(keys))
	for _, k := range keys {
		records = append(records, &Record{
			RunID:     pc.RunID,
			Key:       k,
			Vector:    vectors[k],
			CreatedAt: now,
		})
	}

	if err := s.store.PutBatch(ctx, records); err != nil {
		return nil, pipeline.NewPipelineError("Sink",
			fmt.Errorf("%w: %v", pipeline.ErrStorageOperation, err))
	}
	return vectors, nil
}
