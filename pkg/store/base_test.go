package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/store"
)

// memStore is an in-memory EmbeddingStore for tests.
type memStore struct {
	records []*store.Record
	fail    bool
}

func (m *memStore) Put(ctx context.Context, record *store.Record) error {
	return m.PutBatch(ctx, []*store.Record{record})
}

func (m *memStore) PutBatch(ctx context.Context, records []*store.Record) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memStore) Get(ctx context.Context, runID, key string) (*store.Record, error) {
	for _, r := range m.records {
		if r.RunID == runID && r.Key == key {
			return r, nil
		}
	}
	return nil, pipeline.ErrNotFound
}

func (m *memStore) List(ctx context.Context, runID string) ([]*store.Record, error) {
	var out []*store.Record
	for _, r := range m.records {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) DeleteRun(ctx context.Context, runID string) error { return nil }
func (m *memStore) Close() error                                      { return nil }

func TestSinkPersistsVectorsUnderRunID(t *testing.T) {
	ms := &memStore{}
	sink := store.NewSink(ms)
	pc := &pipeline.Context{RunID: "run-1"}

	vectors := map[string][]float64{
		"b": {2, 2},
		"a": {1, 1},
	}

	out, err := sink.Apply(context.Background(), vectors, pc)
	require.NoError(t, err)
	assert.Equal(t, vectors, out, "sink passes its input through")

	require.Len(t, ms.records, 2)
	// Records are written in sorted key order.
	assert.Equal(t, "a", ms.records[0].Key)
	assert.Equal(t, "b", ms.records[1].Key)
	for _, r := range ms.records {
		assert.Equal(t, "run-1", r.RunID)
		assert.False(t, r.CreatedAt.IsZero())
	}
}

func TestSinkWrapsStoreFailure(t *testing.T) {
	sink := store.NewSink(&memStore{fail: true})
	pc := &pipeline.Context{RunID: "run-1"}

	_, err := sink.Apply(context.Background(), map[string][]float64{"a": {1}}, pc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrStorageOperation))
}

func TestSinkRejectsBadInput(t *testing.T) {
	sink := store.NewSink(&memStore{})

	_, err := sink.Apply(context.Background(), []float64{1, 2}, &pipeline.Context{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidInput))
}
