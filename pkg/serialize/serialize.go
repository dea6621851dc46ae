// Package serialize implements the grouped shuffle serializer: it turns a
// GroupedTable into a single whitespace-joined token stream suitable for
// feeding an embedding trainer.
//
// For each group the canonical member list is emitted once, followed by
// NShuffles-1 additional copies, each an independent uniform permutation.
// Repeating the groups under different permutations varies the
// co-occurrence windows seen by downstream training.
package serialize

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/table"
)

// Option configures a Serializer.
type Option func(*Serializer)

// WithSeed fixes the serializer's random source, making output
// reproducible. The default is an unseeded process-level source.
//
// Example:
//
//	s := serialize.New(5, serialize.WithSeed(42))
func WithSeed(seed int64) Option {
	return func(s *Serializer) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand supplies an explicit random source. The serializer guards it
// with a mutex, so a source shared across serializers must still not be
// used elsewhere concurrently.
func WithRand(r *rand.Rand) Option {
	return func(s *Serializer) {
		s.rng = r
	}
}

// Serializer emits repeated-shuffle serializations of grouped tables.
//
// A Serializer holds no per-call state beyond its random source and is
// safe for concurrent use: the unseeded default delegates to math/rand's
// locked global source, and an injected source is mutex-guarded.
type Serializer struct {
	// nShuffles is the total number of copies per group (canonical + shuffled).
	nShuffles int

	// rng is the injected random source; nil means the global source.
	rng *rand.Rand

	// mu guards rng.
	mu sync.Mutex
}

// New creates a Serializer emitting nShuffles copies per group.
//
// nShuffles of 1 means the canonical order only, with no shuffled
// repeats. Validation happens at Serialize time so a misconfigured
// value surfaces as ErrInvalidArgument rather than a panic.
func New(nShuffles int, opts ...Option) *Serializer {
	s := &Serializer{nShuffles: nShuffles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serialize produces the space-joined serialization of t.
//
// Groups appear in the table's iteration order; within each group the
// canonical copy comes first, followed by nShuffles-1 independently
// shuffled copies. An empty table yields an empty string.
//
// Returns ErrInvalidArgument if nShuffles < 1 and ErrInvalidInput if t
// is nil. The input table is not mutated.
func (s *Serializer) Serialize(t *table.GroupedTable) (string, error) {
	if s.nShuffles < 1 {
		return "", pipeline.NewPipelineError("Serialize",
			fmt.Errorf("%w: n_shuffles must be >= 1, got %d", pipeline.ErrInvalidArgument, s.nShuffles))
	}
	if t == nil {
		return "", pipeline.NewPipelineError("Serialize",
			fmt.Errorf("%w: nil table", pipeline.ErrInvalidInput))
	}

	blocks := make([]string, 0, t.GroupCount())
	for _, group := range t.Groups() {
		members := t.Members(group)

		copies := make([]string, 0, s.nShuffles)
		copies = append(copies, strings.Join(members, " "))
		for i := 1; i < s.nShuffles; i++ {
			perm := make([]string, len(members))
			copy(perm, members)
			s.shuffle(len(perm), func(a, b int) {
				perm[a], perm[b] = perm[b], perm[a]
			})
			copies = append(copies, strings.Join(perm, " "))
		}
		blocks = append(blocks, strings.Join(copies, " "))
	}

	return strings.Join(blocks, " "), nil
}

// shuffle permutes n elements via swap using the configured source.
func (s *Serializer) shuffle(n int, swap func(i, j int)) {
	if s.rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	s.mu.Lock()
	s.rng.Shuffle(n, swap)
	s.mu.Unlock()
}

// Name implements pipeline.Transform.
func (s *Serializer) Name() string { return "serialize" }

// Apply implements pipeline.Transform. Input must be a *table.GroupedTable;
// output is the serialized string.
func (s *Serializer) Apply(ctx context.Context, input interface{}, pc *pipeline.Context) (interface{}, error) {
	t, ok := input.(*table.GroupedTable)
	if !ok {
		return nil, fmt.Errorf("%w: expected *table.GroupedTable, got %T", pipeline.ErrInvalidInput, input)
	}
	return s.Serialize(t)
}
