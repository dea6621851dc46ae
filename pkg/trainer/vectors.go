package trainer

import (
	"context"
	"fmt"

	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/vocab"
)

// defaultBatchSize is how many tokens are embedded per trainer request.
const defaultBatchSize = 64

// VectorsOption configures a Vectors transform.
type VectorsOption func(*Vectors)

// WithBatchSize sets the number of tokens embedded per batch request.
func WithBatchSize(n int) VectorsOption {
	return func(v *Vectors) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// Vectors turns a built vocabulary into per-token embedding vectors.
//
// The transform embeds the retained vocabulary tokens (indices 1 and up;
// the out-of-vocabulary marker carries no text worth embedding) in index
// order, batching requests to the trainer.
type Vectors struct {
	trainer   Trainer
	batchSize int
}

// NewVectors creates a Vectors transform backed by t.
func NewVectors(t Trainer, opts ...VectorsOption) *Vectors {
	v := &Vectors{
		trainer:   t,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Train embeds every retained token of enc and returns token -> vector.
func (v *Vectors) Train(ctx context.Context, enc *vocab.Encoding) (map[string][]float64, error) {
	tokens := make([]string, 0, len(enc.Inverse))
	for idx := 1; idx < len(enc.Inverse); idx++ {
		tokens = append(tokens, enc.Inverse[idx])
	}

	vectors := make(map[string][]float64, len(tokens))
	for start := 0; start < len(tokens); start += v.batchSize {
		end := start + v.batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		embedded, err := v.trainer.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, pipeline.NewPipelineError("Train",
				fmt.Errorf("%w: %v", pipeline.ErrTrainingFailed, err))
		}
		for i, tok := range batch {
			vectors[tok] = embedded[i]
		}
	}

	return vectors, nil
}

// Name implements pipeline.Transform.
func (v *Vectors) Name() string { return "vectors" }

// Apply implements pipeline.Transform. Input must be a *vocab.Encoding;
// output is a map of token -> embedding vector.
func (v *Vectors) Apply(ctx context.Context, input interface{}, pc *pipeline.Context) (interface{}, error) {
	enc, ok := input.(*vocab.Encoding)
	if !ok {
		return nil, fmt.Errorf("%w: expected *vocab.Encoding, got %T", pipeline.ErrInvalidInput, input)
	}
	return v.Train(ctx, enc)
}
