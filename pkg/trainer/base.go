// Package trainer provides interfaces for embedding trainers.
//
// It defines the Trainer interface that all embedding implementations
// must satisfy. The pipeline treats the trainer as an external
// collaborator: the vocabulary stages prepare token streams, the trainer
// turns retained tokens into vectors.
package trainer

import "context"

// Trainer defines the interface for embedding trainers.
type Trainer interface {
	// Embed converts a text string into a vector embedding.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - text: The input text to embed
	//
	// Returns the embedding vector and any error.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts multiple text strings into vector embeddings.
	//
	// This method is more efficient than calling Embed multiple times,
	// as it can batch process requests.
	//
	// Returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the dimension of vectors produced by this trainer.
	Dimensions() int

	// Close closes the trainer and releases resources.
	Close() error
}
