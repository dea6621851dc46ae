// Package vocab implements the frequency-ranked vocabulary builder: it
// tokenizes a word stream into dense integer indices with a reserved
// out-of-vocabulary bucket at index 0.
package vocab

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/embedlab/hidim-go/pkg/pipeline"
)

// OOVToken is the reserved marker for tokens excluded from the retained
// vocabulary. It is always assigned index 0.
const OOVToken = "UNK"

// TokenCount is one entry of the frequency table.
type TokenCount struct {
	// Token is the token text.
	Token string

	// Count is the token's occurrence count. For the OOV marker this is
	// the number of stream positions that fell outside the vocabulary.
	Count int
}

// Encoding is the complete result of a vocabulary build.
//
// All fields are created fresh per Build call and are immutable
// afterward; the Encoding is owned entirely by the caller.
type Encoding struct {
	// Stream is the integer-encoded input, same length and order as the
	// input token stream. Out-of-vocabulary tokens encode to 0.
	Stream []int

	// Frequencies is ordered by descending count with ties broken by
	// first-encounter order. Entry 0 is always the OOV marker, whose
	// count is back-filled after encoding.
	Frequencies []TokenCount

	// Index maps token -> dense index. Index[OOVToken] == 0.
	Index map[string]int

	// Inverse maps dense index -> token; the exact inverse of Index.
	Inverse map[int]string
}

// Builder builds vocabularies capped at a configured size.
//
// A Builder holds no state across calls; the same Builder may be used
// concurrently from multiple goroutines.
type Builder struct {
	// Size is the maximum number of retained entries, including the OOV
	// marker at index 0.
	Size int
}

// NewBuilder creates a Builder with the given vocabulary size.
func NewBuilder(size int) *Builder {
	return &Builder{Size: size}
}

// Build encodes a token stream.
//
// The algorithm:
//  1. Count occurrences of every distinct token.
//  2. Rank by descending count, stable tie-break by first occurrence.
//  3. Retain the top Size-1 tokens behind the OOV marker.
//  4. Assign dense indices in frequency-table order.
//  5. Re-scan the stream, encoding unretained tokens as 0.
//  6. Back-fill the OOV marker's count with the number of 0 emissions.
//
// A Size larger than the number of distinct tokens degrades gracefully
// to a smaller effective vocabulary with an OOV count of 0. An empty
// stream yields an empty Stream and a frequency table holding only the
// OOV marker.
//
// Returns ErrInvalidArgument if Size < 1.
func (b *Builder) Build(tokens []string) (*Encoding, error) {
	if b.Size < 1 {
		return nil, pipeline.NewPipelineError("Build",
			fmt.Errorf("%w: vocabulary size must be >= 1, got %d", pipeline.ErrInvalidArgument, b.Size))
	}

	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, seen := counts[tok]; !seen {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// order starts in first-encounter order; the stable sort preserves
	// that order among equal counts.
	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})

	frequencies := make([]TokenCount, 0, b.Size)
	frequencies = append(frequencies, TokenCount{Token: OOVToken})
	index := make(map[string]int, b.Size)
	inverse := make(map[int]string, b.Size)
	index[OOVToken] = 0
	inverse[0] = OOVToken

	for _, tok := range ranked {
		if len(frequencies) == b.Size {
			break
		}
		// The marker text is reserved; a literal occurrence in the
		// input is never retained as its own entry.
		if tok == OOVToken {
			continue
		}
		idx := len(frequencies)
		frequencies = append(frequencies, TokenCount{Token: tok, Count: counts[tok]})
		index[tok] = idx
		inverse[idx] = tok
	}

	stream := make([]int, len(tokens))
	oov := 0
	for i, tok := range tokens {
		if idx, ok := index[tok]; ok && tok != OOVToken {
			stream[i] = idx
		} else {
			oov++
		}
	}
	frequencies[0].Count = oov

	return &Encoding{
		Stream:      stream,
		Frequencies: frequencies,
		Index:       index,
		Inverse:     inverse,
	}, nil
}

// BuildString splits s on whitespace and encodes the resulting stream.
func (b *Builder) BuildString(s string) (*Encoding, error) {
	return b.Build(strings.Fields(s))
}

// Name implements pipeline.Transform.
func (b *Builder) Name() string { return "vocabulary" }

// Apply implements pipeline.Transform. Input may be a whitespace-joined
// string or a []string token stream; output is the *Encoding.
func (b *Builder) Apply(ctx context.Context, input interface{}, pc *pipeline.Context) (interface{}, error) {
	switch v := input.(type) {
	case string:
		return b.BuildString(v)
	case []string:
		return b.Build(v)
	default:
		return nil, fmt.Errorf("%w: expected string or []string, got %T", pipeline.ErrInvalidInput, input)
	}
}
