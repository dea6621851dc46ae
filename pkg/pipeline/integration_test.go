package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/embedlab/hidim-go/pkg/factorize"
	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/serialize"
	"github.com/embedlab/hidim-go/pkg/table"
	"github.com/embedlab/hidim-go/pkg/vocab"
)

func interactionTable(t *testing.T) *table.GroupedTable {
	t.Helper()
	tab, err := table.FromPairs([]table.Pair{
		{Group: "u1", Member: "i1"},
		{Group: "u1", Member: "i2"},
		{Group: "u1", Member: "i3"},
		{Group: "u2", Member: "i2"},
		{Group: "u2", Member: "i4"},
		{Group: "u3", Member: "i1"},
		{Group: "u3", Member: "i4"},
	})
	require.NoError(t, err)
	return tab
}

func TestSerializeVocabularyChain(t *testing.T) {
	p, err := pipeline.New(
		serialize.New(3, serialize.WithSeed(11)),
		vocab.NewBuilder(4),
	)
	require.NoError(t, err)

	out, pc, err := p.Run(context.Background(), interactionTable(t))
	require.NoError(t, err)

	enc, ok := out.(*vocab.Encoding)
	require.True(t, ok)

	// 7 rows, each emitted 3 times.
	assert.Len(t, enc.Stream, 21)

	total := 0
	for _, tc := range enc.Frequencies {
		total += tc.Count
	}
	assert.Equal(t, 21, total)

	assert.Equal(t, []string{"serialize", "vocabulary"}, p.Stages())
	require.Len(t, pc.Trace, 2)
	assert.NotEmpty(t, pc.RunID)
}

func TestFactorizationChain(t *testing.T) {
	p, err := pipeline.New(
		factorize.NewInteractions(),
		factorize.NewSVD(2),
	)
	require.NoError(t, err)

	out, pc, err := p.Run(context.Background(), interactionTable(t))
	require.NoError(t, err)

	reduced, ok := out.(*mat.Dense)
	require.True(t, ok)
	r, c := reduced.Dims()
	assert.Equal(t, 3, r, "one row per group")
	assert.Equal(t, 2, c)

	_, found := pc.ModelFor("truncated-svd")
	assert.True(t, found, "fitted model recorded on the context")
}
