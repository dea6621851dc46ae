package factorize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedlab/hidim-go/pkg/factorize"
	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/table"
)

func interactionsFixture(t *testing.T) *table.GroupedTable {
	t.Helper()
	tab, err := table.FromPairs([]table.Pair{
		{Group: "A", Member: 1},
		{Group: "A", Member: 2},
		{Group: "A", Member: 3},
		{Group: "B", Member: 3},
		{Group: "B", Member: 4},
	})
	require.NoError(t, err)
	return tab
}

func TestMatrixShapeAndLabels(t *testing.T) {
	im, err := factorize.NewInteractions().Matrix(interactionsFixture(t))
	require.NoError(t, err)

	r, c := im.M.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, []string{"A", "B"}, im.Rows)
	assert.Equal(t, []string{"1", "2", "3", "4"}, im.Cols)
}

func TestMatrixEntries(t *testing.T) {
	im, err := factorize.NewInteractions().Matrix(interactionsFixture(t))
	require.NoError(t, err)

	// Row A interacts with members 1, 2, 3; row B with 3, 4.
	expected := [][]float64{
		{1, 1, 1, 0},
		{0, 0, 1, 1},
	}
	for i, row := range expected {
		for j, want := range row {
			assert.Equal(t, want, im.M.At(i, j), "entry (%d, %d)", i, j)
		}
	}
}

func TestMatrixRejectsEmptyTable(t *testing.T) {
	_, err := factorize.NewInteractions().Matrix(table.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidInput))

	_, err = factorize.NewInteractions().Matrix(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidInput))
}

func TestInteractionsApply(t *testing.T) {
	f := factorize.NewInteractions()
	pc := &pipeline.Context{}

	out, err := f.Apply(context.Background(), interactionsFixture(t), pc)
	require.NoError(t, err)
	_, ok := out.(*factorize.InteractionMatrix)
	assert.True(t, ok)

	_, err = f.Apply(context.Background(), "nope", pc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidInput))
}
