package factorize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/embedlab/hidim-go/pkg/factorize"
	"github.com/embedlab/hidim-go/pkg/pipeline"
)

func svdFixture() *mat.Dense {
	return mat.NewDense(5, 4, []float64{
		1, 0, 1, 0,
		0, 1, 1, 0,
		1, 1, 0, 1,
		0, 0, 1, 1,
		1, 0, 0, 1,
	})
}

func TestSVDFitTransformShape(t *testing.T) {
	out, model, err := factorize.NewSVD(2).FitTransform(svdFixture())
	require.NoError(t, err)

	r, c := out.Dims()
	assert.Equal(t, 5, r, "one row per sample")
	assert.Equal(t, 2, c, "one column per component")

	require.NotNil(t, model)
	assert.Equal(t, 2, model.Components)
	assert.Equal(t, "truncated-svd", model.Algorithm())
	assert.NotNil(t, model.Reducer)
}

func TestSVDCapsComponentsAtMatrixRankDims(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})

	out, model, err := factorize.NewSVD(10).FitTransform(m)
	require.NoError(t, err)

	_, c := out.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, model.Components)
}

func TestSVDRejectsBadComponents(t *testing.T) {
	_, _, err := factorize.NewSVD(0).FitTransform(svdFixture())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidArgument))
}

func TestSVDApplyRecordsModel(t *testing.T) {
	s := factorize.NewSVD(2)
	pc := &pipeline.Context{}

	im, err := factorize.NewInteractions().Matrix(interactionsFixture(t))
	require.NoError(t, err)

	out, err := s.Apply(context.Background(), im, pc)
	require.NoError(t, err)

	reduced, ok := out.(*mat.Dense)
	require.True(t, ok)
	r, c := reduced.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)

	model, found := pc.ModelFor("truncated-svd")
	require.True(t, found)
	assert.IsType(t, &factorize.SVDModel{}, model)
}

func TestSVDApplyRejectsBadInput(t *testing.T) {
	_, err := factorize.NewSVD(2).Apply(context.Background(), "nope", &pipeline.Context{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidInput))
}
