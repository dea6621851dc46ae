package factorize

import (
	"context"
	"fmt"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"

	"github.com/embedlab/hidim-go/pkg/pipeline"
)

// SVD reduces an interaction matrix to its top singular components.
//
// It wraps the nlp package's TruncatedSVD; all real numeric work happens
// in that library, this transform only adapts orientation and the
// calling convention. Samples (groups) are rows of the input and rows of
// the output, matching the interaction-matrix layout; the underlying
// reducer works on column-wise observations, so the input is transposed
// around the library call.
type SVD struct {
	// Components is the requested number of singular components. The
	// effective number is capped at the smaller input dimension.
	Components int
}

// SVDModel is the fitted truncated-SVD reducer, recorded on the pipeline
// Context by the SVD transform.
type SVDModel struct {
	// Reducer is the fitted nlp reducer; its Transform method projects
	// new observations into the learned space.
	Reducer *nlp.TruncatedSVD

	// Components is the effective number of retained components.
	Components int
}

// Algorithm implements pipeline.Model.
func (m *SVDModel) Algorithm() string { return "truncated-svd" }

// NewSVD creates an SVD transform retaining k components.
func NewSVD(k int) *SVD {
	return &SVD{Components: k}
}

// FitTransform factorizes m and returns the reduced representation, one
// row per input row and one column per retained component, along with
// the fitted model.
//
// Returns ErrInvalidArgument if Components < 1 and
// ErrFactorizationFailed if the decomposition cannot be computed.
func (s *SVD) FitTransform(m mat.Matrix) (*mat.Dense, *SVDModel, error) {
	if s.Components < 1 {
		return nil, nil, pipeline.NewPipelineError("FitTransform",
			fmt.Errorf("%w: components must be >= 1, got %d", pipeline.ErrInvalidArgument, s.Components))
	}

	r, c := m.Dims()
	k := s.Components
	if k > r {
		k = r
	}
	if k > c {
		k = c
	}

	reducer := nlp.NewTruncatedSVD(k)
	// The reducer treats columns as observations; our samples are rows.
	reduced, err := reducer.FitTransform(m.T())
	if err != nil {
		return nil, nil, pipeline.NewPipelineError("FitTransform",
			fmt.Errorf("%w: %v", pipeline.ErrFactorizationFailed, err))
	}

	out := mat.DenseCopyOf(reduced.T())
	model := &SVDModel{
		Reducer:    reducer,
		Components: k,
	}
	return out, model, nil
}

// Name implements pipeline.Transform.
func (s *SVD) Name() string { return "svd" }

// Apply implements pipeline.Transform. Input may be an
// *InteractionMatrix or any mat.Matrix; output is the reduced *mat.Dense.
// The fitted model is appended to pc.Models.
func (s *SVD) Apply(ctx context.Context, input interface{}, pc *pipeline.Context) (interface{}, error) {
	m, err := matrixInput(input)
	if err != nil {
		return nil, err
	}
	out, model, err := s.FitTransform(m)
	if err != nil {
		return nil, err
	}
	if pc != nil {
		pc.AddModel(model)
	}
	return out, nil
}

// matrixInput extracts a mat.Matrix from a stage input value.
func matrixInput(input interface{}) (mat.Matrix, error) {
	switch v := input.(type) {
	case *InteractionMatrix:
		return v.M, nil
	case mat.Matrix:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: expected *InteractionMatrix or mat.Matrix, got %T", pipeline.ErrInvalidInput, input)
	}
}
