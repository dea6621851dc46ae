package factorize

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/embedlab/hidim-go/pkg/pipeline"
)

const (
	// defaultMaxIter bounds the multiplicative update loop.
	defaultMaxIter = 200

	// defaultTolerance is the relative residual at which updates stop.
	defaultTolerance = 1e-4

	// updateEps keeps denominators strictly positive.
	updateEps = 1e-12
)

// SNMFOption configures an SNMF transform.
type SNMFOption func(*SNMF)

// WithMaxIter sets the maximum number of update iterations.
func WithMaxIter(n int) SNMFOption {
	return func(s *SNMF) {
		s.MaxIter = n
	}
}

// WithTolerance sets the relative residual below which updates stop.
func WithTolerance(tol float64) SNMFOption {
	return func(s *SNMF) {
		s.Tolerance = tol
	}
}

// WithInitSeed sets the seed for the random factor initialization.
// Factorization is deterministic for a given seed and input.
func WithInitSeed(seed int64) SNMFOption {
	return func(s *SNMF) {
		s.seed = seed
	}
}

// SNMF factorizes a nonnegative matrix V (n x m) into nonnegative
// factors W (n x rank) and H (rank x m) by Lee-Seung multiplicative
// updates, minimizing the Frobenius reconstruction error.
//
// The transform's output is the basis matrix W: one row per input row,
// one column per latent factor.
type SNMF struct {
	// Rank is the factorization rank.
	Rank int

	// MaxIter is the maximum number of update iterations.
	MaxIter int

	// Tolerance is the relative residual ||V-WH||_F / ||V||_F at which
	// updates stop early.
	Tolerance float64

	// seed initializes the factor matrices.
	seed int64
}

// SNMFModel is the fitted factorization, recorded on the pipeline
// Context by the SNMF transform.
type SNMFModel struct {
	// Basis is W (n x rank).
	Basis *mat.Dense

	// Coefficients is H (rank x m).
	Coefficients *mat.Dense

	// Iterations is the number of update iterations performed.
	Iterations int

	// Residual is the final relative reconstruction error.
	Residual float64
}

// Algorithm implements pipeline.Model.
func (m *SNMFModel) Algorithm() string { return "snmf" }

// NewSNMF creates an SNMF transform with the given rank.
func NewSNMF(rank int, opts ...SNMFOption) *SNMF {
	s := &SNMF{
		Rank:      rank,
		MaxIter:   defaultMaxIter,
		Tolerance: defaultTolerance,
		seed:      1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Factorize computes the factorization of v.
//
// Returns the basis matrix W and the fitted model. Fails with
// ErrInvalidArgument if the rank is below 1 or exceeds both input
// dimensions, and with ErrInvalidInput if v contains negative entries.
func (s *SNMF) Factorize(v mat.Matrix) (*mat.Dense, *SNMFModel, error) {
	if s.Rank < 1 {
		return nil, nil, pipeline.NewPipelineError("Factorize",
			fmt.Errorf("%w: rank must be >= 1, got %d", pipeline.ErrInvalidArgument, s.Rank))
	}

	n, m := v.Dims()
	if n == 0 || m == 0 {
		return nil, nil, pipeline.NewPipelineError("Factorize",
			fmt.Errorf("%w: empty matrix", pipeline.ErrInvalidInput))
	}
	if s.Rank > n && s.Rank > m {
		return nil, nil, pipeline.NewPipelineError("Factorize",
			fmt.Errorf("%w: rank %d exceeds both matrix dimensions (%d x %d)", pipeline.ErrInvalidArgument, s.Rank, n, m))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if v.At(i, j) < 0 {
				return nil, nil, pipeline.NewPipelineError("Factorize",
					fmt.Errorf("%w: negative entry at (%d, %d)", pipeline.ErrInvalidInput, i, j))
			}
		}
	}

	rng := rand.New(rand.NewSource(s.seed))
	w := randomFactor(rng, n, s.Rank)
	h := randomFactor(rng, s.Rank, m)

	normV := mat.Norm(mat.DenseCopyOf(v), 2)
	residual := 1.0
	iterations := 0

	var (
		wtv, wtw, wtwh mat.Dense
		vht, hht, whht mat.Dense
		wh, diff       mat.Dense
	)
	for iter := 0; iter < s.MaxIter; iter++ {
		iterations = iter + 1

		// H <- H .* (W^T V) ./ (W^T W H + eps)
		wtv.Mul(w.T(), v)
		wtw.Mul(w.T(), w)
		wtwh.Mul(&wtw, h)
		wtwh.Apply(addEps, &wtwh)
		h.MulElem(h, &wtv)
		h.DivElem(h, &wtwh)

		// W <- W .* (V H^T) ./ (W H H^T + eps)
		vht.Mul(v, h.T())
		hht.Mul(h, h.T())
		whht.Mul(w, &hht)
		whht.Apply(addEps, &whht)
		w.MulElem(w, &vht)
		w.DivElem(w, &whht)

		wh.Mul(w, h)
		diff.Sub(mat.DenseCopyOf(v), &wh)
		residual = mat.Norm(&diff, 2)
		if normV > 0 {
			residual /= normV
		}
		if residual < s.Tolerance {
			break
		}
	}

	model := &SNMFModel{
		Basis:        w,
		Coefficients: h,
		Iterations:   iterations,
		Residual:     residual,
	}
	return w, model, nil
}

// Name implements pipeline.Transform.
func (s *SNMF) Name() string { return "snmf" }

// Apply implements pipeline.Transform. Input may be an
// *InteractionMatrix or any nonnegative mat.Matrix; output is the basis
// *mat.Dense. The fitted model is appended to pc.Models.
func (s *SNMF) Apply(ctx context.Context, input interface{}, pc *pipeline.Context) (interface{}, error) {
	m, err := matrixInput(input)
	if err != nil {
		return nil, err
	}
	basis, model, err := s.Factorize(m)
	if err != nil {
		return nil, err
	}
	if pc != nil {
		pc.AddModel(model)
	}
	return basis, nil
}

// randomFactor returns an r x c matrix of uniform entries in (0, 1].
func randomFactor(rng *rand.Rand, r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = 1 - rng.Float64()
	}
	return mat.NewDense(r, c, data)
}

// addEps shifts a denominator entry away from zero.
func addEps(_, _ int, v float64) float64 { return v + updateEps }
