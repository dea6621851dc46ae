// Package factorize provides matrix-factorization transforms: a sparse
// interaction-matrix builder, truncated SVD, and sparse nonnegative
// matrix factorization. Each transform adapts a numeric-library
// algorithm to the pipeline's uniform calling convention and records
// its fitted model on the pipeline Context.
package factorize

import (
	"context"
	"fmt"

	"github.com/james-bowman/sparse"

	"github.com/embedlab/hidim-go/pkg/pipeline"
	"github.com/embedlab/hidim-go/pkg/table"
)

// InteractionMatrix is a binary group-by-member incidence matrix together
// with its row and column labels.
type InteractionMatrix struct {
	// M has one row per group and one column per distinct member; entry
	// (i, j) is 1 when group i contains member j.
	M *sparse.CSR

	// Rows holds group keys in table iteration order (row labels).
	Rows []string

	// Cols holds member ids in first-appearance order (column labels).
	Cols []string
}

// Interactions builds sparse interaction matrices from grouped tables.
type Interactions struct{}

// NewInteractions creates an Interactions transform.
func NewInteractions() *Interactions {
	return &Interactions{}
}

// Matrix builds the interaction matrix of t.
//
// Rows follow the table's group iteration order; columns follow the
// first appearance of each member across that same order. Duplicate
// (group, member) rows collapse to a single 1 entry.
//
// Returns ErrInvalidInput if t is nil or empty: downstream
// factorizations need at least one row and column.
func (f *Interactions) Matrix(t *table.GroupedTable) (*InteractionMatrix, error) {
	if t == nil || t.Len() == 0 {
		return nil, pipeline.NewPipelineError("Matrix",
			fmt.Errorf("%w: empty table", pipeline.ErrInvalidInput))
	}

	groups := t.Groups()
	colIndex := make(map[string]int)
	var cols []string
	for _, g := range groups {
		for _, m := range t.Members(g) {
			if _, ok := colIndex[m]; !ok {
				colIndex[m] = len(cols)
				cols = append(cols, m)
			}
		}
	}

	dok := sparse.NewDOK(len(groups), len(cols))
	for i, g := range groups {
		for _, m := range t.Members(g) {
			dok.Set(i, colIndex[m], 1)
		}
	}

	return &InteractionMatrix{
		M:    dok.ToCSR(),
		Rows: groups,
		Cols: cols,
	}, nil
}

// Name implements pipeline.Transform.
func (f *Interactions) Name() string { return "interactions" }

// Apply implements pipeline.Transform. Input must be a
// *table.GroupedTable; output is the *InteractionMatrix.
func (f *Interactions) Apply(ctx context.Context, input interface{}, pc *pipeline.Context) (interface{}, error) {
	t, ok := input.(*table.GroupedTable)
	if !ok {
		return nil, fmt.Errorf("%w: expected *table.GroupedTable, got %T", pipeline.ErrInvalidInput, input)
	}
	return f.Matrix(t)
}
