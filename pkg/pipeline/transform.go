package pipeline

import (
	"context"
	"time"
)

// Transform is the uniform calling convention shared by every pipeline
// stage: it takes an input value and the pipeline Context, and returns
// the transformed value.
//
// Stages are chained by convention: each stage's output type is the next
// stage's input type. A stage that receives a value of a type it does not
// understand fails with ErrInvalidInput rather than guessing.
//
// Transforms must be pure with respect to the Context of other runs: a
// single Transform value may be reused across pipelines and invoked
// concurrently, so implementations hold no per-run mutable state outside
// the Context they are handed.
type Transform interface {
	// Name returns a short stable identifier for the stage, used in
	// error wrapping and trace entries.
	Name() string

	// Apply transforms input into the stage's output. Side-channel
	// artifacts (fitted models) are recorded on pc rather than smuggled
	// through the return value.
	Apply(ctx context.Context, input interface{}, pc *Context) (interface{}, error)
}

// Model is a fitted artifact produced by a factorization stage and
// carried on the Context for downstream inspection.
type Model interface {
	// Algorithm returns the identifier of the algorithm that produced
	// the model (e.g. "truncated-svd", "snmf").
	Algorithm() string
}

// Context is the typed side channel threaded through a pipeline run.
//
// It replaces an open-ended metadata bag with explicit fields: every
// artifact a stage wants to expose beyond its return value has a typed
// home here. A fresh Context is created for each run and is owned by
// that run alone.
type Context struct {
	// RunID uniquely identifies the pipeline run.
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Trace records one entry per completed stage, in execution order.
	Trace []StageTrace

	// Models holds fitted factorization models, in the order their
	// stages executed.
	Models []Model
}

// StageTrace records the execution of a single stage.
type StageTrace struct {
	// Stage is the stage's Name().
	Stage string

	// Duration is how long the stage's Apply call took.
	Duration time.Duration
}

// AddModel appends a fitted model to the context.
func (pc *Context) AddModel(m Model) {
	pc.Models = append(pc.Models, m)
}

// ModelFor returns the most recently recorded model for the given
// algorithm identifier, or false if no stage produced one.
func (pc *Context) ModelFor(algorithm string) (Model, bool) {
	for i := len(pc.Models) - 1; i >= 0; i-- {
		if pc.Models[i].Algorithm() == algorithm {
			return pc.Models[i], true
		}
	}
	return nil, false
}

// Func adapts a plain function to the Transform interface.
//
// Example:
//
//	upper := pipeline.NewFunc("upper", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) {
//	    return strings.ToUpper(in.(string)), nil
//	})
type Func struct {
	name string
	fn   func(ctx context.Context, input interface{}, pc *Context) (interface{}, error)
}

// NewFunc creates a Transform from a function.
func NewFunc(name string, fn func(ctx context.Context, input interface{}, pc *Context) (interface{}, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the name given at construction.
func (f *Func) Name() string { return f.name }

// Apply invokes the wrapped function.
func (f *Func) Apply(ctx context.Context, input interface{}, pc *Context) (interface{}, error) {
	return f.fn(ctx, input, pc)
}
