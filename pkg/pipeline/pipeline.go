package pipeline

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Pipeline is an ordered chain of transforms.
//
// Each stage's output feeds the next stage's input; the typed Context is
// threaded through every stage of a run. Pipelines hold no per-run state,
// so a single Pipeline may be run concurrently from multiple goroutines:
// every Run gets its own Context and its own intermediate values.
//
// Example:
//
//	p, _ := pipeline.New(
//	    serialize.New(3),
//	    vocab.NewBuilder(10000),
//	)
//	encoded, pc, err := p.Run(ctx, interactions)
type Pipeline struct {
	// stages are executed in order.
	stages []Transform

	// node generates unique run IDs.
	node *snowflake.Node
}

// New creates a pipeline from the given stages.
//
// Returns an error if no stages are given or if the run ID generator
// cannot be initialized.
func New(stages ...Transform) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, NewPipelineError("New", ErrInvalidArgument)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewPipelineError("New", err)
	}

	return &Pipeline{
		stages: stages,
		node:   node,
	}, nil
}

// Run executes the pipeline on input.
//
// The method:
//  1. Creates a fresh Context with a unique RunID
//  2. Applies each stage in order, feeding outputs forward
//  3. Records a trace entry per stage
//
// The first stage failure aborts the run; the returned error is wrapped
// with the failing stage's name and unwraps to the underlying cause.
//
// Returns the final stage's output and the accumulated Context.
func (p *Pipeline) Run(ctx context.Context, input interface{}) (interface{}, *Context, error) {
	pc := &Context{
		RunID:     p.node.Generate().String(),
		StartedAt: time.Now(),
	}

	current := input
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, pc, NewPipelineError(stage.Name(), err)
		}

		begin := time.Now()
		out, err := stage.Apply(ctx, current, pc)
		if err != nil {
			return nil, pc, NewPipelineError(stage.Name(), err)
		}
		pc.Trace = append(pc.Trace, StageTrace{
			Stage:    stage.Name(),
			Duration: time.Since(begin),
		})
		current = out
	}

	return current, pc, nil
}

// Stages returns the names of the pipeline's stages, in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
