package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedlab/hidim-go/pkg/pipeline"
)

func TestNewRequiresStages(t *testing.T) {
	_, err := pipeline.New()
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrInvalidArgument))
}

func TestRunThreadsOutputForward(t *testing.T) {
	double := pipeline.NewFunc("double", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) {
		return in.(string) + " " + in.(string), nil
	})
	upper := pipeline.NewFunc("upper", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) {
		return strings.ToUpper(in.(string)), nil
	})

	p, err := pipeline.New(double, upper)
	require.NoError(t, err)

	out, pc, err := p.Run(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "AB AB", out)
	assert.NotEmpty(t, pc.RunID)
	assert.False(t, pc.StartedAt.IsZero())

	require.Len(t, pc.Trace, 2)
	assert.Equal(t, "double", pc.Trace[0].Stage)
	assert.Equal(t, "upper", pc.Trace[1].Stage)
}

func TestRunIDsAreUniquePerRun(t *testing.T) {
	identity := pipeline.NewFunc("identity", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) {
		return in, nil
	})

	p, err := pipeline.New(identity)
	require.NoError(t, err)

	_, pc1, err := p.Run(context.Background(), 1)
	require.NoError(t, err)
	_, pc2, err := p.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.NotEqual(t, pc1.RunID, pc2.RunID)
}

func TestRunStopsAtFailingStage(t *testing.T) {
	boom := errors.New("boom")
	failing := pipeline.NewFunc("failing", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) {
		return nil, boom
	})
	never := pipeline.NewFunc("never", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) {
		t.Fatal("stage after a failure must not run")
		return nil, nil
	})

	p, err := pipeline.New(failing, never)
	require.NoError(t, err)

	_, pc, err := p.Run(context.Background(), "in")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "failing")
	assert.Empty(t, pc.Trace)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	identity := pipeline.NewFunc("identity", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) {
		return in, nil
	})

	p, err := pipeline.New(identity)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = p.Run(ctx, "in")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStages(t *testing.T) {
	a := pipeline.NewFunc("a", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) { return in, nil })
	b := pipeline.NewFunc("b", func(ctx context.Context, in interface{}, pc *pipeline.Context) (interface{}, error) { return in, nil })

	p, err := pipeline.New(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, p.Stages())
}

type fakeModel struct{ alg string }

func (m *fakeModel) Algorithm() string { return m.alg }

func TestContextModelFor(t *testing.T) {
	pc := &pipeline.Context{}
	first := &fakeModel{alg: "snmf"}
	second := &fakeModel{alg: "snmf"}
	pc.AddModel(first)
	pc.AddModel(&fakeModel{alg: "truncated-svd"})
	pc.AddModel(second)

	m, ok := pc.ModelFor("snmf")
	require.True(t, ok)
	assert.Same(t, second, m)

	_, ok = pc.ModelFor("missing")
	assert.False(t, ok)
}

func TestPipelineErrorUnwrap(t *testing.T) {
	err := pipeline.NewPipelineError("vocabulary", pipeline.ErrInvalidArgument)
	assert.Equal(t, "hidim: vocabulary: invalid argument", err.Error())
	assert.True(t, errors.Is(err, pipeline.ErrInvalidArgument))

	assert.Nil(t, pipeline.NewPipelineError("vocabulary", nil))
}
