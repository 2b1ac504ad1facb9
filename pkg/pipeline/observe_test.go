package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semparse/exprun/pkg/pipeline"
	"github.com/semparse/exprun/pkg/pipeline/drawer"
	"github.com/semparse/exprun/pkg/pipeline/measure"
)

func TestPipelineMeasureRanking(t *testing.T) {
	t.Parallel()

	meas := measure.NewDefaultMeasure()

	pipe, err := pipeline.New(context.Background(), measure.PipelineMeasure(meas))
	require.NoError(t, err)

	source := addIntSource(t, pipe, 20)

	slow, err := pipeline.AddStage(pipe, "slow", source, func(ctx context.Context, input int) (int, error) {
		time.Sleep(time.Millisecond)

		return input, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "drain", slow, func(ctx context.Context, input int) error {
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, pipe.Run())

	ranking := measure.Ranking(meas)
	require.NotEmpty(t, ranking)
	assert.Equal(t, "slow", ranking[0].Name, "the sleeping stage dominates the ranking")
}

func TestPipelineDrawerWritesGraph(t *testing.T) {
	t.Parallel()

	graphPath := filepath.Join(t.TempDir(), "pipeline.svg")
	meas := measure.NewDefaultMeasure()

	pipe, err := pipeline.New(context.Background(),
		measure.PipelineMeasure(meas),
		drawer.PipelineDrawer(drawer.NewSVGDrawer(graphPath), meas),
	)
	require.NoError(t, err)

	source := addIntSource(t, pipe, 5)

	doubled, err := pipeline.AddStage(pipe, "double", source, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "drain", doubled, func(ctx context.Context, input int) error {
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, pipe.Run())

	raw, err := os.ReadFile(graphPath)
	require.NoError(t, err)

	content := string(raw)
	assert.Contains(t, content, "digraph")
	assert.Contains(t, content, `"numbers"`)
	assert.Contains(t, content, `"double"`)
	assert.Contains(t, content, `"drain"`)
}
