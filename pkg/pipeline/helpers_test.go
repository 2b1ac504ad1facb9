package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semparse/exprun/pkg/pipeline"
	"github.com/semparse/exprun/pkg/pipeline/model"
)

func addIntSource(t *testing.T, pipe *pipeline.Pipeline, total int) *model.Step[int] {
	t.Helper()

	step, err := pipeline.AddSource(pipe, "numbers", func(ctx context.Context, out chan<- int) error {
		for i := 0; i < total; i++ {
			select {
			case out <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})
	require.NoError(t, err)

	return step
}

func sequence(total int) []int {
	seq := make([]int, total)
	for i := range seq {
		seq[i] = i
	}

	return seq
}
