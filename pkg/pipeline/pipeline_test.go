package pipeline_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semparse/exprun/pkg/pipeline"
)

func TestAddSourceNilPipe(t *testing.T) {
	t.Parallel()

	_, err := pipeline.AddSource(nil, "numbers", func(ctx context.Context, out chan<- int) error {
		return nil
	})
	assert.Error(t, err)
}

func TestAddStageNilPipe(t *testing.T) {
	t.Parallel()

	_, err := pipeline.AddStage(nil, "double", nil, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})
	assert.Error(t, err)
}

func TestAddStageNilInput(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	_, err = pipeline.AddStage(pipe, "double", nil, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})
	require.Error(t, err)
}

func TestSourceStageSink(t *testing.T) {
	t.Parallel()

	var got []int

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	source := addIntSource(t, pipe, 10)

	doubled, err := pipeline.AddStage(pipe, "double", source, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "collect", doubled, func(ctx context.Context, input int) error {
		got = append(got, input)

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, got)
}

func TestStageError(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	source := addIntSource(t, pipe, 10)

	failing, err := pipeline.AddStage(pipe, "failing", source, func(ctx context.Context, input int) (int, error) {
		if input == 5 {
			return 0, assert.AnError
		}

		return input, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "discard", failing, func(ctx context.Context, input int) error {
		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestStageWorkers(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		got []int
	)

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	source := addIntSource(t, pipe, 100)

	doubled, err := pipeline.AddStage(pipe, "double", source, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	}, pipeline.Workers[int](4))
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "collect", doubled, func(ctx context.Context, input int) error {
		mu.Lock()
		got = append(got, input)
		mu.Unlock()

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.NoError(t, err)

	want := make([]int, 100)
	for i := range want {
		want[i] = i * 2
	}

	assert.ElementsMatch(t, want, got)
}

func TestAddExpand(t *testing.T) {
	t.Parallel()

	var got []string

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	source := addIntSource(t, pipe, 3)

	repeated, err := pipeline.AddExpand(pipe, "repeat", source, func(ctx context.Context, input int) ([]string, error) {
		s := strconv.Itoa(input)

		return []string{s, s}, nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "collect", repeated, func(ctx context.Context, input string) error {
		got = append(got, input)

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"0", "0", "1", "1", "2", "2"}, got)
}

func TestAddFanOut(t *testing.T) {
	t.Parallel()

	var first, second []int

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	source := addIntSource(t, pipe, 10)

	branches, err := pipeline.AddFanOut(pipe, "split", source, 2)
	require.NoError(t, err)
	require.Len(t, branches, 2)

	err = pipeline.AddSink(pipe, "first", branches[0], func(ctx context.Context, input int) error {
		first = append(first, input)

		return nil
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "second", branches[1], func(ctx context.Context, input int) error {
		second = append(second, input)

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.NoError(t, err)
	assert.ElementsMatch(t, sequence(10), first)
	assert.ElementsMatch(t, sequence(10), second)
}

func TestAddFanOutTotal(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	source := addIntSource(t, pipe, 1)

	_, err = pipeline.AddFanOut(pipe, "split", source, 0)
	assert.Error(t, err)
}

func TestAddMerge(t *testing.T) {
	t.Parallel()

	var got []int

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	evens, err := pipeline.AddSource(pipe, "evens", func(ctx context.Context, out chan<- int) error {
		for i := 0; i < 10; i += 2 {
			out <- i
		}

		return nil
	})
	require.NoError(t, err)

	odds, err := pipeline.AddSource(pipe, "odds", func(ctx context.Context, out chan<- int) error {
		for i := 1; i < 10; i += 2 {
			out <- i
		}

		return nil
	})
	require.NoError(t, err)

	merged, err := pipeline.AddMerge(pipe, "merge", evens, odds)
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "collect", merged, func(ctx context.Context, input int) error {
		got = append(got, input)

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.NoError(t, err)
	assert.ElementsMatch(t, sequence(10), got)
}

func TestAddSinkFromChan(t *testing.T) {
	t.Parallel()

	var total int

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)

	source := addIntSource(t, pipe, 10)

	err = pipeline.AddSinkFromChan(pipe, "sum", source, func(ctx context.Context, input <-chan int) error {
		for v := range input {
			total += v
		}

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.NoError(t, err)
	assert.Equal(t, 45, total)
}

func TestSourceCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)

	source, err := pipeline.AddSource(pipe, "numbers", func(ctx context.Context, out chan<- int) error {
		for i := 0; ; i++ {
			select {
			case out <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "collect", source, func(ctx context.Context, input int) error {
		if input == 5 {
			cancel()
		}

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
