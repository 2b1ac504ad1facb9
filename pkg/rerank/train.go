package rerank

import (
	"context"
	"math"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/semparse/exprun/pkg/dataset"
	"github.com/semparse/exprun/pkg/eval"
)

var ErrEmptyGrid = errors.New("weight grid is empty")

// TrainOptions controls the grid search. The grid per feature is
// 0, Step, 2*Step, ... < Max; the search space is the cartesian product of
// the per-feature grids.
type TrainOptions struct {
	Step    float64
	Max     float64
	Workers int
}

// DefaultTrainOptions mirrors the usual training setup: weights between 0
// and 1 in steps of 0.01, one worker per CPU.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Step: 0.01, Max: 1.01, Workers: runtime.NumCPU()}
}

// TrainResult is the outcome of a grid search.
type TrainResult struct {
	Parameter []float64
	Score     float64
	Evaluated int
}

type segmentBest struct {
	param []float64
	score float64
}

// Train grid-searches the weight vector maximising the evaluator score on
// the given entries. Entries must have been through InitFeatures. The grid
// is cut into segments scored concurrently; on equal score the vector with
// the smaller squared norm wins, so all-zero weights survive unless a
// feature genuinely helps.
//
// Each worker reranks on a private copy of the entry slice, because
// reranking reorders hypothesis lists in place.
func (r *Reranker) Train(ctx context.Context, entries []dataset.Entry, ev eval.Evaluator, opts TrainOptions) (*TrainResult, error) {
	if opts.Step <= 0 || opts.Max <= 0 {
		return nil, ErrEmptyGrid
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	steps := int(math.Ceil(opts.Max / opts.Step))
	if steps <= 0 {
		return nil, ErrEmptyGrid
	}

	grid := make([]float64, steps)
	for i := range grid {
		grid[i] = float64(i) * opts.Step
	}

	total := 1
	for range r.features {
		total *= steps
	}

	// Zero weights are index 0, so the baseline decoder ordering is always
	// part of the search.
	segSize := total/(opts.Workers*4) + 1

	bests := make(chan segmentBest, opts.Workers*4+1)

	wgrp, groupCtx := errgroup.WithContext(ctx)
	wgrp.SetLimit(opts.Workers)

	for start := 0; start < total; start += segSize {
		start := start

		end := start + segSize
		if end > total {
			end = total
		}

		wgrp.Go(func() error {
			local := make([]dataset.Entry, len(entries))
			copy(local, entries)

			for i := range local {
				hyps := make([]*dataset.Hypothesis, len(entries[i].Result.Hypotheses))
				copy(hyps, entries[i].Result.Hypotheses)
				local[i].Result = &dataset.DecodeResult{ExampleID: entries[i].Result.ExampleID, Hypotheses: hyps}
			}

			best := segmentBest{score: math.Inf(-1)}
			param := make([]float64, len(r.features))

			for idx := start; idx < end; idx++ {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}

				r.decodeIndex(idx, steps, grid, param)

				score, err := r.Performance(local, ev, param, true)
				if err != nil {
					return err
				}

				if better(score, param, best.score, best.param) {
					best.score = score
					best.param = append(best.param[:0], param...)
				}
			}

			select {
			case bests <- best:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}

			return nil
		})
	}

	if err := wgrp.Wait(); err != nil {
		return nil, err
	}
	close(bests)

	result := &TrainResult{Score: math.Inf(-1), Evaluated: total}
	for best := range bests {
		if better(best.score, best.param, result.Score, result.Parameter) {
			result.Score = best.score
			result.Parameter = best.param
		}
	}

	if result.Parameter == nil {
		return nil, ErrEmptyGrid
	}

	return result, nil
}

// decodeIndex writes the idx-th grid vector into param, treating idx as a
// base-steps number with one digit per feature.
func (r *Reranker) decodeIndex(idx, steps int, grid, param []float64) {
	for i := range param {
		param[i] = grid[idx%steps]
		idx /= steps
	}
}

// better prefers the higher score and, on a tie, the smaller weight vector.
func better(score float64, param []float64, bestScore float64, bestParam []float64) bool {
	if score > bestScore {
		return true
	}

	return score == bestScore && bestParam != nil && squaredNorm(param) < squaredNorm(bestParam)
}

func squaredNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}

	return sum
}
