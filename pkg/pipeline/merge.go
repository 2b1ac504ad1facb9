package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/semparse/exprun/pkg/pipeline/model"
)

func runStepMerge[I any](ctx context.Context, p *Pipeline, errC chan error, step, outputStep *model.Step[I]) {
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			errC <- ctx.Err()

			return
		case entry, ok := <-step.Output:
			if !ok {
				return
			}

			select {
			case <-ctx.Done():
				errC <- ctx.Err()

				return
			case outputStep.Output <- entry:
				err := p.onStepOutput(step.Info, outputStep.Info, time.Since(start), 0)
				if err != nil {
					errC <- errors.Wrap(err, "unable to process merge output")
				}
			}
		}
	}
}

// AddMerge merges the output of several steps into a single channel. The
// relay goroutines start when the pipeline runs.
func AddMerge[I any](p *Pipeline, name string, steps ...*model.Step[I]) (*model.Step[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if len(steps) == 0 {
		return nil, ErrInputMustBeSet
	}

	outputStep := &model.Step[I]{
		Info: &model.StepInfo{
			Kind:    model.MergeStepKind,
			Name:    name,
			Workers: 1,
		},
		Output: make(chan I),
	}

	parents := make([]*model.StepInfo, len(steps))
	for i, step := range steps {
		parents[i] = step.Info
	}
	err := p.prepareStep(parents, outputStep.Info)
	if err != nil {
		return nil, errors.Wrap(err, "unable to prepare merge")
	}

	errC := make(chan error, len(steps))
	decoratedError := newErrorChan(name, errC)
	wgrp := sync.WaitGroup{}
	wgrp.Add(len(steps))

	go func() {
		wgrp.Wait()
		close(errC)
		close(outputStep.Output)
	}()

	for _, step := range steps {
		localStep := step
		p.deferred = append(p.deferred, func(ctx context.Context) {
			defer wgrp.Done()
			runStepMerge(ctx, p, errC, localStep, outputStep)
		})
	}

	p.errcList.add(decoratedError)

	return outputStep, nil
}
