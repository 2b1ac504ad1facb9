package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/semparse/exprun/pkg/pipeline/model"
)

func sequentialOneToOne[I any, O any](ctx context.Context, p *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], stageFn func(context.Context, I) (O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}
			startFn := time.Now()
			out, err := stageFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}
			endFn := time.Since(startFn)

			// check the context again so every running go routine stops
			// adding elements to the pipeline once it is cancelled
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
			case output.Output <- out:
				err := p.onStepOutput(input.Info, output.Info, time.Since(start)-endFn, endFn)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func concurrentOneToOne[I any, O any](ctx context.Context, p *Pipeline, input *model.Step[I], output *model.Step[O], stageFn func(context.Context, I) (O, error)) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Info.Workers)
	// starts many consumers concurrently
	// each consumer stops as soon as an error happens
	for goIdx := 0; goIdx < output.Info.Workers; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToOne(dCtx, p, localGoIdx, input, output, stageFn)
		})
	}

	return errGrp.Wait()
}

func oneToOne[I any, O any](ctx context.Context, p *Pipeline, input *model.Step[I], output *model.Step[O], stageFn func(context.Context, I) (O, error)) error {
	if output.Info.Workers <= 1 {
		return sequentialOneToOne(ctx, p, 1, input, output, stageFn)
	}

	return concurrentOneToOne(ctx, p, input, output, stageFn)
}

func sequentialOneToMany[I any, O any](ctx context.Context, p *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], expandFn func(context.Context, I) ([]O, error)) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				break outer
			}
			startFn := time.Now()
			outs, err := expandFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d:", goIdx)
			}
			endFn := time.Since(startFn)
			for _, out := range outs {
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d:", goIdx)
				case output.Output <- out:
					err := p.onStepOutput(input.Info, output.Info, time.Since(start)-endFn, endFn)
					if err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

func concurrentOneToMany[I any, O any](ctx context.Context, p *Pipeline, input *model.Step[I], output *model.Step[O], expandFn func(context.Context, I) ([]O, error)) error {
	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Info.Workers)
	for goIdx := 0; goIdx < output.Info.Workers; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToMany(dCtx, p, localGoIdx, input, output, expandFn)
		})
	}

	return errGrp.Wait()
}

func oneToMany[I any, O any](ctx context.Context, p *Pipeline, input *model.Step[I], output *model.Step[O], expandFn func(context.Context, I) ([]O, error)) error {
	if output.Info.Workers <= 1 {
		return sequentialOneToMany(ctx, p, 1, input, output, expandFn)
	}

	return concurrentOneToMany(ctx, p, input, output, expandFn)
}

func prepareStage[I, O any](p *Pipeline, name string, input *model.Step[I], opts ...StepOption[O]) (*model.Step[O], error) {
	step := &model.Step[O]{
		Info: &model.StepInfo{
			Kind:    model.StageStepKind,
			Name:    name,
			Workers: 1,
		},
		Output: make(chan O),
	}
	for _, opt := range opts {
		opt(step)
	}

	err := p.prepareStep([]*model.StepInfo{input.Info}, step.Info)
	if err != nil {
		return nil, err
	}

	return step, nil
}

func runStage[I any, O any](p *Pipeline, name string, step *model.Step[O], stageLoop func(ctx context.Context) error) *model.Step[O] {
	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)

	go func() {
		defer func() {
			close(errC)
			if step.Output != nil {
				close(step.Output)
			}
		}()
		err := stageLoop(p.ctx)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return step
}

// AddStage adds a 1:1 transform step. With Workers(n) the input is consumed
// by n goroutines; output order is then unspecified.
func AddStage[I any, O any](p *Pipeline, name string, input *model.Step[I], stageFn func(context.Context, I) (O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	step, err := prepareStage(p, name, input, opts...)
	if err != nil {
		return nil, err
	}

	return runStage[I](p, name, step, func(ctx context.Context) error {
		return oneToOne(ctx, p, input, step, stageFn)
	}), nil
}

// AddExpand adds a 1:N transform step: every input element may produce any
// number of output elements.
func AddExpand[I any, O any](p *Pipeline, name string, input *model.Step[I], expandFn func(context.Context, I) ([]O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	step, err := prepareStage(p, name, input, opts...)
	if err != nil {
		return nil, err
	}

	return runStage[I](p, name, step, func(ctx context.Context) error {
		return oneToMany(ctx, p, input, step, expandFn)
	}), nil
}
