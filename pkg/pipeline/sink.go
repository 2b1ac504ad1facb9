package pipeline

import (
	"context"
	"time"

	"github.com/semparse/exprun/pkg/pipeline/model"
)

// AddSink adds a terminal step consuming every element of input.
func AddSink[I any](p *Pipeline, name string, input *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	step := &model.Step[I]{
		Info: &model.StepInfo{
			Kind:    model.SinkStepKind,
			Name:    name,
			Workers: 1,
		},
	}
	err := p.prepareStep([]*model.StepInfo{input.Info}, step.Info)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	go func() {
		defer close(errC)
	outer:
		for {
			start := time.Now()
			select {
			case <-p.ctx.Done():
				errC <- p.ctx.Err()

				break outer
			case in, ok := <-input.Output:
				if !ok {
					break outer
				}
				transport := time.Since(start)

				startFn := time.Now()
				err := sinkFn(p.ctx, in)
				if err != nil {
					errC <- err

					break outer
				}
				err = p.onStepOutput(input.Info, step.Info, transport, time.Since(startFn))
				if err != nil {
					errC <- err

					break outer
				}
			}
		}
		err := p.afterSink(step.Info)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return nil
}

// AddSinkFromChan adds a terminal step that drains the input channel itself.
// Useful when the sink needs the whole stream, e.g. to evaluate a dataset.
func AddSinkFromChan[I any](p *Pipeline, name string, input *model.Step[I], sinkFn func(ctx context.Context, input <-chan I) error) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	step := &model.Step[I]{
		Info: &model.StepInfo{
			Kind:    model.SinkStepKind,
			Name:    name,
			Workers: 1,
		},
	}
	err := p.prepareStep([]*model.StepInfo{input.Info}, step.Info)
	if err != nil {
		return err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	go func() {
		defer close(errC)
		err := sinkFn(p.ctx, input.Output)
		if err != nil {
			errC <- err
		}
		err = p.afterSink(step.Info)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return nil
}
