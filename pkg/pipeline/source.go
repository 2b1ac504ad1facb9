package pipeline

import (
	"context"

	"github.com/semparse/exprun/pkg/pipeline/model"
)

// AddSource adds a generator step feeding the pipeline. sourceFn must push
// every element to out and return; the channel is closed for it unless
// KeepOpen is set.
func AddSource[O any](p *Pipeline, name string, sourceFn func(ctx context.Context, out chan<- O) error, opts ...StepOption[O]) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	output := make(chan O)
	step := &model.Step[O]{
		Info: &model.StepInfo{
			Kind:    model.SourceStepKind,
			Name:    name,
			Workers: 1,
		},
		Output: output,
	}
	for _, opt := range opts {
		opt(step)
	}
	err := p.prepareStep([]*model.StepInfo{model.StartStep.Info}, step.Info)
	if err != nil {
		return nil, err
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	go func() {
		defer func() {
			if !step.KeepOpen {
				close(output)
			}
			close(errC)
		}()
		err := sourceFn(p.ctx, output)
		if err != nil {
			errC <- err
		}
	}()
	p.errcList.add(decoratedError)

	return step, nil
}
