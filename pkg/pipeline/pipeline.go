package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/semparse/exprun/pkg/pipeline/model"
)

// Pipeline runs a set of connected steps: sources feed stages, stages feed
// sinks. It stops on the first error and cancels every running step.
type Pipeline struct {
	ctx       context.Context
	cancel    context.CancelFunc
	errcList  *errorChans
	opts      []model.Option
	startTime time.Time
	deferred  []func(ctx context.Context)
}

// New creates a pipeline bound to ctx. Options (measure, drawer) observe
// step registration and element flow.
func New(ctx context.Context, opts ...model.Option) (*Pipeline, error) {
	dCtx, cancel := context.WithCancel(ctx)
	pipe := &Pipeline{
		ctx:       dCtx,
		cancel:    cancel,
		errcList:  &errorChans{},
		startTime: time.Now(),
		opts:      opts,
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			cancel()
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

func (p *Pipeline) prepareStep(parents []*model.StepInfo, step *model.StepInfo) error {
	for _, opt := range p.opts {
		err := opt.PrepareStep(parents, step)
		if err != nil {
			return errors.Wrap(err, "unable to prepare step")
		}
	}

	return nil
}

func (p *Pipeline) onStepOutput(parent, step *model.StepInfo, transport, compute time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnStepOutput(parent, step, transport, compute)
		if err != nil {
			return errors.Wrap(err, "unable to process step output")
		}
	}

	return nil
}

func (p *Pipeline) afterSink(step *model.StepInfo) error {
	for _, opt := range p.opts {
		err := opt.AfterSink(step, time.Since(p.startTime))
		if err != nil {
			return errors.Wrap(err, "unable to finish sink")
		}
	}

	return nil
}

// waitForPipeline waits for results from all error channels.
// It returns early on the first error.
func waitForPipeline(errs ...*errorChan) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}

	return nil
}

// Run starts the deferred steps and waits for the whole pipeline to finish.
func (p *Pipeline) Run() error {
	defer p.cancel()

	for _, fn := range p.deferred {
		go fn(p.ctx)
	}

	err := waitForPipeline(p.errcList.list...)
	if err != nil {
		p.cancel()

		return err
	}

	return p.finishRun()
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}
