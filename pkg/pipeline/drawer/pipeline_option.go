package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/semparse/exprun/pkg/pipeline/measure"
	"github.com/semparse/exprun/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStep.Info.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}
	err = pd.AddStep(model.EndStep.Info.Name)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStep(parents []*model.StepInfo, step *model.StepInfo) error {
	err := pd.AddStep(step.Name)
	if err != nil {
		return err
	}
	for _, parent := range parents {
		err := pd.AddLink(parent.Name, step.Name)
		if err != nil {
			return err
		}
	}
	if step.Kind == model.SinkStepKind {
		err := pd.AddLink(step.Name, model.EndStep.Info.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (pd *pipelineDrawer) OnStepOutput(parent, step *model.StepInfo, transport, compute time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) AfterSink(step *model.StepInfo, total time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.SetTotalTime(model.EndStep.Info.Name, pd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}
		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer returns a pipeline option rendering the step graph when the
// run finishes. measure may be nil to draw the bare graph.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.Option {
	return &pipelineDrawer{drawer, measure, time.Now()}
}
