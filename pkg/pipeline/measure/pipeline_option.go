package measure

import (
	"time"

	"github.com/semparse/exprun/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStep.Info.Name, 1)
	pm.AddMetric(model.EndStep.Info.Name, 1)

	return nil
}

func (pm *pipelineMeasure) PrepareStep(parents []*model.StepInfo, step *model.StepInfo) error {
	pm.AddMetric(step.Name, step.Workers)

	return nil
}

func (pm *pipelineMeasure) OnStepOutput(parent, step *model.StepInfo, transport, compute time.Duration) error {
	metric := pm.GetMetric(step.Name)
	metric.AddDuration(compute)
	metric.AddTransportDuration(parent.Name, transport)

	return nil
}

func (pm *pipelineMeasure) AfterSink(step *model.StepInfo, total time.Duration) error {
	pm.GetMetric(step.Name).SetTotalDuration(total)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure returns a pipeline option recording timings into measure.
func PipelineMeasure(measure Measure) model.Option {
	return &pipelineMeasure{measure}
}
