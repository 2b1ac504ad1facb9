package drawer

import (
	"time"

	"github.com/semparse/exprun/pkg/pipeline/measure"
)

// Drawer renders the step graph of a pipeline.
type Drawer interface {
	// AddStep adds a step vertex.
	AddStep(stepName string) error
	// AddLink adds an edge between a parent step and a child step.
	AddLink(parentStepName, childStepName string) error
	// Draw writes the graph out.
	Draw() error
	// SetTotalTime annotates a step with the elapsed time since startTime.
	SetTotalTime(stepName string, startTime time.Time) error
	// AddMeasure overlays recorded timings on the graph.
	AddMeasure(measure measure.Measure) error
}
