package model

type stepKind string

const (
	SourceStepKind = "source"
	StageStepKind  = "stage"
	FanOutStepKind = "fanout"
	MergeStepKind  = "merge"
	SinkStepKind   = "sink"
)

// StepInfo describes one step of the pipeline. It is what the options
// (measure, drawer) see; they never touch the data channels.
type StepInfo struct {
	Kind    stepKind
	Name    string
	Workers int
	Buffer  int
}

// StartStep and EndStep are the virtual boundary vertices of the step graph.
var (
	StartStep = &Step[any]{Info: &StepInfo{Name: "start"}}
	EndStep   = &Step[any]{Info: &StepInfo{Name: "end"}}
)

// Step is a typed handle on a pipeline stage: its output channel plus its
// descriptor.
type Step[O any] struct {
	Output   chan O
	KeepOpen bool
	Info     *StepInfo
}
