package model

import "time"

// Option is the hook contract for pipeline observers. Every step
// registration and every element pushed downstream is reported to each
// option attached to the pipeline.
type Option interface {
	// New initialises the option before any step is registered.
	New() error
	// PrepareStep runs when a step is registered. parents lists every step
	// feeding it; a source step has StartStep as its only parent.
	PrepareStep(parents []*StepInfo, step *StepInfo) error
	// OnStepOutput runs every time a step pushes one element downstream.
	// transport is the time spent waiting on channels, compute the time
	// spent inside the step function.
	OnStepOutput(parent, step *StepInfo, transport, compute time.Duration) error
	// AfterSink runs when a sink drained its input, with the total wall
	// time since the pipeline started.
	AfterSink(step *StepInfo, total time.Duration) error
	// Finish runs once after the pipeline completed without error.
	Finish() error
}
