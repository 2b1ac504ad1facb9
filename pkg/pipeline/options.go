package pipeline

import "github.com/semparse/exprun/pkg/pipeline/model"

type StepOption[O any] func(s *model.Step[O])

// Workers sets how many goroutines consume the input of a stage.
func Workers[O any](workers int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Info.Workers = workers
	}
}

// KeepOpen leaves the output channel of a source open after its generator
// returns, so several sources can share one channel.
func KeepOpen[O any]() StepOption[O] {
	return func(s *model.Step[O]) {
		s.KeepOpen = true
	}
}

type FanOutOption func(info *model.StepInfo)

// FanOutBuffer sets the buffer size of each fan-out branch.
func FanOutBuffer(size int) FanOutOption {
	return func(info *model.StepInfo) {
		info.Buffer = size
	}
}
