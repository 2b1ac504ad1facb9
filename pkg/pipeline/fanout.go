package pipeline

import (
	"sync"
	"time"

	"github.com/semparse/exprun/pkg/pipeline/model"
)

// AddFanOut duplicates the input stream to total branches. Each branch gets
// every element; a small buffer per branch decouples slow consumers.
func AddFanOut[I any](p *Pipeline, name string, input *model.Step[I], total int, opts ...FanOutOption) ([]*model.Step[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	if total <= 0 {
		return nil, ErrFanOutTotal
	}

	info := &model.StepInfo{
		Kind:    model.FanOutStepKind,
		Name:    name,
		Workers: 1,
		Buffer:  1,
	}
	for _, opt := range opts {
		opt(info)
	}
	err := p.prepareStep([]*model.StepInfo{input.Info}, info)
	if err != nil {
		return nil, err
	}

	branches := make([]*model.Step[I], total)
	buffers := make([]chan I, total)
	for i := range branches {
		buffers[i] = make(chan I, info.Buffer)
		branches[i] = &model.Step[I]{
			Info:   info,
			Output: make(chan I),
		}
	}

	errC := make(chan error, total+1)
	decoratedError := newErrorChan(name, errC)

	wgrp := &sync.WaitGroup{}
	wgrp.Add(total)
	for i := range buffers {
		localBuf := buffers[i]
		localIdx := i
		go func() {
			defer wgrp.Done()
			defer close(branches[localIdx].Output)
			for {
				select {
				case elem, ok := <-localBuf:
					if !ok {
						return
					}
					select {
					case branches[localIdx].Output <- elem:
					case <-p.ctx.Done():
						errC <- p.ctx.Err()

						return
					}
				case <-p.ctx.Done():
					errC <- p.ctx.Err()

					return
				}
			}
		}()
	}

	go func() {
		defer func() {
			for _, buf := range buffers {
				close(buf)
			}
			wgrp.Wait()
			close(errC)
		}()

	outer:
		for {
			start := time.Now()
			select {
			case <-p.ctx.Done():
				errC <- p.ctx.Err()

				break outer
			case entry, ok := <-input.Output:
				if !ok {
					break outer
				}
				for _, buf := range buffers {
					select {
					case <-p.ctx.Done():
						errC <- p.ctx.Err()

						break outer
					case buf <- entry:
					}
				}
				err := p.onStepOutput(input.Info, info, time.Since(start), 0)
				if err != nil {
					errC <- err

					break outer
				}
			}
		}
	}()
	p.errcList.add(decoratedError)

	return branches, nil
}
