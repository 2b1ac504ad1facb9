package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/semparse/exprun/pkg/dataset"
	"github.com/semparse/exprun/pkg/eval"
)

func TestBLEUPerfectMatch(t *testing.T) {
	t.Parallel()

	examples := []*dataset.Example{
		{ID: 1, Target: "sorted(x, key=len)"},
		{ID: 2, Target: "x[::-1]"},
	}
	results := []*dataset.DecodeResult{
		{ExampleID: 1, Hypotheses: []*dataset.Hypothesis{{Code: "sorted(x, key=len)"}}},
		{ExampleID: 2, Hypotheses: []*dataset.Hypothesis{{Code: "x[::-1]"}}},
	}

	ev := &eval.BLEUEvaluator{}

	assert.InDelta(t, 1.0, ev.EvaluateDataset(examples, results), 1e-9)
}

func TestBLEUNoOverlap(t *testing.T) {
	t.Parallel()

	examples := []*dataset.Example{{ID: 1, Target: "aaa bbb ccc ddd"}}
	results := []*dataset.DecodeResult{
		{ExampleID: 1, Hypotheses: []*dataset.Hypothesis{{Code: "eee fff ggg hhh"}}},
	}

	ev := &eval.BLEUEvaluator{}

	assert.Zero(t, ev.EvaluateDataset(examples, results))
}

func TestBLEUPartialOverlapOrdering(t *testing.T) {
	t.Parallel()

	examples := []*dataset.Example{{ID: 1, Target: "a b c d e f"}}
	closer := []*dataset.DecodeResult{
		{ExampleID: 1, Hypotheses: []*dataset.Hypothesis{{Code: "a b c d x y"}}},
	}
	farther := []*dataset.DecodeResult{
		{ExampleID: 1, Hypotheses: []*dataset.Hypothesis{{Code: "a x c y e z"}}},
	}

	ev := &eval.BLEUEvaluator{Smooth: true}

	assert.Greater(t, ev.EvaluateDataset(examples, closer), ev.EvaluateDataset(examples, farther))
}

func TestBLEUMissingHypothesis(t *testing.T) {
	t.Parallel()

	examples := []*dataset.Example{{ID: 1, Target: "a b c d"}}
	results := []*dataset.DecodeResult{{ExampleID: 1}}

	ev := &eval.BLEUEvaluator{Smooth: true}

	assert.Zero(t, ev.EvaluateDataset(examples, results))
}

func TestBLEUBrevityPenalty(t *testing.T) {
	t.Parallel()

	examples := []*dataset.Example{{ID: 1, Target: "a b c d e f g h"}}
	short := []*dataset.DecodeResult{
		{ExampleID: 1, Hypotheses: []*dataset.Hypothesis{{Code: "a b c d"}}},
	}
	full := []*dataset.DecodeResult{
		{ExampleID: 1, Hypotheses: []*dataset.Hypothesis{{Code: "a b c d e f g h"}}},
	}

	ev := &eval.BLEUEvaluator{Smooth: true}

	assert.Less(t, ev.EvaluateDataset(examples, short), ev.EvaluateDataset(examples, full))
}
