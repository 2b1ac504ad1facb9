// Package eval scores decode results against their dataset. Evaluators are
// registered under the names accepted by the --evaluator flag.
package eval

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/semparse/exprun/pkg/dataset"
)

var ErrUnknownEvaluator = errors.New("unknown evaluator")

// Evaluator computes a dataset-level metric from the top hypothesis of every
// decode result.
type Evaluator interface {
	Name() string
	EvaluateDataset(examples []*dataset.Example, results []*dataset.DecodeResult) float64
}

var registry = map[string]func() Evaluator{}

// Register makes an evaluator constructor available under its name.
// Registering the same name twice panics; names are package-level constants.
func Register(name string, newFn func() Evaluator) {
	if _, ok := registry[name]; ok {
		panic("evaluator already registered: " + name)
	}
	registry[name] = newFn
}

// Get returns the evaluator registered under name.
func Get(name string) (Evaluator, error) {
	newFn, ok := registry[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownEvaluator, name)
	}

	return newFn(), nil
}

// Names lists the registered evaluator names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}

const MatchEvaluatorName = "match"

func init() {
	Register(MatchEvaluatorName, func() Evaluator { return &MatchEvaluator{} })
}

// MatchEvaluator reports exact-match accuracy of the top hypothesis. A
// hypothesis counts as correct when the decoder flagged it so, or when its
// tokenized form equals the tokenized reference.
type MatchEvaluator struct{}

func (e *MatchEvaluator) Name() string { return MatchEvaluatorName }

func (e *MatchEvaluator) EvaluateDataset(examples []*dataset.Example, results []*dataset.DecodeResult) float64 {
	if len(examples) == 0 {
		return 0
	}
	correct := 0
	for i, ex := range examples {
		if i >= len(results) || len(results[i].Hypotheses) == 0 {
			continue
		}
		if IsCorrect(ex, results[i].Hypotheses[0]) {
			correct++
		}
	}

	return float64(correct) / float64(len(examples))
}

// IsCorrect reports whether hyp matches the reference of ex.
func IsCorrect(ex *dataset.Example, hyp *dataset.Hypothesis) bool {
	if hyp.Correct {
		return true
	}
	if hyp.Code == "" {
		return false
	}

	return normalizeCode(hyp.Code) == normalizeCode(ex.Target)
}

func normalizeCode(code string) string {
	return strings.Join(dataset.TokenizeCode(code), " ")
}
