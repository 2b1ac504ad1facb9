package eval

import (
	"math"
	"strings"

	"github.com/semparse/exprun/pkg/dataset"
)

const (
	BLEUEvaluatorName = "bleu"

	maxOrder = 4
)

func init() {
	Register(BLEUEvaluatorName, func() Evaluator { return &BLEUEvaluator{Smooth: true} })
}

// BLEUEvaluator reports corpus BLEU-4 of the top hypotheses over the
// tokenized programs. With Smooth set, zero n-gram matches are add-one
// smoothed so short datasets do not collapse to zero.
type BLEUEvaluator struct {
	Smooth bool
}

func (e *BLEUEvaluator) Name() string { return BLEUEvaluatorName }

func (e *BLEUEvaluator) EvaluateDataset(examples []*dataset.Example, results []*dataset.DecodeResult) float64 {
	references := make([][]string, 0, len(examples))
	candidates := make([][]string, 0, len(examples))
	for i, ex := range examples {
		references = append(references, dataset.TokenizeCode(ex.Target))
		if i < len(results) && len(results[i].Hypotheses) > 0 {
			candidates = append(candidates, dataset.TokenizeCode(results[i].Hypotheses[0].Code))
		} else {
			candidates = append(candidates, nil)
		}
	}

	return corpusBLEU(references, candidates, e.Smooth)
}

func corpusBLEU(references, candidates [][]string, smooth bool) float64 {
	var (
		matchesByOrder  [maxOrder]float64
		possibleByOrder [maxOrder]float64

		referenceLength   int
		translationLength int
	)

	for i, reference := range references {
		candidate := candidates[i]
		referenceLength += len(reference)
		translationLength += len(candidate)

		refNgrams := countNgrams(reference)
		candNgrams := countNgrams(candidate)
		for ngram, count := range candNgrams {
			if refCount, ok := refNgrams[ngram]; ok {
				matchesByOrder[ngramOrder(ngram)-1] += math.Min(float64(count), float64(refCount))
			}
		}
		for order := 1; order <= maxOrder; order++ {
			possible := len(candidate) - order + 1
			if possible > 0 {
				possibleByOrder[order-1] += float64(possible)
			}
		}
	}

	var precisions [maxOrder]float64
	for order := 0; order < maxOrder; order++ {
		switch {
		case smooth:
			precisions[order] = (matchesByOrder[order] + 1) / (possibleByOrder[order] + 1)
		case possibleByOrder[order] > 0:
			precisions[order] = matchesByOrder[order] / possibleByOrder[order]
		default:
			precisions[order] = 0
		}
	}

	geoMean := 0.0
	if minPrecision(precisions) > 0 {
		sumLogs := 0.0
		for _, p := range precisions {
			sumLogs += math.Log(p)
		}
		geoMean = math.Exp(sumLogs / maxOrder)
	}

	brevityPenalty := 1.0
	if translationLength < referenceLength && translationLength > 0 {
		brevityPenalty = math.Exp(1 - float64(referenceLength)/float64(translationLength))
	}
	if translationLength == 0 {
		brevityPenalty = 0
	}

	return geoMean * brevityPenalty
}

func minPrecision(precisions [maxOrder]float64) float64 {
	minP := precisions[0]
	for _, p := range precisions[1:] {
		if p < minP {
			minP = p
		}
	}

	return minP
}

func countNgrams(tokens []string) map[string]int {
	counts := make(map[string]int)
	for order := 1; order <= maxOrder; order++ {
		for i := 0; i+order <= len(tokens); i++ {
			counts[strings.Join(tokens[i:i+order], "\x1f")]++
		}
	}

	return counts
}

func ngramOrder(ngram string) int {
	return strings.Count(ngram, "\x1f") + 1
}
