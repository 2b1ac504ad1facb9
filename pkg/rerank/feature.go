// Package rerank rescores decode hypotheses with a weighted feature
// combination. Features are registered under the names accepted by the
// --features flag; the weight vector is trained by grid search against an
// evaluator.
package rerank

import (
	"github.com/pkg/errors"

	"github.com/semparse/exprun/pkg/dataset"
)

var ErrUnknownFeature = errors.New("unknown reranking feature")

// Feature computes one reranking feature for a hypothesis. hypIdx is the
// position of hyp in the decoder ranking and all is the full hypothesis list
// of the example, so margin features can look at the top hypothesis.
type Feature interface {
	Name() string
	Value(ex *dataset.Example, hyp *dataset.Hypothesis, hypIdx int, all []*dataset.Hypothesis) float64
}

var featureRegistry = map[string]func() Feature{}

// RegisterFeature makes a feature constructor available under its name.
func RegisterFeature(name string, newFn func() Feature) {
	if _, ok := featureRegistry[name]; ok {
		panic("reranking feature already registered: " + name)
	}
	featureRegistry[name] = newFn
}

// GetFeature returns the feature registered under name.
func GetFeature(name string) (Feature, error) {
	newFn, ok := featureRegistry[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownFeature, name)
	}

	return newFn(), nil
}

const (
	NormalizedParserScoreName     = "normalized_parser_score"
	CodeTokenCountName            = "code_token_count"
	SecondHypScoreMarginName      = "is_2nd_hyp_and_margin_with_top_hyp"
	SecondHypParaphraseMarginName = "is_2nd_hyp_and_paraphrase_score_margin_with_top_hyp"
	WordCountName                 = "word_count"

	// paraphraseScoreKey is the decoder-side feature the paraphrase margin
	// reads from the decode file.
	paraphraseScoreKey = "paraphrase_score"
)

func init() {
	RegisterFeature(NormalizedParserScoreName, func() Feature { return normalizedParserScore{} })
	RegisterFeature(CodeTokenCountName, func() Feature { return codeTokenCount{} })
	RegisterFeature(SecondHypScoreMarginName, func() Feature { return secondHypScoreMargin{} })
	RegisterFeature(SecondHypParaphraseMarginName, func() Feature { return secondHypParaphraseMargin{} })
	RegisterFeature(WordCountName, func() Feature { return wordCount{} })
}

// normalizedParserScore is the decoder score normalised by program length,
// so long programs are not unfairly penalised.
type normalizedParserScore struct{}

func (normalizedParserScore) Name() string { return NormalizedParserScoreName }

func (normalizedParserScore) Value(ex *dataset.Example, hyp *dataset.Hypothesis, hypIdx int, all []*dataset.Hypothesis) float64 {
	if hyp.TokenCount == 0 {
		return 0
	}

	return hyp.Score / float64(hyp.TokenCount)
}

type codeTokenCount struct{}

func (codeTokenCount) Name() string { return CodeTokenCountName }

func (codeTokenCount) Value(ex *dataset.Example, hyp *dataset.Hypothesis, hypIdx int, all []*dataset.Hypothesis) float64 {
	return float64(hyp.TokenCount)
}

// secondHypScoreMargin is the decoder-score margin to the top hypothesis,
// only set on the second hypothesis: a tight margin means the decoder
// hesitated between the first two candidates.
type secondHypScoreMargin struct{}

func (secondHypScoreMargin) Name() string { return SecondHypScoreMarginName }

func (secondHypScoreMargin) Value(ex *dataset.Example, hyp *dataset.Hypothesis, hypIdx int, all []*dataset.Hypothesis) float64 {
	if hypIdx == 1 {
		return all[0].Score - hyp.Score
	}

	return 0
}

type secondHypParaphraseMargin struct{}

func (secondHypParaphraseMargin) Name() string { return SecondHypParaphraseMarginName }

func (secondHypParaphraseMargin) Value(ex *dataset.Example, hyp *dataset.Hypothesis, hypIdx int, all []*dataset.Hypothesis) float64 {
	if hypIdx == 1 {
		return hyp.FeatureValues[paraphraseScoreKey] - all[0].FeatureValues[paraphraseScoreKey]
	}

	return 0
}

type wordCount struct{}

func (wordCount) Name() string { return WordCountName }

func (wordCount) Value(ex *dataset.Example, hyp *dataset.Hypothesis, hypIdx int, all []*dataset.Hypothesis) float64 {
	return float64(len(ex.Source))
}
