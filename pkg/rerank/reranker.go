package rerank

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/semparse/exprun/pkg/dataset"
	"github.com/semparse/exprun/pkg/eval"
)

var (
	ErrNoFeatures        = errors.New("reranker needs at least one feature")
	ErrParameterMismatch = errors.New("parameter length does not match feature count")
)

// Reranker rescores the hypothesis lists of decode results with a linear
// combination of features on top of the decoder score.
type Reranker struct {
	features []Feature
}

// New builds a reranker from registered feature names.
func New(featureNames []string) (*Reranker, error) {
	if len(featureNames) == 0 {
		return nil, ErrNoFeatures
	}

	features := make([]Feature, 0, len(featureNames))

	for _, name := range featureNames {
		feat, err := GetFeature(name)
		if err != nil {
			return nil, err
		}

		features = append(features, feat)
	}

	return &Reranker{features: features}, nil
}

// FeatureNames returns the feature names in scoring order.
func (r *Reranker) FeatureNames() []string {
	names := make([]string, len(r.features))
	for i, feat := range r.features {
		names[i] = feat.Name()
	}

	return names
}

// FeatureCount returns the length of the weight vector.
func (r *Reranker) FeatureCount() int { return len(r.features) }

// InitEntry drops hypotheses that produce no code tokens, caches token counts
// and correctness, and fills the feature values of the remaining hypotheses.
// It must run once per entry before Rerank or Train.
func (r *Reranker) InitEntry(entry dataset.Entry) {
	valid := entry.Result.Hypotheses[:0]

	for _, hyp := range entry.Result.Hypotheses {
		tokens := dataset.TokenizeCode(hyp.Code)
		if len(tokens) == 0 {
			continue
		}

		hyp.TokenCount = len(tokens)
		hyp.Correct = eval.IsCorrect(entry.Example, hyp)

		valid = append(valid, hyp)
	}

	entry.Result.Hypotheses = valid

	for _, feat := range r.features {
		for i, hyp := range entry.Result.Hypotheses {
			if hyp.FeatureValues == nil {
				hyp.FeatureValues = map[string]float64{}
			}

			hyp.FeatureValues[feat.Name()] = feat.Value(entry.Example, hyp, i, entry.Result.Hypotheses)
		}
	}
}

// InitFeatures prepares every entry for reranking.
func (r *Reranker) InitFeatures(entries []dataset.Entry) {
	for _, entry := range entries {
		r.InitEntry(entry)
	}
}

// Score is the decoder score plus the dot product of the weight vector with
// the hypothesis feature values.
func (r *Reranker) Score(hyp *dataset.Hypothesis, params []float64) float64 {
	score := hyp.Score

	for i, feat := range r.features {
		score += params[i] * hyp.FeatureValues[feat.Name()]
	}

	return score
}

// RerankEntry reorders the hypotheses of one entry by descending rerank
// score. With fast set it only moves the best hypothesis to the front, which
// is all an accuracy metric needs.
func (r *Reranker) RerankEntry(entry dataset.Entry, params []float64, fast bool) error {
	if len(params) != len(r.features) {
		return ErrParameterMismatch
	}

	hyps := entry.Result.Hypotheses
	if len(hyps) == 0 {
		return nil
	}

	if fast {
		best := 0
		bestScore := r.Score(hyps[0], params)

		for i := 1; i < len(hyps); i++ {
			if score := r.Score(hyps[i], params); score > bestScore {
				best, bestScore = i, score
			}
		}

		hyps[0], hyps[best] = hyps[best], hyps[0]

		return nil
	}

	sort.SliceStable(hyps, func(i, j int) bool {
		return r.Score(hyps[i], params) > r.Score(hyps[j], params)
	})

	return nil
}

// Rerank reorders every entry in place.
func (r *Reranker) Rerank(entries []dataset.Entry, params []float64, fast bool) error {
	for _, entry := range entries {
		if err := r.RerankEntry(entry, params, fast); err != nil {
			return err
		}
	}

	return nil
}

// Performance reranks the entries with the given weights and returns the
// evaluator score of the result. Entries are reranked in place.
func (r *Reranker) Performance(entries []dataset.Entry, ev eval.Evaluator, params []float64, fast bool) (float64, error) {
	if err := r.Rerank(entries, params, fast); err != nil {
		return 0, err
	}

	examples := make([]*dataset.Example, len(entries))
	results := make([]*dataset.DecodeResult, len(entries))

	for i, entry := range entries {
		examples[i] = entry.Example
		results[i] = entry.Result
	}

	return ev.EvaluateDataset(examples, results), nil
}

// Model is the on-disk form of a trained reranker.
type Model struct {
	Features  []string  `json:"features"`
	Parameter []float64 `json:"parameter"`
}

// Save writes the feature names and weight vector as a JSON model file.
func (r *Reranker) Save(path string, params []float64) error {
	if len(params) != len(r.features) {
		return ErrParameterMismatch
	}

	raw, err := json.MarshalIndent(Model{Features: r.FeatureNames(), Parameter: params}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal reranker model")
	}

	return errors.Wrapf(os.WriteFile(path, raw, 0o644), "write reranker model %s", path)
}

// Load reads a model file and returns the reranker together with its trained
// weight vector.
func Load(path string) (*Reranker, []float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read reranker model %s", path)
	}

	var model Model
	if err := json.Unmarshal(raw, &model); err != nil {
		return nil, nil, errors.Wrapf(err, "parse reranker model %s", path)
	}

	reranker, err := New(model.Features)
	if err != nil {
		return nil, nil, err
	}

	if len(model.Parameter) != len(model.Features) {
		return nil, nil, ErrParameterMismatch
	}

	return reranker, model.Parameter, nil
}
