// Package dataset holds the data model shared by decoding, reranking and
// evaluation: examples (utterance + reference program) and decode results
// (ranked hypothesis lists produced by the external decoder).
package dataset

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

var ErrResultMismatch = errors.New("decode results do not align with examples")

// Example is one dataset entry: the tokenized natural-language utterance and
// the reference program.
type Example struct {
	ID     int      `json:"id"`
	Source []string `json:"source"`
	Target string   `json:"target"`
}

// Hypothesis is one decode candidate for an example. Score is the raw
// decoder log-probability. FeatureValues carries reranking feature values:
// decoder-side features (e.g. paraphrase_score) arrive precomputed in the
// decode file, local features are filled in by the reranker.
type Hypothesis struct {
	Code          string             `json:"code"`
	Score         float64            `json:"score"`
	Correct       bool               `json:"correct,omitempty"`
	FeatureValues map[string]float64 `json:"features,omitempty"`

	// TokenCount is derived from Code at feature-initialisation time.
	TokenCount int `json:"-"`
}

// DecodeResult is the ordered hypothesis list decoded for one example.
type DecodeResult struct {
	ExampleID  int           `json:"example_id"`
	Hypotheses []*Hypothesis `json:"hypotheses"`
}

// Entry pairs an example with its decode result. It is the element type
// flowing through the rerank pipeline.
type Entry struct {
	Example *Example
	Result  *DecodeResult
}

// LoadExamples reads a JSON-lines dataset file.
func LoadExamples(path string) ([]*Example, error) {
	var examples []*Example
	err := readLines(path, func(line []byte) error {
		ex := &Example{}
		if err := json.Unmarshal(line, ex); err != nil {
			return err
		}
		examples = append(examples, ex)

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load examples from %s", path)
	}

	return examples, nil
}

// LoadDecodeResults reads a JSON-lines decode file.
func LoadDecodeResults(path string) ([]*DecodeResult, error) {
	var results []*DecodeResult
	err := readLines(path, func(line []byte) error {
		res := &DecodeResult{}
		if err := json.Unmarshal(line, res); err != nil {
			return err
		}
		results = append(results, res)

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load decode results from %s", path)
	}

	return results, nil
}

// SaveDecodeResults writes results as JSON lines, one example per line.
func SaveDecodeResults(path string, results []*DecodeResult) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer file.Close()

	wrt := bufio.NewWriter(file)
	enc := json.NewEncoder(wrt)
	for _, res := range results {
		err := enc.Encode(res)
		if err != nil {
			return errors.Wrapf(err, "unable to encode decode result %d", res.ExampleID)
		}
	}
	err = wrt.Flush()
	if err != nil {
		return errors.Wrapf(err, "unable to flush %s", path)
	}

	return nil
}

// Zip pairs examples with decode results positionally. Result files carry no
// gaps: the i-th line belongs to the i-th example, matching the decoder
// output order. When a result records an example id it must agree.
func Zip(examples []*Example, results []*DecodeResult) ([]Entry, error) {
	if len(examples) != len(results) {
		return nil, errors.Wrapf(ErrResultMismatch, "%d examples vs %d results", len(examples), len(results))
	}
	entries := make([]Entry, len(examples))
	for i := range examples {
		if results[i].ExampleID != 0 && results[i].ExampleID != examples[i].ID {
			return nil, errors.Wrapf(ErrResultMismatch, "result %d claims example %d, want %d", i, results[i].ExampleID, examples[i].ID)
		}
		entries[i] = Entry{Example: examples[i], Result: results[i]}
	}

	return entries, nil
}

func readLines(path string, lineFn func(line []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		err := lineFn(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNo)
		}
	}

	return scanner.Err()
}
