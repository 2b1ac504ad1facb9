package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semparse/exprun/pkg/dataset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadExamples(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dev.jsonl", `{"id":1,"source":["sort","the","list"],"target":"sorted(x)"}
{"id":2,"source":["reverse","it"],"target":"x[::-1]"}
`)

	examples, err := dataset.LoadExamples(path)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, 1, examples[0].ID)
	assert.Equal(t, []string{"sort", "the", "list"}, examples[0].Source)
	assert.Equal(t, "x[::-1]", examples[1].Target)
}

func TestLoadExamplesMissingFile(t *testing.T) {
	t.Parallel()

	_, err := dataset.LoadExamples(filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestLoadExamplesBadLine(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bad.jsonl", `{"id":1}
not json
`)

	_, err := dataset.LoadExamples(path)
	assert.Error(t, err)
}

func TestDecodeResultsRoundTrip(t *testing.T) {
	t.Parallel()

	results := []*dataset.DecodeResult{
		{ExampleID: 1, Hypotheses: []*dataset.Hypothesis{
			{Code: "sorted(x)", Score: -0.5, Correct: true},
			{Code: "sorted(y)", Score: -1.2, FeatureValues: map[string]float64{"paraphrase_score": 0.3}},
		}},
		{ExampleID: 2, Hypotheses: []*dataset.Hypothesis{
			{Code: "x[::-1]", Score: -0.1},
		}},
	}

	path := filepath.Join(t.TempDir(), "out.decode")
	require.NoError(t, dataset.SaveDecodeResults(path, results))

	got, err := dataset.LoadDecodeResults(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ExampleID)
	require.Len(t, got[0].Hypotheses, 2)
	assert.True(t, got[0].Hypotheses[0].Correct)
	assert.InDelta(t, 0.3, got[0].Hypotheses[1].FeatureValues["paraphrase_score"], 1e-9)
}

func TestZip(t *testing.T) {
	t.Parallel()

	examples := []*dataset.Example{{ID: 1}, {ID: 2}}
	results := []*dataset.DecodeResult{{ExampleID: 1}, {ExampleID: 2}}

	entries, err := dataset.Zip(examples, results)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Same(t, examples[0], entries[0].Example)
	assert.Same(t, results[1], entries[1].Result)
}

func TestZipLengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := dataset.Zip([]*dataset.Example{{ID: 1}}, nil)
	assert.ErrorIs(t, err, dataset.ErrResultMismatch)
}

func TestZipIDMismatch(t *testing.T) {
	t.Parallel()

	examples := []*dataset.Example{{ID: 1}}
	results := []*dataset.DecodeResult{{ExampleID: 7}}

	_, err := dataset.Zip(examples, results)
	assert.ErrorIs(t, err, dataset.ErrResultMismatch)
}
