package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semparse/exprun/internal/config"
)

const sampleConfig = `
data_dir: data
python_bin: python3
parser_script: exp.py
datasets:
  django:
    archive_url: https://example.com/django.zip
    sha256: abc123
    train: data/django/train.jsonl
    dev: data/django/dev.jsonl
    test: data/django/test.jsonl
    grammar: asdl/lang/py/py_asdl.txt
  conala:
    archive_url: https://example.com/conala.zip
defaults:
  mode: test
  beam_size: 15
  evaluator: match
runs:
  django-dev:
    dataset: django
    beam_size: 5
    features: [normalized_parser_score, code_token_count]
`

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "exprun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "python3", cfg.PythonBin)
	assert.Len(t, cfg.Datasets, 2)
	assert.Equal(t, "abc123", cfg.Datasets["django"].SHA256)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolveRunMergesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t))
	require.NoError(t, err)

	run, err := cfg.ResolveRun("django-dev")
	require.NoError(t, err)

	assert.Equal(t, "django", run.Dataset)
	assert.Equal(t, 5, run.BeamSize, "profile overrides the default")
	assert.Equal(t, "test", run.Mode, "zero field inherits the default")
	assert.Equal(t, "match", run.Evaluator)
	assert.Equal(t, []string{"normalized_parser_score", "code_token_count"}, run.Features)
}

func TestResolveRunUnknown(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	_, err := cfg.ResolveRun("nope")
	assert.ErrorIs(t, err, config.ErrUnknownRun)
}

func TestResolveRunEmptyNameIsDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	run, err := cfg.ResolveRun("")
	require.NoError(t, err)
	assert.Equal(t, cfg.Defaults, run)
}

func TestResolveDatasetUnknown(t *testing.T) {
	t.Parallel()

	_, err := config.Default().ResolveDataset("nope")
	assert.Error(t, err)
}

func TestDatasetNamesSorted(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"conala", "django"}, cfg.DatasetNames())
}

func TestMergeExtra(t *testing.T) {
	t.Parallel()

	base := config.Run{Extra: map[string]string{"cuda": "0"}}
	merged := base.Merge(config.Run{Extra: map[string]string{"batch_size": "10"}})

	assert.Equal(t, "0", merged.Extra["cuda"])
	assert.Equal(t, "10", merged.Extra["batch_size"])
}
