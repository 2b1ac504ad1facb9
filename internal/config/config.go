// Package config loads the experiment configuration: dataset sources, the
// external decoder location, and named run profiles that overlay a shared
// set of defaults.
package config

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrUnknownRun = errors.New("unknown run profile")

// Dataset describes where a dataset archive lives and which files inside it
// matter.
type Dataset struct {
	ArchiveURL string `yaml:"archive_url"`
	SHA256     string `yaml:"sha256"`
	Train      string `yaml:"train"`
	Dev        string `yaml:"dev"`
	Test       string `yaml:"test"`
	Grammar    string `yaml:"grammar"`
}

// Run is one invocation profile. Zero fields inherit from the defaults.
type Run struct {
	Dataset        string            `yaml:"dataset"`
	Mode           string            `yaml:"mode"`
	Seed           int               `yaml:"seed"`
	BeamSize       int               `yaml:"beam_size"`
	MaxDecodeSteps int               `yaml:"max_decode_steps"`
	Model          string            `yaml:"model"`
	Evaluator      string            `yaml:"evaluator"`
	Features       []string          `yaml:"features"`
	Extra          map[string]string `yaml:"extra"`
}

// Merge overlays non-zero fields of other on top of r and returns the
// result.
func (r Run) Merge(other Run) Run {
	if other.Dataset != "" {
		r.Dataset = other.Dataset
	}
	if other.Mode != "" {
		r.Mode = other.Mode
	}
	if other.Seed != 0 {
		r.Seed = other.Seed
	}
	if other.BeamSize != 0 {
		r.BeamSize = other.BeamSize
	}
	if other.MaxDecodeSteps != 0 {
		r.MaxDecodeSteps = other.MaxDecodeSteps
	}
	if other.Model != "" {
		r.Model = other.Model
	}
	if other.Evaluator != "" {
		r.Evaluator = other.Evaluator
	}
	if len(other.Features) > 0 {
		r.Features = other.Features
	}
	if len(other.Extra) > 0 {
		if r.Extra == nil {
			r.Extra = map[string]string{}
		}
		for key, value := range other.Extra {
			r.Extra[key] = value
		}
	}

	return r
}

// Config is the top-level experiment configuration.
type Config struct {
	DataDir      string             `yaml:"data_dir"`
	PythonBin    string             `yaml:"python_bin"`
	ParserScript string             `yaml:"parser_script"`
	Datasets     map[string]Dataset `yaml:"datasets"`
	Defaults     Run                `yaml:"defaults"`
	Runs         map[string]Run     `yaml:"runs"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		PythonBin:    "python",
		ParserScript: "exp.py",
		Defaults: Run{
			Mode:      "test",
			Seed:      0,
			BeamSize:  15,
			Evaluator: "match",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config %s", path)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "unable to parse config %s", path)
	}

	return cfg, nil
}

// ResolveRun returns the named profile merged over the defaults. The empty
// name resolves to the defaults alone.
func (c *Config) ResolveRun(name string) (Run, error) {
	if name == "" {
		return c.Defaults, nil
	}

	run, ok := c.Runs[name]
	if !ok {
		return Run{}, errors.Wrap(ErrUnknownRun, name)
	}

	return c.Defaults.Merge(run), nil
}

// ResolveDataset returns the dataset entry for name.
func (c *Config) ResolveDataset(name string) (Dataset, error) {
	ds, ok := c.Datasets[name]
	if !ok {
		return Dataset{}, errors.Errorf("unknown dataset %q", name)
	}

	return ds, nil
}

// DatasetNames returns the configured dataset names, sorted for stable
// iteration.
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
