// Package workspace lays out the on-disk structure of an experiment run:
// one directory per dataset holding trained models, run logs and decode
// outputs.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	ModelsDir  = "saved_models"
	LogsDir    = "logs"
	DecodesDir = "decodes"
)

// subdirs is the complete set of per-dataset directories. Bootstrap creates
// exactly these, nothing else.
var subdirs = []string{ModelsDir, LogsDir, DecodesDir}

// Workspace roots all experiment outputs under a base directory.
type Workspace struct {
	base string
}

// New returns a workspace rooted at base. No directories are created until
// Bootstrap runs.
func New(base string) *Workspace {
	return &Workspace{base: base}
}

// Base returns the workspace root.
func (w *Workspace) Base() string { return w.base }

// Bootstrap creates the models, logs and decodes directories for each named
// dataset. It is idempotent.
func (w *Workspace) Bootstrap(datasets ...string) error {
	for _, ds := range datasets {
		for _, sub := range subdirs {
			dir := filepath.Join(w.base, ds, sub)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrapf(err, "unable to create %s", dir)
			}
		}
	}

	return nil
}

// DatasetDir returns the root directory of one dataset.
func (w *Workspace) DatasetDir(dataset string) string {
	return filepath.Join(w.base, dataset)
}

// ModelPath returns the path of a model file for a dataset.
func (w *Workspace) ModelPath(dataset, name string) string {
	return filepath.Join(w.base, dataset, ModelsDir, name)
}

// LogPath returns the path of a log file for a dataset.
func (w *Workspace) LogPath(dataset, name string) string {
	return filepath.Join(w.base, dataset, LogsDir, name)
}

// DecodePath returns the path of a decode output file for a dataset.
func (w *Workspace) DecodePath(dataset, name string) string {
	return filepath.Join(w.base, dataset, DecodesDir, name)
}
