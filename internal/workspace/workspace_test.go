package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semparse/exprun/internal/workspace"
)

func TestBootstrapCreatesExactlyThreeDirs(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	ws := workspace.New(base)

	require.NoError(t, ws.Bootstrap("django", "conala"))

	for _, ds := range []string{"django", "conala"} {
		entries, err := os.ReadDir(filepath.Join(base, ds))
		require.NoError(t, err)
		require.Len(t, entries, 3)

		names := make([]string, len(entries))
		for i, e := range entries {
			assert.True(t, e.IsDir())
			names[i] = e.Name()
		}

		assert.ElementsMatch(t, []string{"saved_models", "logs", "decodes"}, names)
	}
}

func TestBootstrapIdempotent(t *testing.T) {
	t.Parallel()

	ws := workspace.New(t.TempDir())

	require.NoError(t, ws.Bootstrap("django"))
	require.NoError(t, ws.Bootstrap("django"))

	entries, err := os.ReadDir(ws.DatasetDir("django"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestPaths(t *testing.T) {
	t.Parallel()

	ws := workspace.New("work")

	assert.Equal(t, filepath.Join("work", "django", "saved_models", "m.bin"), ws.ModelPath("django", "m.bin"))
	assert.Equal(t, filepath.Join("work", "django", "logs", "run.log"), ws.LogPath("django", "run.log"))
	assert.Equal(t, filepath.Join("work", "django", "decodes", "dev.decode"), ws.DecodePath("django", "dev.decode"))
}
