package options

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	o := Resolve()
	assert.Equal(t, 5, o.MaxSuggestions)
	assert.Equal(t, 8, o.MaxIterations)
	assert.NotNil(t, o.Logger)
	assert.NoError(t, o.Validate())
}

func TestResolveAppliesInOrder(t *testing.T) {
	o := Resolve(WithMaxIterations(3), WithSingleShot(), WithWorkers(2), nil)
	assert.Equal(t, 1, o.MaxIterations)
	assert.Equal(t, 2, o.Workers)
}

func TestParseKeepsDefaultsAndLogger(t *testing.T) {
	opt, err := Parse([]byte("max_suggestions: 3\nphonetic_combo_limit: 100\n"))
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	o := Resolve(WithLogger(logger), opt)
	assert.Equal(t, 3, o.MaxSuggestions)
	assert.Equal(t, 100, o.PhoneticComboLimit)
	assert.Equal(t, DefaultOptions.MaxIterations, o.MaxIterations)
	assert.Same(t, logger, o.Logger)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse([]byte("max_iterations: 0\nworkers: -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_iterations")
	assert.Contains(t, err.Error(), "workers")

	_, err = Parse([]byte("max_suggestions: [1"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrector.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_targets: 12\n"), 0o644))

	opt, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 12, Resolve(opt).MaxTargets)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	big := filepath.Join(dir, "big.yaml")
	require.NoError(t, os.WriteFile(big, make([]byte, MaxFileSize+1), 0o644))
	_, err = LoadFile(big)
	assert.Error(t, err)
}
