package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSortOptions(t *testing.T) {
	opts := DefaultSortOptions()
	assert.False(t, opts.MasterlistGroupCyclesFatal)
	assert.Equal(t, 512, opts.ParallelOverlapThreshold)
	assert.Equal(t, "en", opts.Language)
}

func TestLoadSortOptions(t *testing.T) {
	t.Run("values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "libloot.yaml")
		content := "masterlist_group_cycles_fatal: true\nparallel_overlap_threshold: 64\nlanguage: de\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		opts, err := LoadSortOptions(path)
		require.NoError(t, err)
		assert.True(t, opts.MasterlistGroupCyclesFatal)
		assert.Equal(t, 64, opts.ParallelOverlapThreshold)
		assert.Equal(t, "de", opts.Language)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadSortOptions(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
