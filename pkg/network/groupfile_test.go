package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGroupFile(t *testing.T) {
	t.Run("parses id/name pairs, skips comments and blanks", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "group")
		content := "# iproute2 group file\n\n0\tdefault\n10\tgpu\n20\tvideo extra-field-ignored\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		groups, err := LoadGroupFile(path)
		require.NoError(t, err)
		assert.Equal(t, "default", groups["0"])
		assert.Equal(t, "gpu", groups["10"])
		assert.Equal(t, "video", groups["20"])
	})

	t.Run("missing file returns empty map, no error", func(t *testing.T) {
		groups, err := LoadGroupFile("/nonexistent/group")
		require.NoError(t, err)
		assert.Empty(t, groups)
	})
}
