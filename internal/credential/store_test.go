package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "creds")
	s, err := NewStore(dir)
	require.NoError(t, err)

	path := s.Path("acc-1")
	assert.Equal(t, filepath.Join(dir, "session-acc-1.db"), path)
	assert.False(t, s.Exists("acc-1"))

	require.NoError(t, os.WriteFile(path, []byte("blob"), 0600))
	assert.True(t, s.Exists("acc-1"))

	require.NoError(t, s.Delete("acc-1"))
	assert.False(t, s.Exists("acc-1"))

	// Deleting a missing credential is not an error.
	require.NoError(t, s.Delete("acc-1"))
}
