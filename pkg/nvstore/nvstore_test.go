package nvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok := s.Get("state")
	assert.False(t, ok)

	require.NoError(t, s.Put("state", []byte{1, 2, 3}))
	data, ok := s.Get("state")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)

	// Overwrite with different content
	require.NoError(t, s.Put("state", []byte{4, 5}))
	data, ok = s.Get("state")
	require.True(t, ok)
	assert.Equal(t, []byte{4, 5}, data)

	// Re-put of identical content must succeed (no-op write)
	require.NoError(t, s.Put("state", []byte{4, 5}))

	require.NoError(t, s.Delete("state"))
	_, ok = s.Get("state")
	assert.False(t, ok)

	// Deleting a missing record is a no-op, a clean store can be reset again
	assert.NoError(t, s.Delete("state"))
}

func TestValidName(t *testing.T) {
	assert.False(t, ValidName(""))
	assert.True(t, ValidName("loadcell"))
	assert.True(t, ValidName("123456789012345"))
	assert.False(t, ValidName("1234567890123456"))

	s, err := Open(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Put("", []byte{1}))
	assert.Error(t, s.Put("a-name-that-is-way-too-long", []byte{1}))
}
