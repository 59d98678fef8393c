package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	s := NewStorage()

	_, ok, err := s.Get("token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("token", "abc"))
	v, ok, err := s.Get("token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Remove("token"))
	require.NoError(t, s.Remove("token"), "removing a missing key is not an error")
	assert.Equal(t, 0, s.Len())
}
