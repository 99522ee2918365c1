package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RememberRecall(t *testing.T) {
	s, err := NewStore(0)
	require.NoError(t, err)

	s.Remember("name", "Ada")
	s.Remember("name", "Grace")

	v, ok := s.Recall("name")
	assert.True(t, ok)
	assert.Equal(t, "Grace", v)
	assert.Equal(t, 1, s.Len())

	_, ok = s.Recall("missing")
	assert.False(t, ok)
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)

	s.Remember("a", "1")
	s.Remember("b", "2")
	_, _ = s.Recall("a")
	s.Remember("c", "3")

	_, ok := s.Recall("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "c"}, s.Keys())
}
