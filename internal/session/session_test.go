package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahid-dev/restopos/internal/session"
	"github.com/shahid-dev/restopos/internal/storage"
)

func TestSession_Lifecycle(t *testing.T) {
	st := storage.NewMemStore()
	s := session.New(st)

	assert.Empty(t, s.Token())
	assert.False(t, s.Authenticated())

	require.NoError(t, s.SetToken("opaque-token"))
	assert.Equal(t, "opaque-token", s.Token())
	assert.True(t, s.Authenticated())

	// A fresh session over the same storage survives a restart.
	assert.True(t, session.New(st).Authenticated())

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Token())
	assert.False(t, s.Authenticated())
}

func TestSession_RejectsEmptyToken(t *testing.T) {
	s := session.New(storage.NewMemStore())
	assert.Error(t, s.SetToken(""))
}
