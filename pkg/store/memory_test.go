package store

import (
	"context"
	"testing"

	"github.com/mscno/vaultenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetPut(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Get(ctx, "proj1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	in := vaultenv.Bundle{"A": "1"}
	require.NoError(t, s.Put(ctx, "proj1", in))
	in["A"] = "changed after put"

	got, err = s.Get(ctx, "proj1")
	require.NoError(t, err)
	assert.Equal(t, vaultenv.Bundle{"A": "1"}, got)

	got["B"] = "changed after get"
	again, err := s.Get(ctx, "proj1")
	require.NoError(t, err)
	assert.Equal(t, vaultenv.Bundle{"A": "1"}, again)
	assert.Equal(t, 1, s.Writes())
}

func TestMemoryStore_ProjectsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "proj1", vaultenv.Bundle{"A": "1"}))

	got, err := s.Get(ctx, "proj2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
