package vaultenv

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestBundle(t *testing.T) {
	b := Bundle{"B": "2", "A": "1", "C": ""}
	assert.Equal(t, []string{"A", "B", "C"}, b.Keys())
	assert.True(t, b.Has("C"))
	assert.False(t, b.Has("D"))

	c := b.Clone()
	c["A"] = "changed"
	assert.Equal(t, "1", b["A"])

	var empty Bundle
	assert.Equal(t, Bundle{}, empty.Clone())
	assert.Equal(t, []string{}, empty.Keys())
}
