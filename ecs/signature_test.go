package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignature(t *testing.T) {
	s := NewSignature(0, 3, 64, 127)
	assert.True(t, s.Test(0))
	assert.True(t, s.Test(64))
	assert.True(t, s.Test(127))
	assert.False(t, s.Test(1))
	assert.Equal(t, 4, s.Count())
	assert.Equal(t, []ComponentTypeId{0, 3, 64, 127}, s.Ids())
	assert.Equal(t, "{0,3,64,127}", s.String())

	s.Clear(3)
	assert.False(t, s.Test(3))
	assert.Equal(t, "{}", Signature{}.String())
	assert.True(t, Signature{}.IsEmpty())
}

func TestSignatureContains(t *testing.T) {
	renderer := NewSignature(0, 1)
	entity := NewSignature(0)
	assert.False(t, entity.Contains(renderer))

	entity = entity.With(1)
	assert.True(t, entity.Contains(renderer))
	assert.True(t, entity.Equal(renderer))

	entity = entity.With(100)
	assert.True(t, entity.Contains(renderer))
	assert.False(t, renderer.Contains(entity))
	assert.True(t, renderer.Intersects(entity))
	assert.Equal(t, renderer, entity.Intersect(renderer))
	assert.Equal(t, entity, renderer.Union(NewSignature(100)))

	assert.True(t, entity.Contains(Signature{}))
	assert.False(t, entity.Without(0).Contains(renderer))
}
