package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemPatchEmpty(t *testing.T) {
	name := "Lamp"
	tags := []string{"x"}

	assert.True(t, ItemPatch{}.Empty())
	assert.False(t, ItemPatch{Name: &name}.Empty())
	assert.False(t, ItemPatch{Tags: &tags}.Empty())
}
