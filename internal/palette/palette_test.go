package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomComesFromPalette(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.True(t, Contains(Random()))
	}
}

func TestContainsRejectsOffPalette(t *testing.T) {
	assert.False(t, Contains(Colour{1, 2, 3}))
}
