package ids

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]+$`)

func TestHexLength(t *testing.T) {
	for _, n := range []int{1, 5, 6, 13} {
		id := Hex(n)
		assert.Len(t, id, n)
		assert.Regexp(t, hexRe, id)
	}
	assert.Equal(t, "", Hex(0))
}

func TestConnectionIsUUID(t *testing.T) {
	_, err := uuid.Parse(Connection())
	require.NoError(t, err)
	assert.NotEqual(t, Connection(), Connection())
}
