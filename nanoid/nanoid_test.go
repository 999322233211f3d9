package nanoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	id := String()
	assert.Len(t, id, defaultSize)
	assert.True(t, IsValid(id))

	short := Lower(8)
	assert.Len(t, short, 8)
	assert.True(t, IsValid(short, 8))
	assert.False(t, IsValid(short))
}

func TestIsValidRejectsForeignRunes(t *testing.T) {
	assert.False(t, IsValid("abc-def_ghi!jklm"))
}
