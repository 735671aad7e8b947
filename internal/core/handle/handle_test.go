package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Format(t *testing.T) {
	h := New()
	assert.Len(t, h, 32)
	assert.NotContains(t, h, "-")
	assert.True(t, Valid(h))
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		h := New()
		_, dup := seen[h]
		assert.False(t, dup, "duplicate handle %s", h)
		seen[h] = struct{}{}
	}
}

func TestValid_Rejects(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("P0001"))
	assert.False(t, Valid("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
}
