package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	page, limit := Normalize(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultLimit, limit)

	page, limit = Normalize(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, DefaultLimit, limit)
}

func TestNew(t *testing.T) {
	p := New(2, 20, 41)

	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)
	assert.Equal(t, 20, Offset(2, 20))

	last := New(3, 20, 41)
	assert.False(t, last.HasNext)
}
