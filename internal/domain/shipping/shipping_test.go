package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMethods(t *testing.T) {
	methods := DefaultMethods()

	codes := map[string]string{}
	for _, m := range methods {
		assert.True(t, m.IsActive)
		assert.Equal(t, NormalizeCode(m.Code), m.Code)
		codes[m.Code] = m.Cost.StringFixed(2)
	}
	assert.Equal(t, map[string]string{"standard": "9.99", "express": "19.99", "overnight": "29.99"}, codes)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "express", NormalizeCode("  Express "))
}
