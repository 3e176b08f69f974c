package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampLimit(0))
	assert.Equal(t, DefaultPageSize, ClampLimit(-5))
	assert.Equal(t, 20, ClampLimit(20))
	assert.Equal(t, MaxPageSize, ClampLimit(MaxPageSize))
	assert.Equal(t, MaxPageSize, ClampLimit(10000))
}

func TestSetPageBounds(t *testing.T) {
	defer SetPageBounds(50, 100)

	SetPageBounds(25, 40)
	assert.Equal(t, 25, ClampLimit(0))
	assert.Equal(t, 40, ClampLimit(10000))

	// non-positive values keep the current bounds
	SetPageBounds(0, -1)
	assert.Equal(t, 25, ClampLimit(0))
	assert.Equal(t, 40, ClampLimit(10000))
}

func TestClampSkip(t *testing.T) {
	assert.Equal(t, 0, ClampSkip(-1))
	assert.Equal(t, 0, ClampSkip(0))
	assert.Equal(t, 30, ClampSkip(30))
}
