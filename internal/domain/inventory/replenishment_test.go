package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsReorder(t *testing.T) {
	assert.True(t, NeedsReorder(d("3"), d("5")))
	assert.True(t, NeedsReorder(d("5"), d("5")), "en el umbral también cuenta")
	assert.False(t, NeedsReorder(d("6"), d("5")))
	assert.False(t, NeedsReorder(d("0"), d("0")), "sin umbral no hay reorden")
}

func TestSuggestedOrderQty(t *testing.T) {
	ideal, suggested := SuggestedOrderQty(d("2"), d("4"), d("20"))
	assert.True(t, ideal.Equal(d("20")))
	assert.True(t, suggested.Equal(d("18")))

	ideal, suggested = SuggestedOrderQty(d("2"), d("4"), d("0"))
	assert.True(t, ideal.Equal(d("6")), "sin máximo: reorden * 1.5")
	assert.True(t, suggested.Equal(d("4")))

	_, suggested = SuggestedOrderQty(d("30"), d("4"), d("20"))
	assert.True(t, suggested.IsZero())
}
