package withdrawal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveItem(t *testing.T) {
	registry := testRegistry(t)

	// Name wins over id
	m := ResolveItem(registry, ItemRequest{ID: "3", Name: "STONE", Quantity: 1})
	if assert.NotNil(t, m) {
		assert.Equal(t, "STONE", m.Name)
	}

	// Lowercase names resolve
	m = ResolveItem(registry, ItemRequest{ID: "1", Name: "iron_ingot", Quantity: 1})
	if assert.NotNil(t, m) {
		assert.Equal(t, "IRON_INGOT", m.Name)
	}

	// Unknown name falls back to the base id
	m = ResolveItem(registry, ItemRequest{ID: "35:14", Name: "RED_WOOL", Quantity: 1})
	if assert.NotNil(t, m) {
		assert.Equal(t, "WOOL", m.Name)
	}

	// No name
	m = ResolveItem(registry, ItemRequest{ID: "276", Quantity: 1})
	if assert.NotNil(t, m) {
		assert.Equal(t, "DIAMOND_SWORD", m.Name)
	}

	assert.Nil(t, ResolveItem(registry, ItemRequest{ID: "9999", Quantity: 1}))
	assert.Nil(t, ResolveItem(registry, ItemRequest{ID: "abc", Name: "STONE", Quantity: 1}))
	assert.Nil(t, ResolveItem(nil, ItemRequest{ID: "1", Quantity: 1}))
}

func TestSummarize(t *testing.T) {
	registry := testRegistry(t)
	summary := Summarize(registry, []ItemRequest{
		{ID: "1", Name: "STONE", Quantity: 5},
		{ID: "265", Quantity: 2},
		{ID: "9999", Name: "MYSTERY_BOX", Quantity: 1},
	})
	assert.Equal(t, "5x Stone, 2x Iron Ingot, 1x MYSTERY_BOX", summary)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Iron Ingot", DisplayName("IRON_INGOT"))
	assert.Equal(t, "Stone", DisplayName("STONE"))
	assert.Equal(t, "Snow Ball", DisplayName("snow__ball"))
	assert.Equal(t, "Unknown", DisplayName(""))
}
