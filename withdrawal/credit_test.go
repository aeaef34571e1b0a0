package withdrawal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditExecutor_Credit(t *testing.T) {
	registry := testRegistry(t)
	logger := newTestLogger()
	player := newFakePlayer("Steve", NewSlotInventory(DefaultInventorySize))

	credited, err := NewCreditExecutor(registry).Credit(context.Background(), logger, player, []ItemRequest{
		{ID: "1", Name: "STONE", Quantity: 70},
		{ID: "35:14", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 72, credited)

	inv := player.inventory.slots
	assert.Equal(t, 70, inv.Count("STONE"))
	assert.Equal(t, 2, inv.Count("WOOL"))
	assert.Equal(t, int16(14), inv.Slots[2].Data)
	assert.Equal(t, 1, player.inventory.updates)
}

func TestCreditExecutor_UnresolvableStopsCredit(t *testing.T) {
	registry := testRegistry(t)
	logger := newTestLogger()
	player := newFakePlayer("Steve", NewSlotInventory(DefaultInventorySize))

	credited, err := NewCreditExecutor(registry).Credit(context.Background(), logger, player, []ItemRequest{
		{ID: "3", Quantity: 4},
		{ID: "9999", Name: "MYSTERY", Quantity: 1},
		{ID: "1", Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, 4, credited)
	assert.Equal(t, 1, player.inventory.addCalls)
	assert.True(t, logger.contains("no longer resolves"))
}

func TestCreditExecutor_InvalidDataValueStopsCredit(t *testing.T) {
	registry := testRegistry(t)
	logger := newTestLogger()
	player := newFakePlayer("Steve", NewSlotInventory(DefaultInventorySize))

	credited, err := NewCreditExecutor(registry).Credit(context.Background(), logger, player, []ItemRequest{
		{ID: "1:abc", Name: "STONE", Quantity: 5},
	})
	assert.ErrorIs(t, err, ErrInvalidItemID)
	assert.Equal(t, 0, credited)
	assert.Equal(t, 0, player.inventory.addCalls)
	assert.Equal(t, 0, player.inventory.slots.Count("STONE"))
}

func TestCreditExecutor_LeftoverIsCritical(t *testing.T) {
	registry := testRegistry(t)
	logger := newTestLogger()
	player := newFakePlayer("Steve", NewSlotInventory(DefaultInventorySize))
	player.inventory.dropLeftover = true

	credited, err := NewCreditExecutor(registry).Credit(context.Background(), logger, player, []ItemRequest{
		{ID: "1", Quantity: 5},
		{ID: "3", Quantity: 5},
	})
	assert.ErrorIs(t, err, ErrCreditLeftover)
	assert.Equal(t, 4, credited)
	assert.Equal(t, 1, player.inventory.addCalls)
	assert.True(t, logger.contains("CRITICAL"))
}

func TestCreditExecutor_AddItemError(t *testing.T) {
	registry := testRegistry(t)
	logger := newTestLogger()
	player := newFakePlayer("Steve", NewSlotInventory(DefaultInventorySize))
	player.inventory.addErr = errTest

	_, err := NewCreditExecutor(registry).Credit(context.Background(), logger, player, []ItemRequest{{ID: "1", Quantity: 5}})
	assert.ErrorIs(t, err, ErrCreditLeftover)
	assert.True(t, logger.contains("CRITICAL"))
}
