package withdrawal

import (
	"context"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"
)

// CreditExecutor adds approved requests to a player's inventory.
type CreditExecutor struct {
	registry ItemRegistry
}

func NewCreditExecutor(registry ItemRegistry) *CreditExecutor {
	return &CreditExecutor{registry: registry}
}

// Credit adds every request to the player's inventory, one AddItem call per request. It must only
// be called after CanFitAll approved the same requests against the current inventory; anything
// the inventory hands back is reported as ErrCreditLeftover, and an item that no longer resolves
// stops the credit with ErrUnknownItem or ErrInvalidItemID. It returns the number of items added.
func (c *CreditExecutor) Credit(ctx context.Context, logger runtime.Logger, player Player, reqs []ItemRequest) (int, error) {
	inv := player.Inventory()
	credited := 0

	for _, r := range reqs {
		_, data, err := ParseItemID(r.ID)
		if err != nil {
			logger.Error("CRITICAL: item id %q for %s failed to parse after fit check passed", r.ID, player.Name())
			return credited, err
		}
		m := ResolveItem(c.registry, r)
		if m == nil {
			logger.Error("CRITICAL: item %s (id: %s) for %s no longer resolves after fit check passed", r.Name, r.ID, player.Name())
			return credited, fmt.Errorf("%w: %s (id: %s)", ErrUnknownItem, r.Name, r.ID)
		}

		leftovers, err := inv.AddItem(ctx, &ItemStack{Material: m, Amount: r.Quantity, Data: data})
		if err != nil {
			logger.Error("CRITICAL: failed to credit %dx %s to %s after fit check passed: %v", r.Quantity, m.Name, player.Name(), err)
			return credited, fmt.Errorf("%w: %v", ErrCreditLeftover, err)
		}
		if len(leftovers) > 0 {
			logger.Error("CRITICAL: inventory of %s rejected %d of %dx %s even after fit check passed, some items may be lost", player.Name(), leftoverAmount(leftovers), r.Quantity, m.Name)
			return credited + r.Quantity - leftoverAmount(leftovers), ErrCreditLeftover
		}
		credited += r.Quantity
	}

	if err := inv.UpdateInventory(ctx); err != nil {
		logger.Debug("Inventory refresh for %s failed: %v", player.Name(), err)
	}
	return credited, nil
}

func leftoverAmount(leftovers map[int]*ItemStack) int {
	total := 0
	for _, s := range leftovers {
		if s != nil {
			total += s.Amount
		}
	}
	return total
}
