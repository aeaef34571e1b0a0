package withdrawal

// DefaultInventorySize is the number of slots of a player inventory.
const DefaultInventorySize = 36

// SlotInventory is a fixed-size slot array with the host's stacking rules. It backs the Nakama
// inventories and the test hosts.
type SlotInventory struct {
	Slots []*ItemStack
}

func NewSlotInventory(size int) *SlotInventory {
	return &SlotInventory{Slots: make([]*ItemStack, size)}
}

// Snapshot returns a copy of the slots, nil for empty ones.
func (s *SlotInventory) Snapshot() []*ItemStack {
	out := make([]*ItemStack, len(s.Slots))
	for i, slot := range s.Slots {
		if slot.IsEmpty() {
			continue
		}
		cp := *slot
		out[i] = &cp
	}
	return out
}

// Add stores the stack, topping up similar partial stacks first and then filling empty slots
// from the front. It returns the part that did not fit, or nil.
func (s *SlotInventory) Add(stack *ItemStack) *ItemStack {
	if stack.IsEmpty() {
		return nil
	}
	remain := stack.Amount
	maxStack := stackSize(stack.Material)

	for _, slot := range s.Slots {
		if remain == 0 {
			break
		}
		if !slot.Similar(stack) || slot.Amount >= maxStack {
			continue
		}
		moved := min(maxStack-slot.Amount, remain)
		slot.Amount += moved
		remain -= moved
	}

	for i, slot := range s.Slots {
		if remain == 0 {
			break
		}
		if !slot.IsEmpty() {
			continue
		}
		moved := min(maxStack, remain)
		s.Slots[i] = &ItemStack{Material: stack.Material, Amount: moved, Data: stack.Data}
		remain -= moved
	}

	if remain == 0 {
		return nil
	}
	return &ItemStack{Material: stack.Material, Amount: remain, Data: stack.Data}
}

// Count returns how many items of the material the inventory holds.
func (s *SlotInventory) Count(name string) int {
	total := 0
	for _, slot := range s.Slots {
		if !slot.IsEmpty() && slot.Material.Name == name {
			total += slot.Amount
		}
	}
	return total
}
