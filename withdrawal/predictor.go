package withdrawal

// CanFitAll reports whether every request fits into the inventory snapshot at once. Requests
// are placed in declared order, first into free space of partial stacks of the same material and
// data value, then into empty slots. An unresolved item never fits.
func CanFitAll(snapshot []*ItemStack, registry ItemRegistry, reqs []ItemRequest) bool {
	emptySlots := 0
	partialFree := make(map[stackKey]int)

	for _, slot := range snapshot {
		if slot.IsEmpty() {
			emptySlots++
			continue
		}
		if free := stackSize(slot.Material) - slot.Amount; free > 0 {
			partialFree[stackKey{slot.Material.Name, slot.Data}] += free
		}
	}

	for _, r := range reqs {
		m := ResolveItem(registry, r)
		if m == nil {
			return false
		}
		_, data, err := ParseItemID(r.ID)
		if err != nil {
			return false
		}

		key := stackKey{m.Name, data}
		remain := r.Quantity
		if free := partialFree[key]; free > 0 {
			used := min(free, remain)
			remain -= used
			partialFree[key] = free - used
		}
		if remain <= 0 {
			continue
		}

		maxStack := stackSize(m)
		stacksNeeded := (remain + maxStack - 1) / maxStack
		if emptySlots < stacksNeeded {
			return false
		}
		emptySlots -= stacksNeeded
	}
	return true
}

// stackKey matches the rule ItemStack.Similar uses for merging.
type stackKey struct {
	material string
	data     int16
}

// stackSize guards against catalogs declaring a zero stack size.
func stackSize(m *Material) int {
	if m == nil || m.MaxStackSize <= 0 {
		return 1
	}
	return m.MaxStackSize
}
