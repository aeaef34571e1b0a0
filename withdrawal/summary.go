package withdrawal

import (
	"strconv"
	"strings"
)

// Summarize renders requests as "5x Stone, 2x Iron Ingot".
func Summarize(registry ItemRegistry, reqs []ItemRequest) string {
	parts := make([]string, 0, len(reqs))
	for _, r := range reqs {
		name := r.Name
		if m := ResolveItem(registry, r); m != nil {
			name = DisplayName(m.Name)
		}
		parts = append(parts, strconv.Itoa(r.Quantity)+"x "+name)
	}
	return strings.Join(parts, ", ")
}

// DisplayName turns IRON_INGOT into "Iron Ingot".
func DisplayName(symbol string) string {
	if symbol == "" {
		return "Unknown"
	}
	words := strings.Split(symbol, "_")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, strings.ToUpper(w[:1])+strings.ToLower(w[1:]))
	}
	return strings.Join(out, " ")
}
