package withdrawal

import "strings"

// ResolveItem maps an item request to a host material. The symbolic name wins when it is known;
// otherwise the numeric base id is looked up. It returns nil when neither resolves or the id is
// not numeric.
func ResolveItem(registry ItemRegistry, req ItemRequest) *Material {
	if registry == nil {
		return nil
	}
	baseID, err := parseBaseID(req.ID)
	if err != nil {
		return nil
	}

	if req.Name != "" {
		if m, ok := registry.MaterialByName(strings.ToUpper(req.Name)); ok && m != nil {
			return m
		}
	}
	return materialByID(registry, baseID)
}

func materialByID(registry ItemRegistry, id int) *Material {
	for _, m := range registry.Materials() {
		if m != nil && m.ID == id {
			return m
		}
	}
	return nil
}
