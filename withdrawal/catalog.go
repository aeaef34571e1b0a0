package withdrawal

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const itemCatalogFileName = "items.yaml"

const defaultMaxStackSize = 64

//go:embed catalog/items.yaml
var defaultItemCatalog []byte

type itemCatalogFile struct {
	Items []*Material `yaml:"items"`
}

// ItemCatalog is an ItemRegistry backed by items.yaml.
type ItemCatalog struct {
	byName map[string]*Material
	items  []*Material
}

// NewItemCatalog indexes materials by name. Names are uppercased; a missing stack size defaults
// to 64. Duplicate names or ids are rejected.
func NewItemCatalog(items []*Material) (*ItemCatalog, error) {
	c := &ItemCatalog{
		byName: make(map[string]*Material, len(items)),
		items:  make([]*Material, 0, len(items)),
	}
	ids := make(map[int]string, len(items))
	for i, item := range items {
		if item == nil || strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("item %d: missing name", i)
		}
		m := *item
		m.Name = strings.ToUpper(strings.TrimSpace(m.Name))
		if m.MaxStackSize <= 0 {
			m.MaxStackSize = defaultMaxStackSize
		}
		if _, dup := c.byName[m.Name]; dup {
			return nil, fmt.Errorf("item %s: duplicate name", m.Name)
		}
		if other, dup := ids[m.ID]; dup {
			return nil, fmt.Errorf("item %s: id %d already used by %s", m.Name, m.ID, other)
		}
		ids[m.ID] = m.Name
		c.byName[m.Name] = &m
		c.items = append(c.items, &m)
	}
	return c, nil
}

// ParseItemCatalog reads the items.yaml format.
func ParseItemCatalog(data []byte) (*ItemCatalog, error) {
	var f itemCatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", itemCatalogFileName, err)
	}
	return NewItemCatalog(f.Items)
}

// DefaultItemCatalog returns the bundled item table.
func DefaultItemCatalog() *ItemCatalog {
	c, err := ParseItemCatalog(defaultItemCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadItemCatalog reads items.yaml from the data folder, writing the bundled table first when
// the file does not exist.
func LoadItemCatalog(plugin Plugin) (*ItemCatalog, error) {
	path := filepath.Join(plugin.DataFolder(), itemCatalogFileName)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := os.WriteFile(path, defaultItemCatalog, 0o644); werr != nil {
			plugin.Logger().Warn("Could not write default item catalog: %v", werr)
		}
		raw, err = defaultItemCatalog, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", itemCatalogFileName, err)
	}
	return ParseItemCatalog(raw)
}

func (c *ItemCatalog) MaterialByName(name string) (*Material, bool) {
	m, ok := c.byName[strings.ToUpper(name)]
	return m, ok
}

func (c *ItemCatalog) Materials() []*Material {
	return c.items
}
