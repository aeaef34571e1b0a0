package withdrawal

import (
	"context"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Plugin is the capability the engine and its managers receive at construction instead of a
// reference to the whole plugin.
type Plugin interface {
	// DataFolder is the root directory holding config.properties, lang/ and the request queues.
	DataFolder() string
	Logger() runtime.Logger
}

// Material is a host item type.
type Material struct {
	Name         string `yaml:"name" json:"name"`
	ID           int    `yaml:"id" json:"id"`
	MaxStackSize int    `yaml:"max_stack_size" json:"max_stack_size"`
}

// ItemStack is the content of one inventory slot. A nil stack is an empty slot.
type ItemStack struct {
	Material *Material `json:"-"`
	Amount   int       `json:"amount"`
	Data     int16     `json:"data"`
}

// IsEmpty reports whether the slot holds nothing. Air (id 0) counts as empty.
func (s *ItemStack) IsEmpty() bool {
	return s == nil || s.Material == nil || s.Material.ID == 0 || s.Amount <= 0
}

// Similar reports whether two stacks can merge into one slot.
func (s *ItemStack) Similar(other *ItemStack) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return false
	}
	return s.Material.Name == other.Material.Name && s.Data == other.Data
}

// ItemRegistry exposes the host's item table.
type ItemRegistry interface {
	// MaterialByName looks up a material by its uppercase symbolic name.
	MaterialByName(name string) (*Material, bool)
	// Materials enumerates every known material.
	Materials() []*Material
}

// Inventory is the host inventory API of one player.
type Inventory interface {
	// Contents returns one entry per slot, nil for empty slots.
	Contents(ctx context.Context) ([]*ItemStack, error)
	// AddItem stores the stack and returns what did not fit, keyed by argument index.
	AddItem(ctx context.Context, stack *ItemStack) (map[int]*ItemStack, error)
	// UpdateInventory pushes the inventory state to the client.
	UpdateInventory(ctx context.Context) error
}

// Player is a recipient known to the host.
type Player interface {
	Name() string
	UniqueID() string
	IsOnline() bool
	Inventory() Inventory
	SendMessage(ctx context.Context, message string) error
}

// Host resolves players by name. It returns a nil Player and a nil error for unknown names.
type Host interface {
	Player(ctx context.Context, name string) (Player, error)
}

// AuthProvider tells whether a player finished logging in.
type AuthProvider interface {
	IsAuthenticated(ctx context.Context, player Player) bool
}

// LanguageResolver returns a lowercase language tag for the player, or "" when unknown.
type LanguageResolver interface {
	PlayerLanguage(ctx context.Context, player Player) string
}

// Translator resolves localized messages.
type Translator interface {
	Get(lang, key string, placeholders map[string]string) string
}

// Scheduler runs tasks serially on the host's scheduler.
type Scheduler interface {
	ScheduleRepeating(period time.Duration, task func()) error
	CancelAll()
}

// AllowAllAuth treats every online player as authenticated.
type AllowAllAuth struct{}

func (AllowAllAuth) IsAuthenticated(ctx context.Context, player Player) bool {
	return player != nil && player.IsOnline()
}

// DefaultLanguage always resolves to the fallback language.
type DefaultLanguage struct{}

func (DefaultLanguage) PlayerLanguage(ctx context.Context, player Player) string {
	return ""
}
