package withdrawal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	inventoryStorageCollection = "withdrawal"
	userInventoryStorageKey    = "inventory"

	messageNotificationSubject   = "withdrawal"
	inventoryNotificationSubject = "inventory_updated"
	messageNotificationCode      = 2101
	inventoryNotificationCode    = 2102

	unknownMaterialID = -1
)

type storedSlot struct {
	Item   string `json:"item"`
	Amount int    `json:"amount"`
	Data   int16  `json:"data,omitempty"`
}

type storedInventory struct {
	Slots []*storedSlot `json:"slots"`
}

// NakamaHost resolves Nakama users as delivery recipients. Inventories live in the storage engine.
type NakamaHost struct {
	nk       runtime.NakamaModule
	registry ItemRegistry
	logger   runtime.Logger
	slots    int
}

func NewNakamaHost(nk runtime.NakamaModule, registry ItemRegistry, logger runtime.Logger) *NakamaHost {
	return &NakamaHost{
		nk:       nk,
		registry: registry,
		logger:   logger,
		slots:    DefaultInventorySize,
	}
}

func (h *NakamaHost) Player(ctx context.Context, name string) (Player, error) {
	users, err := h.nk.UsersGetUsername(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, name) {
			return &nakamaPlayer{host: h, user: u}, nil
		}
	}
	return nil, nil
}

// PlayerLanguage returns the user's language tag, lowercased.
func (h *NakamaHost) PlayerLanguage(ctx context.Context, player Player) string {
	if p, ok := player.(*nakamaPlayer); ok {
		return strings.ToLower(p.user.LangTag)
	}
	users, err := h.nk.UsersGetId(ctx, []string{player.UniqueID()}, nil)
	if err != nil || len(users) == 0 {
		return ""
	}
	return strings.ToLower(users[0].LangTag)
}

// SessionAuth treats a player as authenticated when the account is enabled and the user has a
// live session.
type SessionAuth struct {
	nk runtime.NakamaModule
}

func NewSessionAuth(nk runtime.NakamaModule) *SessionAuth {
	return &SessionAuth{nk: nk}
}

func (a *SessionAuth) IsAuthenticated(ctx context.Context, player Player) bool {
	if player == nil || !player.IsOnline() {
		return false
	}
	account, err := a.nk.AccountGetId(ctx, player.UniqueID())
	if err != nil || account == nil {
		return false
	}
	return account.DisableTime == nil || account.DisableTime.GetSeconds() == 0
}

type nakamaPlayer struct {
	host *NakamaHost
	user *api.User
}

func (p *nakamaPlayer) Name() string     { return p.user.Username }
func (p *nakamaPlayer) UniqueID() string { return p.user.Id }
func (p *nakamaPlayer) IsOnline() bool   { return p.user.Online }

func (p *nakamaPlayer) Inventory() Inventory {
	return &nakamaInventory{host: p.host, userID: p.user.Id}
}

func (p *nakamaPlayer) SendMessage(ctx context.Context, message string) error {
	content := map[string]interface{}{"message": message}
	return p.host.nk.NotificationSend(ctx, p.user.Id, messageNotificationSubject, content, messageNotificationCode, "", true)
}

type nakamaInventory struct {
	host   *NakamaHost
	userID string
}

func (i *nakamaInventory) Contents(ctx context.Context) ([]*ItemStack, error) {
	inv, _, err := i.load(ctx)
	if err != nil {
		return nil, err
	}
	return inv.Snapshot(), nil
}

// AddItem stores the stack with an optimistic version check, so a concurrent write by another
// module fails the call instead of being overwritten.
func (i *nakamaInventory) AddItem(ctx context.Context, stack *ItemStack) (map[int]*ItemStack, error) {
	inv, version, err := i.load(ctx)
	if err != nil {
		return nil, err
	}
	leftover := inv.Add(stack)
	if err := i.store(ctx, inv, version); err != nil {
		return nil, err
	}
	if leftover == nil {
		return map[int]*ItemStack{}, nil
	}
	return map[int]*ItemStack{0: leftover}, nil
}

func (i *nakamaInventory) UpdateInventory(ctx context.Context) error {
	inv, _, err := i.load(ctx)
	if err != nil {
		return err
	}
	used := 0
	for _, s := range inv.Slots {
		if !s.IsEmpty() {
			used++
		}
	}
	content := map[string]interface{}{"slots": len(inv.Slots), "used": used}
	return i.host.nk.NotificationSend(ctx, i.userID, inventoryNotificationSubject, content, inventoryNotificationCode, "", false)
}

func (i *nakamaInventory) load(ctx context.Context) (*SlotInventory, string, error) {
	objects, err := i.host.nk.StorageRead(ctx, []*runtime.StorageRead{
		{
			Collection: inventoryStorageCollection,
			Key:        userInventoryStorageKey,
			UserID:     i.userID,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("read inventory: %w", err)
	}

	inv := NewSlotInventory(i.host.slots)
	if len(objects) == 0 {
		return inv, "", nil
	}

	var stored storedInventory
	if err := json.Unmarshal([]byte(objects[0].Value), &stored); err != nil {
		return nil, "", fmt.Errorf("decode inventory: %w", err)
	}
	for idx, slot := range stored.Slots {
		if idx >= len(inv.Slots) {
			break
		}
		if slot == nil || slot.Amount <= 0 {
			continue
		}
		m, ok := i.host.registry.MaterialByName(slot.Item)
		if !ok {
			// Keep the slot occupied so it survives the next write.
			i.host.logger.Warn("Unknown item %s in inventory of %s", slot.Item, i.userID)
			m = &Material{Name: slot.Item, ID: unknownMaterialID, MaxStackSize: slot.Amount}
		}
		inv.Slots[idx] = &ItemStack{Material: m, Amount: slot.Amount, Data: slot.Data}
	}
	return inv, objects[0].Version, nil
}

func (i *nakamaInventory) store(ctx context.Context, inv *SlotInventory, version string) error {
	stored := storedInventory{Slots: make([]*storedSlot, len(inv.Slots))}
	for idx, s := range inv.Slots {
		if s.IsEmpty() {
			continue
		}
		stored.Slots[idx] = &storedSlot{Item: s.Material.Name, Amount: s.Amount, Data: s.Data}
	}
	value, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	if version == "" {
		// Only create when nobody else did in the meantime.
		version = "*"
	}

	_, err = i.host.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      inventoryStorageCollection,
			Key:             userInventoryStorageKey,
			UserID:          i.userID,
			Value:           string(value),
			Version:         version,
			PermissionRead:  1,
			PermissionWrite: 0,
		},
	})
	if err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}
	return nil
}
