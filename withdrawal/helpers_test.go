package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/require"
)

// Recording logger for tests
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func newTestLogger() *testLogger {
	return &testLogger{}
}

func (l *testLogger) record(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+" "+fmt.Sprintf(format, v...))
}

func (l *testLogger) Debug(format string, v ...interface{})                   { l.record("DEBUG", format, v...) }
func (l *testLogger) Info(format string, v ...interface{})                    { l.record("INFO", format, v...) }
func (l *testLogger) Warn(format string, v ...interface{})                    { l.record("WARN", format, v...) }
func (l *testLogger) Error(format string, v ...interface{})                   { l.record("ERROR", format, v...) }
func (l *testLogger) WithField(key string, value interface{}) runtime.Logger  { return l }
func (l *testLogger) WithFields(fields map[string]interface{}) runtime.Logger { return l }
func (l *testLogger) Fields() map[string]interface{}                          { return map[string]interface{}{} }

func (l *testLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type testPlugin struct {
	dir    string
	logger *testLogger
}

func newTestPlugin(t *testing.T) *testPlugin {
	return &testPlugin{dir: t.TempDir(), logger: newTestLogger()}
}

func (p *testPlugin) DataFolder() string      { return p.dir }
func (p *testPlugin) Logger() runtime.Logger { return p.logger }

// testRegistry is a small catalog with one material per stacking class.
func testRegistry(t *testing.T) *ItemCatalog {
	c, err := NewItemCatalog([]*Material{
		{Name: "STONE", ID: 1, MaxStackSize: 64},
		{Name: "DIRT", ID: 3, MaxStackSize: 64},
		{Name: "WOOL", ID: 35, MaxStackSize: 64},
		{Name: "IRON_INGOT", ID: 265, MaxStackSize: 64},
		{Name: "DIAMOND_SWORD", ID: 276, MaxStackSize: 1},
		{Name: "SNOW_BALL", ID: 332, MaxStackSize: 16},
		{Name: "EGG", ID: 344, MaxStackSize: 16},
	})
	require.NoError(t, err)
	return c
}

func mustMaterial(t *testing.T, r ItemRegistry, name string) *Material {
	m, ok := r.MaterialByName(name)
	require.True(t, ok, name)
	return m
}

// fillInventory returns an inventory whose slots are all full stone stacks except free slots.
func fillInventory(t *testing.T, r ItemRegistry, free int) *SlotInventory {
	inv := NewSlotInventory(DefaultInventorySize)
	stone := mustMaterial(t, r, "STONE")
	for i := 0; i < len(inv.Slots)-free; i++ {
		inv.Slots[i] = &ItemStack{Material: stone, Amount: 64}
	}
	return inv
}

type fakeInventory struct {
	slots        *SlotInventory
	contentsErr  error
	addErr       error
	dropLeftover bool
	addCalls     int
	updates      int
}

func (i *fakeInventory) Contents(ctx context.Context) ([]*ItemStack, error) {
	if i.contentsErr != nil {
		return nil, i.contentsErr
	}
	return i.slots.Snapshot(), nil
}

func (i *fakeInventory) AddItem(ctx context.Context, stack *ItemStack) (map[int]*ItemStack, error) {
	i.addCalls++
	if i.addErr != nil {
		return nil, i.addErr
	}
	if i.dropLeftover {
		return map[int]*ItemStack{0: {Material: stack.Material, Amount: 1, Data: stack.Data}}, nil
	}
	if left := i.slots.Add(stack); left != nil {
		return map[int]*ItemStack{0: left}, nil
	}
	return map[int]*ItemStack{}, nil
}

func (i *fakeInventory) UpdateInventory(ctx context.Context) error {
	i.updates++
	return nil
}

type fakePlayer struct {
	name      string
	id        string
	online    bool
	inventory *fakeInventory
	messages  []string
	panics    bool
}

func newFakePlayer(name string, inv *SlotInventory) *fakePlayer {
	return &fakePlayer{
		name:      name,
		id:        "id-" + strings.ToLower(name),
		online:    true,
		inventory: &fakeInventory{slots: inv},
	}
}

func (p *fakePlayer) Name() string     { return p.name }
func (p *fakePlayer) UniqueID() string { return p.id }
func (p *fakePlayer) IsOnline() bool   { return p.online }

func (p *fakePlayer) Inventory() Inventory {
	if p.panics {
		panic("inventory unavailable")
	}
	return p.inventory
}

func (p *fakePlayer) SendMessage(ctx context.Context, message string) error {
	p.messages = append(p.messages, message)
	return nil
}

type fakeHost struct {
	players map[string]*fakePlayer
	err     error
}

func newFakeHost(players ...*fakePlayer) *fakeHost {
	h := &fakeHost{players: make(map[string]*fakePlayer)}
	for _, p := range players {
		h.players[strings.ToLower(p.name)] = p
	}
	return h
}

func (h *fakeHost) Player(ctx context.Context, name string) (Player, error) {
	if h.err != nil {
		return nil, h.err
	}
	p, ok := h.players[strings.ToLower(name)]
	if !ok {
		return nil, nil
	}
	return p, nil
}

type fakeAuth struct {
	denied map[string]bool
}

func (a *fakeAuth) IsAuthenticated(ctx context.Context, player Player) bool {
	return !a.denied[player.Name()]
}

type fakeLanguages map[string]string

func (l fakeLanguages) PlayerLanguage(ctx context.Context, player Player) string {
	return l[player.Name()]
}

type fakeScheduler struct {
	period    time.Duration
	task      func()
	cancelled int
	err       error
}

func (s *fakeScheduler) ScheduleRepeating(period time.Duration, task func()) error {
	if s.err != nil {
		return s.err
	}
	s.period = period
	s.task = task
	return nil
}

func (s *fakeScheduler) CancelAll() {
	s.cancelled++
	s.task = nil
}

type recordingPublisher struct {
	events []*DeliveryEvent
}

func (p *recordingPublisher) Send(ctx context.Context, logger runtime.Logger, events []*DeliveryEvent) {
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) names() []string {
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Name)
	}
	return names
}

var errTest = errors.New("test failure")
