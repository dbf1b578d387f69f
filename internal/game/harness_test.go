package game

import (
	"context"
	"sync"
	"time"
)

// testRates mirrors the shipped config/combat_rates.json.
func testRates() *CombatRates {
	return &CombatRates{
		Attack:       map[string]float64{"force": 5, "money": 1, "influence": 2, "information": 2},
		Defense:      map[string]float64{"force": 4, "money": 1, "influence": 2, "information": 3},
		OnPointBonus: 20,
	}
}

type sentNotification struct {
	UserID int64
	Title  string
	Body   string
}

// captureNotifier records notifications for assertions.
type captureNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (c *captureNotifier) Notify(_ context.Context, userID int64, title, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentNotification{UserID: userID, Title: title, Body: body})
}

func (c *captureNotifier) forUser(userID int64) []sentNotification {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []sentNotification
	for _, n := range c.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// captureNewsSink records news entries for assertions.
type captureNewsSink struct {
	mu      sync.Mutex
	entries []NewsEntry
}

func (c *captureNewsSink) Record(_ context.Context, entry NewsEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *captureNewsSink) all() []NewsEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]NewsEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// testEnv bundles an engine over a fresh MemoryStore with capturing
// collaborators.
type testEnv struct {
	store    *MemoryStore
	engine   *Engine
	notifier *captureNotifier
	news     *captureNewsSink
}

func newTestEnv(opts Options) *testEnv {
	store := NewMemoryStore()
	notifier := &captureNotifier{}
	news := &captureNewsSink{}
	return &testEnv{
		store:    store,
		engine:   NewEngine(store, notifier, news, testRates(), opts, nil),
		notifier: notifier,
		news:     news,
	}
}

func (env *testEnv) user(name string) *User {
	return env.store.PutUser(&User{Username: name, MaxAvailableActions: 5})
}

func (env *testEnv) district(name string, ownerID int64) *District {
	return env.store.PutDistrict(&District{
		Name:               name,
		OwnerID:            ownerID,
		ResourceMultiplier: 1.0,
	})
}

// pendingAction inserts a PENDING action with an explicit creation time
// so ordering-sensitive tests stay deterministic.
func (env *testEnv) pendingAction(a *Action, createdAt time.Time) *Action {
	a.Status = StatusPending
	a.CreatedAt = createdAt
	return env.store.PutAction(a)
}
