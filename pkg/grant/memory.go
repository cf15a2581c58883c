package grant

import (
	"context"
	"errors"
	"sync"

	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// ErrHostUnavailable is returned by MemoryHost while a failure is injected
var ErrHostUnavailable = errors.New("game host unavailable")

// MemoryHost is an in-process game host. It backs the service when no
// remote host is configured and doubles as a fake in tests.
type MemoryHost struct {
	mu          sync.RWMutex
	inventories map[string]map[int]int
	stats       map[string]map[entities.StatKind]int
	failure     error
	grants      int
}

// NewMemoryHost creates an empty host
func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		inventories: make(map[string]map[int]int),
		stats:       make(map[string]map[entities.StatKind]int),
	}
}

// FailWith makes every following call return err until cleared with nil
func (h *MemoryHost) FailWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failure = err
}

// GrantItem implements Granter
func (h *MemoryHost) GrantItem(ctx context.Context, playerID string, itemID, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failure != nil {
		return h.failure
	}

	inv, ok := h.inventories[playerID]
	if !ok {
		inv = make(map[int]int)
		h.inventories[playerID] = inv
	}
	inv[itemID] += quantity
	h.grants++
	return nil
}

// ReadStat implements Granter
func (h *MemoryHost) ReadStat(ctx context.Context, playerID string, kind entities.StatKind) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.failure != nil {
		return 0, h.failure
	}
	return h.stats[playerID][kind], nil
}

// SetStat implements Granter
func (h *MemoryHost) SetStat(ctx context.Context, playerID string, kind entities.StatKind, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failure != nil {
		return h.failure
	}

	stats, ok := h.stats[playerID]
	if !ok {
		stats = make(map[entities.StatKind]int)
		h.stats[playerID] = stats
	}
	stats[kind] = value
	h.grants++
	return nil
}

// Item returns how many units of itemID the player holds
func (h *MemoryHost) Item(playerID string, itemID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.inventories[playerID][itemID]
}

// Stat returns the player's current value for kind
func (h *MemoryHost) Stat(playerID string, kind entities.StatKind) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats[playerID][kind]
}

// Grants returns how many item or stat grants succeeded
func (h *MemoryHost) Grants() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.grants
}
