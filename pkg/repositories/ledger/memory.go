package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	ledgers map[string]*entities.PlayerLedger
	mu      sync.RWMutex
}

// NewMemoryRepository creates a new in-memory ledger repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		ledgers: make(map[string]*entities.PlayerLedger),
	}
}

// GetLedger retrieves a ledger by player ID
func (r *MemoryRepository) GetLedger(ctx context.Context, playerID string) (*entities.PlayerLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ledger, exists := r.ledgers[playerID]
	if !exists {
		return nil, ErrLedgerNotFound
	}

	// Return a copy to prevent concurrent modification
	ledgerCopy := *ledger
	return &ledgerCopy, nil
}

// SaveLedger creates or replaces a ledger
func (r *MemoryRepository) SaveLedger(ctx context.Context, ledger *entities.PlayerLedger) error {
	if err := ledger.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ledgerCopy := *ledger
	r.ledgers[ledger.PlayerID] = &ledgerCopy

	return nil
}

// ListPlayerIDs returns the stored player IDs in sorted order
func (r *MemoryRepository) ListPlayerIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.ledgers))
	for id := range r.ledgers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// Close is a no-op for the memory repository
func (r *MemoryRepository) Close() error {
	return nil
}
