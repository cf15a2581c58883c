package ledger

import (
	"context"
	"errors"

	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// ErrLedgerNotFound is returned when a player has no usable ledger record
var ErrLedgerNotFound = errors.New("ledger not found")

// Repository defines the interface for ledger persistence
type Repository interface {
	// GetLedger retrieves a ledger by player ID. Absent and unreadable records
	// both return ErrLedgerNotFound.
	GetLedger(ctx context.Context, playerID string) (*entities.PlayerLedger, error)

	// SaveLedger creates or replaces a ledger
	SaveLedger(ctx context.Context, ledger *entities.PlayerLedger) error

	// ListPlayerIDs returns the IDs of every stored ledger
	ListPlayerIDs(ctx context.Context) ([]string, error)

	// Close releases any underlying resources
	Close() error
}
