// Package grant talks to the game host that actually hands rewards to players
package grant

import (
	"context"

	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// Granter delivers rewards to an online player. Implementations must honor
// ctx cancellation so a stuck host cannot block a purchase indefinitely.
//
//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_grant
type Granter interface {
	GrantItem(ctx context.Context, playerID string, itemID, quantity int) error
	ReadStat(ctx context.Context, playerID string, kind entities.StatKind) (int, error)
	SetStat(ctx context.Context, playerID string, kind entities.StatKind, value int) error
}
