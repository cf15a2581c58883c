package entities

import (
	"errors"
	"time"
)

// ErrNegativeBalance is returned when a ledger would hold fewer than zero points
var ErrNegativeBalance = errors.New("ledger balance cannot be negative")

// PlayerLedger is the persisted point state of one player
type PlayerLedger struct {
	PlayerID        string    // Stable player/account identifier
	Balance         int64     // Spendable points, never negative
	LastAccrualTime time.Time // When points were last computed
}

// NewPlayerLedger creates the default ledger for a player seen for the first time
func NewPlayerLedger(playerID string, now time.Time) *PlayerLedger {
	return &PlayerLedger{
		PlayerID:        playerID,
		Balance:         0,
		LastAccrualTime: now,
	}
}

// Validate checks the ledger invariants
func (l *PlayerLedger) Validate() error {
	if l.Balance < 0 {
		return ErrNegativeBalance
	}
	return nil
}

// CanAfford reports whether the balance covers cost
func (l *PlayerLedger) CanAfford(cost int64) bool {
	return l.Balance >= cost
}
