// Package accrual converts elapsed playtime into points.
//
// Accrue is pure: it never touches storage, and callers persist the returned
// ledger only when it reports a change.
package accrual

import (
	"time"

	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/shopspring/decimal"
)

// Earned returns floor(elapsed * pointsPerPeriod / periodLength) for a
// non-negative elapsed duration. Invalid rates earn nothing.
func Earned(elapsed time.Duration, rate entities.RewardRate) int64 {
	if elapsed <= 0 || rate.Validate() != nil {
		return 0
	}

	numerator := decimal.NewFromInt(int64(elapsed)).Mul(rate.PointsPerPeriod)
	period := decimal.NewFromInt(int64(rate.PeriodLength))

	quotient, _ := numerator.QuoRem(period, 0)
	return quotient.IntPart()
}

// Accrue credits the points earned between ledger.LastAccrualTime and now.
//
// Below rate.MinAccrualInterval the ledger is returned unchanged so that
// repeated queries do not churn the timestamp. When now is before the last
// accrual (clock rolled back) no points are granted and the timestamp moves to
// now, so rolling the clock back and forth again cannot mint points.
//
// The second return value reports whether the ledger changed.
func Accrue(ledger entities.PlayerLedger, now time.Time, rate entities.RewardRate) (entities.PlayerLedger, bool) {
	if now.Before(ledger.LastAccrualTime) {
		ledger.LastAccrualTime = now
		return ledger, true
	}

	elapsed := now.Sub(ledger.LastAccrualTime)
	if elapsed < rate.MinAccrualInterval() || rate.Validate() != nil {
		return ledger, false
	}

	ledger.Balance += Earned(elapsed, rate)
	ledger.LastAccrualTime = now
	return ledger, true
}
