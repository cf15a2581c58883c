package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositivePoints = errors.New("points per period must be positive")
	ErrNonPositivePeriod = errors.New("period length must be positive")
)

// RewardRate defines how many points a player earns per period of playtime.
// It is immutable after load and shared read-only.
type RewardRate struct {
	PointsPerPeriod decimal.Decimal
	PeriodLength    time.Duration
}

// NewRewardRate creates a rate of points per period
func NewRewardRate(points int64, period time.Duration) RewardRate {
	return RewardRate{
		PointsPerPeriod: decimal.NewFromInt(points),
		PeriodLength:    period,
	}
}

// Validate checks that both parts of the rate are positive
func (r RewardRate) Validate() error {
	if !r.PointsPerPeriod.IsPositive() {
		return ErrNonPositivePoints
	}
	if r.PeriodLength <= 0 {
		return ErrNonPositivePeriod
	}
	return nil
}

// MinAccrualInterval is the shortest elapsed time that earns at least one whole point.
// Rounded up to the nanosecond so that reaching it always yields a point.
func (r RewardRate) MinAccrualInterval() time.Duration {
	if r.Validate() != nil {
		return 0
	}
	period := decimal.NewFromInt(int64(r.PeriodLength))
	return time.Duration(period.Div(r.PointsPerPeriod).Ceil().IntPart())
}

// String renders the rate for help texts and logs
func (r RewardRate) String() string {
	return fmt.Sprintf("%s points every %s", r.PointsPerPeriod.String(), r.PeriodLength)
}
