package shop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fadedpez/playtimeshop/internal/metrics"
	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/clock"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	mock_grant "github.com/fadedpez/playtimeshop/pkg/grant/mock"
	ledgerRepo "github.com/fadedpez/playtimeshop/pkg/repositories/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var (
	start       = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	defaultRate = entities.NewRewardRate(10, 5*time.Minute)
	errDiskFull = errors.New("disk full")
)

// flakyRepository fails the save calls listed in failOn (1-based) and
// every read while getErr is set
type flakyRepository struct {
	*ledgerRepo.MemoryRepository
	mu     sync.Mutex
	saves  int
	failOn map[int]bool
	getErr error
}

func (r *flakyRepository) GetLedger(ctx context.Context, playerID string) (*entities.PlayerLedger, error) {
	r.mu.Lock()
	err := r.getErr
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return r.MemoryRepository.GetLedger(ctx, playerID)
}

func (r *flakyRepository) SaveLedger(ctx context.Context, ledger *entities.PlayerLedger) error {
	r.mu.Lock()
	r.saves++
	fail := r.failOn[r.saves]
	r.mu.Unlock()

	if fail {
		return errDiskFull
	}
	return r.MemoryRepository.SaveLedger(ctx, ledger)
}

type ServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	ctrl    *gomock.Controller
	granter *mock_grant.MockGranter
	repo    *flakyRepository
	clock   *clock.Fake
	metrics *metrics.Metrics
	service *Service
	neo     entities.Offer
	life    entities.Offer
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.granter = mock_grant.NewMockGranter(s.ctrl)
	s.repo = &flakyRepository{
		MemoryRepository: ledgerRepo.NewMemoryRepository(),
		failOn:           make(map[int]bool),
	}
	s.clock = clock.NewFake(start)
	s.metrics = metrics.New(prometheus.NewRegistry())

	service, err := NewService(Options{
		Repository:   s.repo,
		Catalog:      catalog.Default(),
		Rate:         defaultRate,
		Granter:      s.granter,
		Clock:        s.clock,
		Matcher:      catalog.PrefixMatch,
		GrantTimeout: 50 * time.Millisecond,
		Metrics:      s.metrics,
	})
	s.Require().NoError(err)
	s.service = service

	var ok bool
	s.neo, ok = service.Catalog().FindByName("neo", catalog.ExactMatch)
	s.Require().True(ok)
	s.life, ok = service.Catalog().FindByName("life", catalog.ExactMatch)
	s.Require().True(ok)
}

// store saves a ledger without counting as a service save
func (s *ServiceTestSuite) store(balance int64, at time.Time) {
	ledger := &entities.PlayerLedger{PlayerID: "player-1", Balance: balance, LastAccrualTime: at}
	s.Require().NoError(s.repo.MemoryRepository.SaveLedger(s.ctx, ledger))
}

// seed stores a ledger for a player whose session started at at
func (s *ServiceTestSuite) seed(balance int64, at time.Time) {
	s.store(balance, at)
	s.service.setOnline("player-1", at)
}

func (s *ServiceTestSuite) stored() *entities.PlayerLedger {
	ledger, err := s.repo.MemoryRepository.GetLedger(s.ctx, "player-1")
	s.Require().NoError(err)
	return ledger
}

func (s *ServiceTestSuite) TestNewServiceValidatesOptions() {
	_, err := NewService(Options{Catalog: catalog.Default(), Rate: defaultRate, Granter: s.granter})
	s.True(types.IsShopError(err, types.ErrInvalidArgument))

	_, err = NewService(Options{
		Repository: s.repo,
		Catalog:    catalog.Default(),
		Rate:       entities.NewRewardRate(0, time.Minute),
		Granter:    s.granter,
	})
	s.True(types.IsShopError(err, types.ErrInvalidConfig))
}

func (s *ServiceTestSuite) TestPurchaseInsufficientBalance() {
	// Setup
	s.seed(99, start)

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeInsufficientBalance, result.Outcome)
	s.Equal(int64(100), result.Required)
	s.Equal(int64(99), result.Available)
	s.Equal(int64(99), s.stored().Balance)
	s.NotEmpty(result.AttemptID)
}

func (s *ServiceTestSuite) TestPurchaseGranted() {
	// Setup
	s.seed(150, start)
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).Return(nil)

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeGranted, result.Outcome)
	s.Equal(int64(50), result.Balance)
	s.Equal(int64(50), s.stored().Balance)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Purchases.WithLabelValues("GRANTED")))
	s.Equal(float64(100), testutil.ToFloat64(s.metrics.PointsSpent))
}

func (s *ServiceTestSuite) TestPurchaseGrantFailureKeepsPoints() {
	// Setup
	s.seed(150, start)
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).Return(errors.New("player not found"))

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeGrantFailed, result.Outcome)
	s.Equal("player not found", result.Reason)
	s.Equal(int64(150), result.Balance)
	s.Equal(int64(150), s.stored().Balance)
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.PointsSpent))
}

func (s *ServiceTestSuite) TestPurchaseAccruesBeforeBalanceCheck() {
	// Setup: 95 points plus 150s of play (5 points) affords the 100 point offer
	s.seed(95, start)
	s.clock.Advance(150 * time.Second)
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).Return(nil)

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeGranted, result.Outcome)
	stored := s.stored()
	s.Equal(int64(0), stored.Balance)
	s.Equal(start.Add(150*time.Second), stored.LastAccrualTime)
}

func (s *ServiceTestSuite) TestGrantFailurePersistsAccrual() {
	// Setup
	s.seed(150, start)
	s.clock.Advance(time.Minute)
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).Return(errors.New("host down"))

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeGrantFailed, result.Outcome)
	stored := s.stored()
	s.Equal(int64(152), stored.Balance, "accrual survives the rollback")
	s.Equal(start.Add(time.Minute), stored.LastAccrualTime)
}

func (s *ServiceTestSuite) TestStatOfferGranted() {
	// Setup
	s.seed(100, start)
	gomock.InOrder(
		s.granter.EXPECT().ReadStat(gomock.Any(), "player-1", entities.StatHealth).Return(1500, nil),
		s.granter.EXPECT().SetStat(gomock.Any(), "player-1", entities.StatHealth, 1600).Return(nil),
	)

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.life)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeGranted, result.Outcome)
	s.Equal(int64(0), s.stored().Balance)
}

func (s *ServiceTestSuite) TestStatAtMaximumNeverWrites() {
	// Setup: SetStat has no expectation, so any call fails the test
	s.seed(100, start)
	s.granter.EXPECT().ReadStat(gomock.Any(), "player-1", entities.StatHealth).Return(1950, nil)

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.life)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeStatAtMaximum, result.Outcome)
	s.Equal(2000, result.Cap)
	s.Equal(int64(100), s.stored().Balance)
}

func (s *ServiceTestSuite) TestStatExactlyAtCapIsAllowed() {
	s.seed(100, start)
	s.granter.EXPECT().ReadStat(gomock.Any(), "player-1", entities.StatHealth).Return(1900, nil)
	s.granter.EXPECT().SetStat(gomock.Any(), "player-1", entities.StatHealth, 2000).Return(nil)

	result, err := s.service.Purchase(s.ctx, "player-1", s.life)

	s.Require().NoError(err)
	s.Equal(entities.OutcomeGranted, result.Outcome)
}

func (s *ServiceTestSuite) TestStatReadFailureIsGrantFailed() {
	s.seed(100, start)
	s.granter.EXPECT().ReadStat(gomock.Any(), "player-1", entities.StatHealth).Return(0, errors.New("no character"))

	result, err := s.service.Purchase(s.ctx, "player-1", s.life)

	s.Require().NoError(err)
	s.Equal(entities.OutcomeGrantFailed, result.Outcome)
	s.Contains(result.Reason, "no character")
	s.Equal(int64(100), s.stored().Balance)
}

func (s *ServiceTestSuite) TestGrantTimeoutIsGrantFailed() {
	// Setup
	s.seed(150, start)
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).DoAndReturn(
		func(ctx context.Context, _ string, _, _ int) error {
			<-ctx.Done()
			return ctx.Err()
		})

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.OutcomeGrantFailed, result.Outcome)
	s.Equal("timed out waiting for the game host", result.Reason)
	s.Equal(int64(150), s.stored().Balance)
}

func (s *ServiceTestSuite) TestGrantPanicIsGrantFailed() {
	s.seed(150, start)
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).DoAndReturn(
		func(context.Context, string, int, int) error {
			panic("host binding crashed")
		})

	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	s.Require().NoError(err)
	s.Equal(entities.OutcomeGrantFailed, result.Outcome)
	s.Contains(result.Reason, "host binding crashed")
	s.Equal(int64(150), s.stored().Balance)
}

func (s *ServiceTestSuite) TestUnwritableStoreAbortsBeforeGrant() {
	// Setup: the accrual save fails, GrantItem has no expectation
	s.seed(150, start)
	s.clock.Advance(time.Minute)
	s.repo.failOn[1] = true

	// Execute
	_, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.True(types.IsShopError(err, types.ErrPersistenceFailure), "got %v", err)
	s.ErrorIs(err, errDiskFull)
	stored := s.stored()
	s.Equal(int64(150), stored.Balance)
	s.Equal(start, stored.LastAccrualTime, "previous record must be intact")
}

func (s *ServiceTestSuite) TestDebitSaveFailureAfterGrant() {
	// Setup: no accrual change, so the first save is the debit
	s.seed(150, start)
	s.repo.failOn[1] = true
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).Return(nil)

	// Execute
	result, err := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	s.True(types.IsShopError(err, types.ErrPersistenceFailure))
	s.Equal(entities.OutcomeGranted, result.Outcome, "the reward was handed out")
	s.NotEmpty(result.AttemptID)
}

func (s *ServiceTestSuite) TestPurchaseRejectsBadInput() {
	_, err := s.service.Purchase(s.ctx, "", s.neo)
	s.True(types.IsShopError(err, types.ErrInvalidArgument))

	_, err = s.service.Purchase(s.ctx, "player-1", entities.Offer{Name: "broken"})
	s.True(types.IsShopError(err, types.ErrInvalidArgument))
}

func (s *ServiceTestSuite) TestBuyMatchesByPrefix() {
	// Setup
	s.seed(150, start)
	s.granter.EXPECT().GrantItem(gomock.Any(), "player-1", 4300, 100).Return(nil)

	// Execute
	result, err := s.service.Buy(s.ctx, "player-1", "Neodymium")

	// Assert
	s.Require().NoError(err)
	s.Equal("neo", result.Offer)
	s.Equal(entities.OutcomeGranted, result.Outcome)
}

func (s *ServiceTestSuite) TestBuyUnknownOffer() {
	s.seed(150, start)

	_, err := s.service.Buy(s.ctx, "player-1", "gold")
	s.True(types.IsShopError(err, types.ErrOfferNotFound))

	_, err = s.service.Buy(s.ctx, "player-1", "  ")
	s.True(types.IsShopError(err, types.ErrInvalidArgument))

	s.Equal(int64(150), s.stored().Balance)
}

func (s *ServiceTestSuite) TestConnectCreatesLedger() {
	// Execute
	err := s.service.OnConnect(s.ctx, "player-1")

	// Assert
	s.Require().NoError(err)
	stored := s.stored()
	s.Equal(int64(0), stored.Balance)
	s.Equal(start, stored.LastAccrualTime)
}

func (s *ServiceTestSuite) TestShowPointsForUnknownPlayerWritesNothing() {
	// Execute
	before, err := s.service.ShowPoints(s.ctx, "player-1")
	s.Require().NoError(err)
	s.clock.Advance(7 * 24 * time.Hour)
	points, err := s.service.ShowPoints(s.ctx, "player-1")

	// Assert
	s.Require().NoError(err)
	s.Equal(int64(0), before)
	s.Equal(int64(0), points)
	s.Equal(0, s.repo.saves)
	_, err = s.repo.MemoryRepository.GetLedger(s.ctx, "player-1")
	s.ErrorIs(err, ledgerRepo.ErrLedgerNotFound)
}

func (s *ServiceTestSuite) TestOfflineTimeIsNeverCredited() {
	// Setup: a week passes without the player ever connecting
	s.store(3, start)
	s.clock.Advance(7 * 24 * time.Hour)

	// Execute
	points, err := s.service.ShowPoints(s.ctx, "player-1")
	s.Require().NoError(err)
	balance, disconnectErr := s.service.OnDisconnect(s.ctx, "player-1")

	// Assert
	s.Require().NoError(disconnectErr)
	s.Equal(int64(3), points)
	s.Equal(int64(3), balance)
	s.Equal(0, s.repo.saves)
	s.Equal(start, s.stored().LastAccrualTime)
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.PointsAccrued))
}

func (s *ServiceTestSuite) TestPurchaseRequiresSession() {
	// Setup: GrantItem has no expectation, so any grant fails the test
	s.store(500, start)
	s.clock.Advance(time.Hour)

	// Execute
	result, err := s.service.Buy(s.ctx, "player-1", "neo")

	// Assert
	s.True(types.IsShopError(err, types.ErrPlayerOffline), "got %v", err)
	s.Empty(result.AttemptID)
	s.Equal(int64(500), s.stored().Balance)
	s.Equal(0, s.repo.saves)
}

func (s *ServiceTestSuite) TestUnreadableLedgerIsNeverReplaced() {
	// Setup
	s.seed(150, start)
	s.clock.Advance(time.Hour)
	s.repo.getErr = errDiskFull

	// Execute
	_, pointsErr := s.service.ShowPoints(s.ctx, "player-1")
	connectErr := s.service.OnConnect(s.ctx, "player-1")
	_, purchaseErr := s.service.Purchase(s.ctx, "player-1", s.neo)

	// Assert
	for _, err := range []error{pointsErr, connectErr, purchaseErr} {
		s.True(types.IsShopError(err, types.ErrPersistenceFailure), "got %v", err)
		s.ErrorIs(err, errDiskFull)
	}
	s.Equal(0, s.repo.saves)
	stored := s.stored()
	s.Equal(int64(150), stored.Balance)
	s.Equal(start, stored.LastAccrualTime)
}

func (s *ServiceTestSuite) TestShowPointsAccrues() {
	s.seed(3, start)
	s.clock.Advance(150 * time.Second)

	points, err := s.service.ShowPoints(s.ctx, "player-1")

	s.Require().NoError(err)
	s.Equal(int64(8), points)
	s.Equal(int64(8), s.stored().Balance)
	s.Equal(float64(5), testutil.ToFloat64(s.metrics.PointsAccrued))
}

func (s *ServiceTestSuite) TestShowPointsBelowMinimumIntervalDoesNotWrite() {
	s.seed(3, start)
	s.clock.Advance(10 * time.Second)

	points, err := s.service.ShowPoints(s.ctx, "player-1")

	s.Require().NoError(err)
	s.Equal(int64(3), points)
	s.Equal(0, s.repo.saves)
}

func (s *ServiceTestSuite) TestConnectSkipsOfflineTime() {
	// Setup
	s.store(10, start)
	s.clock.Advance(time.Hour)

	// Execute
	err := s.service.OnConnect(s.ctx, "player-1")

	// Assert
	s.Require().NoError(err)
	stored := s.stored()
	s.Equal(int64(10), stored.Balance, "offline hour is not playtime")
	s.Equal(start.Add(time.Hour), stored.LastAccrualTime)
	s.Equal([]string{"player-1"}, s.service.OnlinePlayers())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.OnlinePlayers))
}

func (s *ServiceTestSuite) TestSessionRoundTrip() {
	// Setup
	s.Require().NoError(s.service.OnConnect(s.ctx, "player-1"))
	s.clock.Advance(150 * time.Second)

	// Execute
	balance, err := s.service.OnDisconnect(s.ctx, "player-1")

	// Assert
	s.Require().NoError(err)
	s.Equal(int64(5), balance)
	s.Empty(s.service.OnlinePlayers())
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.OnlinePlayers))
}

func (s *ServiceTestSuite) TestRepeatedConnectCreditsSession() {
	s.Require().NoError(s.service.OnConnect(s.ctx, "player-1"))
	s.clock.Advance(5 * time.Minute)

	s.Require().NoError(s.service.OnConnect(s.ctx, "player-1"))

	s.Equal(int64(10), s.stored().Balance)
}

func (s *ServiceTestSuite) TestCheckpointOnlyTouchesOnlinePlayers() {
	// Setup
	s.Require().NoError(s.service.OnConnect(s.ctx, "player-1"))
	offline := &entities.PlayerLedger{PlayerID: "player-2", Balance: 7, LastAccrualTime: start}
	s.Require().NoError(s.repo.MemoryRepository.SaveLedger(s.ctx, offline))
	s.clock.Advance(time.Hour)

	// Execute
	updated, err := s.service.Checkpoint(s.ctx)

	// Assert
	s.Require().NoError(err)
	s.Equal(1, updated)
	s.Equal(int64(120), s.stored().Balance)
	other, err := s.repo.GetLedger(s.ctx, "player-2")
	s.Require().NoError(err)
	s.Equal(int64(7), other.Balance)
}

func (s *ServiceTestSuite) TestCheckpointReportsFailures() {
	s.Require().NoError(s.service.OnConnect(s.ctx, "player-1"))
	s.clock.Advance(time.Hour)
	s.repo.failOn[2] = true

	updated, err := s.service.Checkpoint(s.ctx)

	s.Equal(0, updated)
	s.ErrorIs(err, errDiskFull)
}

func (s *ServiceTestSuite) TestDisconnectAllCreditsEveryone() {
	// Setup
	s.Require().NoError(s.service.OnConnect(s.ctx, "player-1"))
	s.Require().NoError(s.service.OnConnect(s.ctx, "player-2"))
	s.clock.Advance(30 * time.Minute)

	// Execute
	err := s.service.DisconnectAll(s.ctx)

	// Assert
	s.Require().NoError(err)
	s.Empty(s.service.OnlinePlayers())
	s.Equal(int64(60), s.stored().Balance)
	other, err := s.repo.GetLedger(s.ctx, "player-2")
	s.Require().NoError(err)
	s.Equal(int64(60), other.Balance)
}

func (s *ServiceTestSuite) TestLocksAreReleased() {
	s.seed(99, start)

	_, err := s.service.Purchase(s.ctx, "player-1", s.neo)
	s.Require().NoError(err)
	_, err = s.service.ShowPoints(s.ctx, "player-1")
	s.Require().NoError(err)

	s.Equal(0, s.service.locks.size())
}
