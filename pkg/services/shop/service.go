// Package shop turns playtime into points and points into rewards.
//
// Every public method serializes on the player it touches, so a purchase's
// grant call can never interleave with another ledger update for the same
// player.
package shop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fadedpez/playtimeshop/internal/logging"
	"github.com/fadedpez/playtimeshop/internal/metrics"
	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/accrual"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/clock"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/fadedpez/playtimeshop/pkg/grant"
	ledgerRepo "github.com/fadedpez/playtimeshop/pkg/repositories/ledger"
	"github.com/google/uuid"
)

// DefaultGrantTimeout bounds a single grant when Options leaves it unset
const DefaultGrantTimeout = 10 * time.Second

// Options configures a Service
type Options struct {
	Repository   ledgerRepo.Repository
	Catalog      *catalog.Catalog
	Rate         entities.RewardRate
	Granter      grant.Granter
	Clock        clock.Clock     // Defaults to clock.System
	Matcher      catalog.Matcher // Defaults to catalog.PrefixMatch
	GrantTimeout time.Duration   // Defaults to DefaultGrantTimeout
	Logger       *logging.Logger
	Metrics      *metrics.Metrics // Optional
}

// Service is the shop's transaction engine and public surface
type Service struct {
	repo         ledgerRepo.Repository
	catalog      *catalog.Catalog
	rate         entities.RewardRate
	granter      grant.Granter
	clock        clock.Clock
	matcher      catalog.Matcher
	grantTimeout time.Duration
	logger       *logging.Logger
	metrics      *metrics.Metrics

	locks *playerLocks

	onlineMu sync.RWMutex
	online   map[string]time.Time // player ID -> connected at
}

// NewService creates a new shop service
func NewService(opts Options) (*Service, error) {
	if opts.Repository == nil {
		return nil, types.NewShopError(types.ErrInvalidArgument, "ledger repository is required")
	}
	if opts.Catalog == nil {
		return nil, types.NewShopError(types.ErrInvalidArgument, "catalog is required")
	}
	if opts.Granter == nil {
		return nil, types.NewShopError(types.ErrInvalidArgument, "granter is required")
	}
	if err := opts.Rate.Validate(); err != nil {
		return nil, types.WrapError(types.ErrInvalidConfig, "invalid reward rate", err)
	}

	s := &Service{
		repo:         opts.Repository,
		catalog:      opts.Catalog,
		rate:         opts.Rate,
		granter:      opts.Granter,
		clock:        opts.Clock,
		matcher:      opts.Matcher,
		grantTimeout: opts.GrantTimeout,
		logger:       logging.OrDefault(opts.Logger),
		metrics:      opts.Metrics,
		locks:        newPlayerLocks(),
		online:       make(map[string]time.Time),
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.matcher == nil {
		s.matcher = catalog.PrefixMatch
	}
	if s.grantTimeout <= 0 {
		s.grantTimeout = DefaultGrantTimeout
	}

	return s, nil
}

// Catalog returns the offers players can buy
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Rate returns the accrual rate
func (s *Service) Rate() entities.RewardRate {
	return s.rate
}

// OnConnect starts a play session. Time spent offline is not playtime, so
// the ledger timestamp moves to now without accruing. A repeated connect
// first credits the time since the last accrual.
func (s *Service) OnConnect(ctx context.Context, playerID string) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	now := s.clock.Now()
	ledger, _, err := s.loadLedger(ctx, playerID, now)
	if err != nil {
		return err
	}

	if s.isOnline(playerID) {
		accrued, _ := s.accrue(*ledger, now)
		ledger = &accrued
	}
	ledger.LastAccrualTime = now

	if err := s.saveLedger(ctx, ledger); err != nil {
		return err
	}

	s.setOnline(playerID, now)
	s.logger.Info("[SHOP] Player %s connected with %d points", playerID, ledger.Balance)
	return nil
}

// OnDisconnect credits the session's playtime, ends the session and returns
// the balance. A player without an open session is credited nothing.
func (s *Service) OnDisconnect(ctx context.Context, playerID string) (int64, error) {
	if err := validatePlayerID(playerID); err != nil {
		return 0, err
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	ledger, err := s.refresh(ctx, playerID)
	if err != nil {
		return 0, err
	}

	s.setOffline(playerID)
	s.logger.Info("[SHOP] Player %s disconnected with %d points", playerID, ledger.Balance)
	return ledger.Balance, nil
}

// ShowPoints returns the balance, crediting the open session's playtime up to now
func (s *Service) ShowPoints(ctx context.Context, playerID string) (int64, error) {
	if err := validatePlayerID(playerID); err != nil {
		return 0, err
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	ledger, err := s.refresh(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return ledger.Balance, nil
}

// Buy resolves the offer the player typed and purchases it
func (s *Service) Buy(ctx context.Context, playerID, offerText string) (entities.PurchaseResult, error) {
	if strings.TrimSpace(offerText) == "" {
		return entities.PurchaseResult{}, types.NewShopError(types.ErrInvalidArgument, "offer name is required")
	}

	offer, ok := s.catalog.FindByName(offerText, s.matcher)
	if !ok {
		return entities.PurchaseResult{}, types.NewShopError(types.ErrOfferNotFound, fmt.Sprintf("no offer matches %q", offerText))
	}

	return s.Purchase(ctx, playerID, offer)
}

// Purchase runs one purchase attempt. Points are debited only after the
// reward was granted; on any refusal or grant failure the player keeps
// their accrued balance.
//
// The returned error is reserved for faults outside the purchase outcome:
// invalid input, a player without an open session, or a ledger that could
// not be persisted. When the debit cannot be saved after a successful grant,
// the Granted result is returned together with a PERSISTENCE_FAILURE error.
func (s *Service) Purchase(ctx context.Context, playerID string, offer entities.Offer) (entities.PurchaseResult, error) {
	if err := validatePlayerID(playerID); err != nil {
		return entities.PurchaseResult{}, err
	}
	if err := offer.Validate(); err != nil {
		return entities.PurchaseResult{}, types.WrapError(types.ErrInvalidArgument, "invalid offer", err)
	}

	unlock := s.locks.lock(playerID)
	defer unlock()

	if !s.isOnline(playerID) {
		return entities.PurchaseResult{}, types.NewShopError(types.ErrPlayerOffline,
			"join the game before buying rewards")
	}

	attemptID := uuid.NewString()

	// The accrued ledger is durable before anything is handed out
	ledger, err := s.refresh(ctx, playerID)
	if err != nil {
		return entities.PurchaseResult{}, err
	}

	if !ledger.CanAfford(offer.Cost) {
		result := entities.InsufficientBalance(offer.Name, offer.Cost, ledger.Balance)
		return s.finish(playerID, attemptID, result, 0), nil
	}

	atMax, grantErr := s.grant(ctx, playerID, offer)
	if atMax {
		result := entities.StatAtMaximum(offer.Name, offer.Stat.MaxStat, ledger.Balance)
		return s.finish(playerID, attemptID, result, 0), nil
	}
	if grantErr != nil {
		s.logger.Warn("[SHOP] Grant of %s to player %s failed (attempt %s): %v", offer.Name, playerID, attemptID, grantErr)
		result := entities.GrantFailed(offer.Name, grantFailureReason(grantErr), ledger.Balance)
		return s.finish(playerID, attemptID, result, 0), nil
	}

	ledger.Balance -= offer.Cost
	result := s.finish(playerID, attemptID, entities.Granted(offer.Name, ledger.Balance), offer.Cost)

	if err := s.saveLedger(ctx, ledger); err != nil {
		s.logger.Error("[SHOP] Granted %s to player %s but failed to save debit of %d points (attempt %s): %v",
			offer.Name, playerID, offer.Cost, attemptID, err)
		return result, err
	}

	return result, nil
}

// Checkpoint credits playtime for every connected player and returns how
// many ledgers changed
func (s *Service) Checkpoint(ctx context.Context) (int, error) {
	var updated int
	var errs []error

	for _, playerID := range s.OnlinePlayers() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		changed, err := s.checkpointPlayer(ctx, playerID)
		if err != nil {
			errs = append(errs, fmt.Errorf("player %s: %w", playerID, err))
			continue
		}
		if changed {
			updated++
		}
	}

	return updated, errors.Join(errs...)
}

func (s *Service) checkpointPlayer(ctx context.Context, playerID string) (bool, error) {
	unlock := s.locks.lock(playerID)
	defer unlock()

	// Disconnected while waiting for the lock
	if !s.isOnline(playerID) {
		return false, nil
	}

	now := s.clock.Now()
	ledger, isNew, err := s.loadLedger(ctx, playerID, now)
	if err != nil {
		return false, err
	}

	accrued, changed := s.accrue(*ledger, now)
	if !changed && !isNew {
		return false, nil
	}

	return true, s.saveLedger(ctx, &accrued)
}

// DisconnectAll ends every open session, crediting its playtime
func (s *Service) DisconnectAll(ctx context.Context) error {
	var errs []error
	for _, playerID := range s.OnlinePlayers() {
		if _, err := s.OnDisconnect(ctx, playerID); err != nil {
			errs = append(errs, fmt.Errorf("player %s: %w", playerID, err))
		}
	}
	return errors.Join(errs...)
}

// OnlinePlayers returns the connected player IDs in sorted order
func (s *Service) OnlinePlayers() []string {
	s.onlineMu.RLock()
	defer s.onlineMu.RUnlock()

	ids := make([]string, 0, len(s.online))
	for id := range s.online {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// refresh loads the ledger and, while the player is in a session, credits
// playtime and persists it if anything changed. A player without a session
// gets the stored balance and nothing is written.
// Callers must hold the player's lock.
func (s *Service) refresh(ctx context.Context, playerID string) (*entities.PlayerLedger, error) {
	now := s.clock.Now()
	ledger, isNew, err := s.loadLedger(ctx, playerID, now)
	if err != nil {
		return nil, err
	}

	if !s.isOnline(playerID) {
		return ledger, nil
	}

	accrued, changed := s.accrue(*ledger, now)
	if changed || isNew {
		if err := s.saveLedger(ctx, &accrued); err != nil {
			return nil, err
		}
	}

	return &accrued, nil
}

// loadLedger returns the stored ledger, or a fresh one for a player without a usable record
func (s *Service) loadLedger(ctx context.Context, playerID string, now time.Time) (*entities.PlayerLedger, bool, error) {
	ledger, err := s.repo.GetLedger(ctx, playerID)
	if err == nil {
		return ledger, false, nil
	}

	if errors.Is(err, ledgerRepo.ErrLedgerNotFound) {
		s.logger.Debug("[SHOP] Creating ledger for player %s", playerID)
		return entities.NewPlayerLedger(playerID, now), true, nil
	}

	var shopErr *types.ShopError
	if types.As(err, &shopErr) {
		return nil, false, err
	}
	return nil, false, types.WrapError(types.ErrPersistenceFailure, "failed to load ledger", err)
}

func (s *Service) saveLedger(ctx context.Context, ledger *entities.PlayerLedger) error {
	err := s.repo.SaveLedger(ctx, ledger)
	if err == nil {
		return nil
	}

	var shopErr *types.ShopError
	if types.As(err, &shopErr) {
		return err
	}
	return types.WrapError(types.ErrPersistenceFailure, "failed to save ledger", err)
}

func (s *Service) accrue(ledger entities.PlayerLedger, now time.Time) (entities.PlayerLedger, bool) {
	before := ledger.Balance
	accrued, changed := accrual.Accrue(ledger, now, s.rate)
	s.metrics.Accrued(accrued.Balance - before)
	return accrued, changed
}

// grant hands the offer's reward to the player within the grant timeout.
// atMax reports a stat offer refused by its cap, in which case nothing was written.
func (s *Service) grant(ctx context.Context, playerID string, offer entities.Offer) (atMax bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.grantTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			atMax = false
			err = fmt.Errorf("grant panicked: %v", r)
		}
		s.metrics.Grant(string(offer.Kind), time.Since(start))
	}()

	switch offer.Kind {
	case entities.OfferKindItem:
		return false, s.granter.GrantItem(ctx, playerID, offer.Item.ItemID, offer.Quantity)

	case entities.OfferKindStat:
		current, err := s.granter.ReadStat(ctx, playerID, offer.Stat.Kind)
		if err != nil {
			return false, fmt.Errorf("reading %s: %w", offer.Stat.Kind, err)
		}
		if current+offer.Quantity > offer.Stat.MaxStat {
			return true, nil
		}
		return false, s.granter.SetStat(ctx, playerID, offer.Stat.Kind, current+offer.Quantity)

	default:
		return false, fmt.Errorf("unknown offer kind %q", offer.Kind)
	}
}

// finish stamps, logs and counts a purchase result
func (s *Service) finish(playerID, attemptID string, result entities.PurchaseResult, spent int64) entities.PurchaseResult {
	result.AttemptID = attemptID
	s.metrics.Purchase(string(result.Outcome), spent)
	s.logger.Info("[SHOP] Purchase %s by player %s: %s", attemptID, playerID, result)
	return result
}

func grantFailureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out waiting for the game host"
	}
	return err.Error()
}

func validatePlayerID(playerID string) error {
	if strings.TrimSpace(playerID) == "" {
		return types.NewShopError(types.ErrInvalidArgument, "player id is required")
	}
	return nil
}

func (s *Service) isOnline(playerID string) bool {
	s.onlineMu.RLock()
	defer s.onlineMu.RUnlock()
	_, ok := s.online[playerID]
	return ok
}

func (s *Service) setOnline(playerID string, at time.Time) {
	s.onlineMu.Lock()
	s.online[playerID] = at
	count := len(s.online)
	s.onlineMu.Unlock()

	s.metrics.Online(count)
}

func (s *Service) setOffline(playerID string) {
	s.onlineMu.Lock()
	delete(s.online, playerID)
	count := len(s.online)
	s.onlineMu.Unlock()

	s.metrics.Online(count)
}
