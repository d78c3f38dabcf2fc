// Package dashboard implements the view-model behind the parking
// dashboard: session establishment, the priced spot listing, the
// reservation workflow, wallet tracking, and spot administration. It is
// the only mutator of the store and the only caller of the upstream
// client.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"smart-parking-dashboard/pkg/auth"
	"smart-parking-dashboard/pkg/metrics"
	"smart-parking-dashboard/pkg/models"
	"smart-parking-dashboard/pkg/pricing"
	"smart-parking-dashboard/pkg/store"
	"smart-parking-dashboard/pkg/upstream"

	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountExists       = errors.New("account creation failed")
	ErrSpotNotFound        = errors.New("spot not found")
	ErrSpotUnavailable     = errors.New("spot is already reserved")
	ErrReservationInFlight = errors.New("reservation already in progress for this spot")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrReserveFailed       = errors.New("reserve call failed")
	ErrWalletDebitFailed   = errors.New("wallet debit failed after reserve")
	ErrInvalidPrice        = errors.New("price must be a number greater than zero")
	ErrUpstreamUnavailable = errors.New("parking api unavailable")
)

// Dashboard wires the upstream client, the state store, the clock the
// pricing policy reads, and the local credential policy.
type Dashboard struct {
	client *upstream.Client
	store  *store.Store
	auth   *auth.Auth
	clock  pricing.Clock
	logger zerolog.Logger
}

// New creates a Dashboard.
func New(client *upstream.Client, st *store.Store, authService *auth.Auth, clock pricing.Clock, logger zerolog.Logger) *Dashboard {
	return &Dashboard{
		client: client,
		store:  st,
		auth:   authService,
		clock:  clock,
		logger: logger.With().Str("component", "dashboard").Logger(),
	}
}

// Login authenticates a user. The builtin allow-list is consulted
// first; only on a miss does the upstream see the credentials. Any
// failure, upstream rejection or transport error alike, collapses into
// ErrInvalidCredentials.
func (d *Dashboard) Login(ctx context.Context, username, password string) (models.Session, error) {
	if !d.auth.CheckBuiltin(username, password) {
		if err := d.client.Login(ctx, username, password); err != nil {
			d.logger.Warn().Err(err).Str("username", username).Msg("login rejected")
			metrics.ObserveAction("login", err)
			return models.Session{}, ErrInvalidCredentials
		}
	}

	session := models.Session{
		Username: username,
		Admin:    auth.IsAdmin(username),
	}

	// Post-login state: fresh spot board, and a wallet balance for
	// everyone but the admin, who has none upstream.
	d.RefreshSpots(ctx)
	if !session.Admin {
		if balance, err := d.client.Wallet(ctx, username); err != nil {
			d.logger.Error().Err(err).Str("username", username).Msg("wallet fetch failed after login")
		} else {
			d.store.SetWallet(username, balance)
		}
	}

	metrics.ObserveAction("login", nil)
	return session, nil
}

// CreateAccount registers a new user upstream. Every failure mode is
// reported as the account already existing, matching the original UI.
func (d *Dashboard) CreateAccount(ctx context.Context, username, password string) error {
	err := d.client.CreateUser(ctx, username, password)
	metrics.ObserveAction("create_account", err)
	if err != nil {
		d.logger.Warn().Err(err).Str("username", username).Msg("account creation failed")
		return ErrAccountExists
	}
	return nil
}

// Logout drops everything cached for the user. No upstream round-trip.
func (d *Dashboard) Logout(username string) {
	d.store.ClearUser(username)
	metrics.ObserveAction("logout", nil)
}

// RefreshSpots fetches the spot inventory, applies the current
// time-of-day multiplier, and full-replaces the snapshot. On upstream
// failure the previous snapshot is kept and only the log records the
// error; the board never flashes empty over a transient fault.
func (d *Dashboard) RefreshSpots(ctx context.Context) ([]models.PricedSpot, string, float64) {
	raw, err := d.client.Spots(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("spot fetch failed, serving stale snapshot")
		metrics.ObserveAction("refresh_spots", err)
		return d.store.Spots()
	}

	multiplier, banner := pricing.Current(d.clock)
	priced := priceSpots(raw, multiplier)
	d.store.ReplaceSpots(priced, banner, multiplier)
	metrics.ObserveAction("refresh_spots", nil)
	return d.store.Spots()
}

func priceSpots(raw []models.Spot, multiplier float64) []models.PricedSpot {
	priced := make([]models.PricedSpot, 0, len(raw))
	for _, spot := range raw {
		current := pricing.Price(spot.Price, multiplier)
		priced = append(priced, models.PricedSpot{
			ID:                  spot.SpotID,
			BasePrice:           spot.Price,
			CurrentPrice:        current,
			BasePriceDisplay:    pricing.Display(spot.Price),
			CurrentPriceDisplay: pricing.Display(current),
			Reserved:            !spot.Availability,
			ReservedBy:          spot.UserSpot,
		})
	}
	return priced
}

// AvailableSpots returns only the unreserved spots, priced like the
// main listing.
func (d *Dashboard) AvailableSpots(ctx context.Context) ([]models.PricedSpot, string, error) {
	raw, err := d.client.AvailableSpots(ctx)
	metrics.ObserveAction("available_spots", err)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	multiplier, banner := pricing.Current(d.clock)
	return priceSpots(raw, multiplier), banner, nil
}

// Reserve runs the guarded reservation sequence for a logged-in user:
//
//	guards: spot known, not reserved, no reservation in flight,
//	        wallet covers the current price (checked locally, no
//	        network call when it fails)
//	steps:  upstream reserve -> optimistic local flip ->
//	        upstream debit -> wallet updated from the response
//
// A failed debit leaves the optimistic flip in place (there is no
// compensating rollback upstream) but reconciles by refetching the
// authoritative spot list and wallet before returning the error.
func (d *Dashboard) Reserve(ctx context.Context, username string, spotID int) (float64, error) {
	balance, err := d.reserve(ctx, username, spotID)
	metrics.ObserveAction("reserve", err)
	return balance, err
}

func (d *Dashboard) reserve(ctx context.Context, username string, spotID int) (float64, error) {
	spot, ok := d.store.Spot(spotID)
	if !ok {
		return 0, ErrSpotNotFound
	}
	if spot.Reserved {
		return 0, ErrSpotUnavailable
	}

	if !d.store.BeginReserve(spotID) {
		return 0, ErrReservationInFlight
	}
	defer d.store.EndReserve(spotID)

	balance := d.store.Wallet(username)
	if balance < spot.CurrentPrice {
		return balance, ErrInsufficientFunds
	}

	if _, err := d.client.Reserve(ctx, spotID, username); err != nil {
		d.logger.Error().Err(err).Int("spot_id", spotID).Msg("reserve call failed")
		return balance, fmt.Errorf("%w: %v", ErrReserveFailed, err)
	}

	d.store.MarkReserved(spotID, username)

	update, err := d.client.DeductFunds(ctx, username, pricing.Display(spot.CurrentPrice))
	if err != nil {
		d.logger.Error().Err(err).Int("spot_id", spotID).Str("username", username).
			Msg("wallet debit failed after reserve, refetching upstream state")
		d.reconcile(ctx, username)
		return balance, fmt.Errorf("%w: %v", ErrWalletDebitFailed, err)
	}

	d.store.SetWallet(username, update.WalletBalance)
	return update.WalletBalance, nil
}

// reconcile refetches the authoritative spot list and wallet after a
// partially failed multi-step action.
func (d *Dashboard) reconcile(ctx context.Context, username string) {
	d.RefreshSpots(ctx)
	if balance, err := d.client.Wallet(ctx, username); err == nil {
		d.store.SetWallet(username, balance)
	}
}

// Release frees a reserved spot (admin action). The optimistic flip
// only happens after the upstream confirms; no refund is issued.
func (d *Dashboard) Release(ctx context.Context, spotID int) (string, error) {
	message, err := d.client.Release(ctx, spotID)
	metrics.ObserveAction("release", err)
	if err != nil {
		d.logger.Error().Err(err).Int("spot_id", spotID).Msg("release failed")
		return "", err
	}
	d.store.MarkAvailable(spotID)
	return message, nil
}

// ReservedSpots lists the user's reservations verbatim from upstream.
// Prices are the stored reservation-time values; the live multiplier is
// not re-applied.
func (d *Dashboard) ReservedSpots(ctx context.Context, username string) ([]models.ReservedSpot, error) {
	spots, err := d.client.ReservedSpots(ctx, username)
	metrics.ObserveAction("reserved_spots", err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return spots, nil
}

// AddSpot validates the admin-entered price and creates a spot
// upstream. Validation failures never reach the network.
func (d *Dashboard) AddSpot(ctx context.Context, priceInput string) (string, error) {
	price, err := strconv.ParseFloat(priceInput, 64)
	if err != nil || price <= 0 {
		metrics.ObserveAction("add_spot", ErrInvalidPrice)
		return "", ErrInvalidPrice
	}

	message, err := d.client.CreateSpot(ctx, price)
	metrics.ObserveAction("add_spot", err)
	if err != nil {
		d.logger.Error().Err(err).Float64("price", price).Msg("spot creation failed")
		return "", err
	}

	d.RefreshSpots(ctx)
	return message, nil
}

// DeleteSpot removes a spot upstream and refetches the listing.
func (d *Dashboard) DeleteSpot(ctx context.Context, spotID int) (string, error) {
	message, err := d.client.DeleteSpot(ctx, spotID)
	metrics.ObserveAction("delete_spot", err)
	if err != nil {
		d.logger.Error().Err(err).Int("spot_id", spotID).Msg("spot deletion failed")
		return "", err
	}

	d.RefreshSpots(ctx)
	return message, nil
}

// AddFunds forwards the raw amount string to the upstream and caches
// the returned balance.
func (d *Dashboard) AddFunds(ctx context.Context, username, amount string) (*upstream.WalletUpdate, error) {
	update, err := d.client.AddFunds(ctx, username, amount)
	metrics.ObserveAction("add_funds", err)
	if err != nil {
		d.logger.Error().Err(err).Str("username", username).Msg("add funds failed")
		return nil, err
	}
	d.store.SetWallet(username, update.WalletBalance)
	return update, nil
}

// WalletBalance returns the user's balance, preferring a fresh upstream
// read and falling back to the cached value.
func (d *Dashboard) WalletBalance(ctx context.Context, username string) float64 {
	balance, err := d.client.Wallet(ctx, username)
	if err != nil {
		d.logger.Warn().Err(err).Str("username", username).Msg("wallet fetch failed, using cached balance")
		return d.store.Wallet(username)
	}
	d.store.SetWallet(username, balance)
	return balance
}
