// Package store holds the dashboard's in-memory view-model state. The
// parking API owns every durable fact; this store only keeps the last
// priced spot snapshot, cached wallet balances, and the per-spot
// in-flight reservation guards. Nothing here survives a restart.
package store

import (
	"sync"

	"smart-parking-dashboard/pkg/models"
)

// Store provides mutex-guarded access to the dashboard state. All
// mutation goes through the action methods below; callers never see
// interior slices or maps.
type Store struct {
	mu         sync.RWMutex
	spots      []models.PricedSpot
	banner     string
	multiplier float64
	wallets    map[string]float64
	inFlight   map[int]bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		spots:    make([]models.PricedSpot, 0),
		wallets:  make(map[string]float64),
		inFlight: make(map[int]bool),
	}
}

// ReplaceSpots swaps in a freshly priced snapshot. Full replace, no
// merge: the upstream listing is authoritative.
func (s *Store) ReplaceSpots(spots []models.PricedSpot, banner string, multiplier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spots = make([]models.PricedSpot, len(spots))
	copy(s.spots, spots)
	s.banner = banner
	s.multiplier = multiplier
}

// Spots returns a copy of the current snapshot with its banner and
// multiplier.
func (s *Store) Spots() ([]models.PricedSpot, string, float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.PricedSpot, len(s.spots))
	copy(result, s.spots)
	return result, s.banner, s.multiplier
}

// Spot returns one spot from the snapshot by ID.
func (s *Store) Spot(id int) (models.PricedSpot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, spot := range s.spots {
		if spot.ID == id {
			return spot, true
		}
	}
	return models.PricedSpot{}, false
}

// MarkReserved applies the optimistic local flip after a successful
// reserve call.
func (s *Store) MarkReserved(id int, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.spots {
		if s.spots[i].ID == id {
			s.spots[i].Reserved = true
			s.spots[i].ReservedBy = username
			return
		}
	}
}

// MarkAvailable applies the optimistic local flip after a release.
func (s *Store) MarkAvailable(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.spots {
		if s.spots[i].ID == id {
			s.spots[i].Reserved = false
			s.spots[i].ReservedBy = ""
			return
		}
	}
}

// SetWallet caches a user's wallet balance.
func (s *Store) SetWallet(username string, balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[username] = balance
}

// Wallet returns the cached balance for a user. Users without a cached
// balance read as zero, exactly like the original dashboard before its
// wallet fetch resolved.
func (s *Store) Wallet(username string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets[username]
}

// ClearUser drops everything cached for a user. Called on logout.
func (s *Store) ClearUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wallets, username)
}

// BeginReserve sets the in-flight guard for a spot. It returns false
// when a reservation on the same spot is already running, which rejects
// the rapid double-click race instead of letting both attempts pass the
// availability check.
func (s *Store) BeginReserve(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

// EndReserve clears the in-flight guard for a spot.
func (s *Store) EndReserve(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}
