// Package ledger implements the portfolio ledger: the cash balance, the set
// of open positions and the archive of closed ones, with the state machine
// nonexistent -> open -> closed enforced per position.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/domain"
)

var (
	// ErrInsufficientCash is returned when opening a position whose first
	// tranche costs more than the available cash.
	ErrInsufficientCash = errors.New("insufficient cash")
	// ErrPositionNotFound is returned when closing a position id that is not
	// currently open. Indicates a stale reference; callers should refresh.
	ErrPositionNotFound = errors.New("position not found")
	// ErrInvalidRationale is returned when opening with a category outside
	// the closed enumeration.
	ErrInvalidRationale = errors.New("invalid rationale category")
)

// Store is the persistence boundary of the ledger. Implementations must be
// safe to call sequentially; the service serializes all access under its own
// lock. A nil Store runs the ledger purely in memory.
type Store interface {
	SaveAccount(cash, totalAssets float64) error
	SaveOpenPosition(pos domain.Position) error
	DeleteOpenPosition(id string) error
	SaveClosedPosition(cp domain.ClosedPosition) error
	Reset(cash, totalAssets float64) error
}

// State is the full serializable ledger state, used for msgpack session
// snapshots and for hydrating the service from the repository at startup.
type State struct {
	Cash        float64                 `msgpack:"cash" json:"cash"`
	TotalAssets float64                 `msgpack:"total_assets" json:"total_assets"`
	Open        []domain.Position       `msgpack:"open" json:"open"`
	Closed      []domain.ClosedPosition `msgpack:"closed" json:"closed"`
	SavedAt     time.Time               `msgpack:"saved_at" json:"saved_at"`
}

// Summary is the account overview served by the API.
type Summary struct {
	Cash        float64 `json:"cash"`
	MarketValue float64 `json:"market_value"` // cost basis of open positions, not live valuation
	TotalAssets float64 `json:"total_assets"`
	OpenCount   int     `json:"open_count"`
	ClosedCount int     `json:"closed_count"`
	WinRate     float64 `json:"win_rate"`
}

// Service owns the ledger state. Every operation is all-or-nothing and
// serialized by the mutex, so the cash-conservation invariant holds even
// with concurrent HTTP requests against the same ledger.
//
// Persistence is write-through and best-effort: a failing store never
// corrupts or rolls back the in-memory state, it only logs. The in-memory
// state is the source of truth for the session.
type Service struct {
	mu sync.Mutex

	cash float64
	// totalAssets is the capital baseline fed to the plan calculator. It is
	// intentionally NOT cash + live market value: open positions are carried
	// at committed cost, and the baseline only moves when realized P/L lands
	// at close time.
	totalAssets float64
	open        []domain.Position       // most recent first
	closed      []domain.ClosedPosition // most recent first

	store Store
	log   zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates a ledger with the given starting cash. Pass a nil store
// for a purely in-memory session.
func NewService(startingCash float64, store Store, log zerolog.Logger) *Service {
	return &Service{
		cash:        startingCash,
		totalAssets: startingCash,
		open:        []domain.Position{},
		closed:      []domain.ClosedPosition{},
		store:       store,
		log:         log.With().Str("service", "ledger").Logger(),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// Initialize resets the ledger to a fresh state with the given starting
// cash, discarding all open and closed positions. Irreversible; interactive
// callers must confirm intent before invoking.
func (s *Service) Initialize(startingCash float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cash = startingCash
	s.totalAssets = startingCash
	s.open = []domain.Position{}
	s.closed = []domain.ClosedPosition{}

	if s.store != nil {
		if err := s.store.Reset(s.cash, s.totalAssets); err != nil {
			s.log.Error().Err(err).Msg("Failed to reset journal store")
		}
	}

	s.log.Info().Float64("starting_cash", startingCash).Msg("Ledger initialized")
}

// OpenPosition confirms a plan: validates the rationale, checks cash, debits
// exactly the tranche-1 cost and records the new position, most recent first.
// No state changes on failure.
func (s *Service) OpenPosition(plan *domain.Plan, category domain.RationaleCategory, rationaleText string) (*domain.Position, error) {
	if plan == nil {
		return nil, errors.New("plan is required")
	}
	if !category.Valid() {
		return nil, ErrInvalidRationale
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if plan.Tranche1Cost > s.cash {
		return nil, ErrInsufficientCash
	}

	pos := domain.Position{
		Plan:              *plan,
		ID:                s.newID(),
		RationaleCategory: category,
		RationaleText:     rationaleText,
		CommittedCash:     plan.Tranche1Cost,
		OpenedAt:          s.now(),
	}

	s.cash -= plan.Tranche1Cost
	s.open = append([]domain.Position{pos}, s.open...)

	s.persistOpen(pos)

	s.log.Info().
		Str("position_id", pos.ID).
		Str("code", pos.Code).
		Int64("shares", pos.Tranche1Shares).
		Float64("committed", pos.CommittedCash).
		Float64("cash", s.cash).
		Msg("Position opened")

	return &pos, nil
}

// ClosePosition archives an open position with a caller-supplied realized
// profit/loss, crediting cash with committed capital plus that P/L. The
// total-assets baseline is recomputed from cash plus remaining committed
// cost. No state changes on failure.
func (s *Service) ClosePosition(positionID string, realizedPL float64) (*domain.ClosedPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.open {
		if s.open[i].ID == positionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrPositionNotFound
	}

	pos := s.open[idx]
	s.open = append(s.open[:idx], s.open[idx+1:]...)

	s.cash += pos.CommittedCash + realizedPL
	s.totalAssets = s.cash + s.committedLocked()

	cp := domain.ClosedPosition{
		Position:   pos,
		ClosedAt:   s.now(),
		RealizedPL: realizedPL,
	}
	s.closed = append([]domain.ClosedPosition{cp}, s.closed...)

	s.persistClose(cp)

	s.log.Info().
		Str("position_id", cp.ID).
		Str("code", cp.Code).
		Float64("realized_pl", realizedPL).
		Float64("cash", s.cash).
		Msg("Position closed")

	return &cp, nil
}

// Cash returns the available cash balance.
func (s *Service) Cash() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash
}

// TotalAssets returns the capital baseline used for position sizing.
func (s *Service) TotalAssets() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalAssets
}

// MarketValue approximates the value of open positions by their committed
// cost basis. Documented simplification: no live pricing.
func (s *Service) MarketValue() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committedLocked()
}

// WinRate returns the fraction of closed positions with positive realized
// P/L, or 0 when nothing has been closed yet.
func (s *Service) WinRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return winRate(s.closed)
}

// GetSummary returns the account overview.
func (s *Service) GetSummary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	mv := s.committedLocked()
	return Summary{
		Cash:        s.cash,
		MarketValue: mv,
		TotalAssets: s.cash + mv,
		OpenCount:   len(s.open),
		ClosedCount: len(s.closed),
		WinRate:     winRate(s.closed),
	}
}

// OpenPositions returns a copy of the open positions, most recent first.
func (s *Service) OpenPositions() []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Position, len(s.open))
	copy(out, s.open)
	return out
}

// ClosedPositions returns a copy of the archive, most recent first.
func (s *Service) ClosedPositions() []domain.ClosedPosition {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ClosedPosition, len(s.closed))
	copy(out, s.closed)
	return out
}

// OverduePositions returns open positions whose holding-period deadline has
// passed as of `now`. Used by the deadline sweep; advisory only.
func (s *Service) OverduePositions(now time.Time) []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Position
	for i := range s.open {
		if s.open[i].Overdue(now) {
			out = append(out, s.open[i])
		}
	}
	return out
}

// Snapshot captures the full ledger state for session persistence.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Cash:        s.cash,
		TotalAssets: s.totalAssets,
		Open:        make([]domain.Position, len(s.open)),
		Closed:      make([]domain.ClosedPosition, len(s.closed)),
		SavedAt:     s.now(),
	}
	copy(st.Open, s.open)
	copy(st.Closed, s.closed)
	return st
}

// Restore replaces the ledger state wholesale from a snapshot.
func (s *Service) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cash = st.Cash
	s.totalAssets = st.TotalAssets
	s.open = make([]domain.Position, len(st.Open))
	copy(s.open, st.Open)
	s.closed = make([]domain.ClosedPosition, len(st.Closed))
	copy(s.closed, st.Closed)

	s.log.Info().
		Int("open", len(s.open)).
		Int("closed", len(s.closed)).
		Float64("cash", s.cash).
		Msg("Ledger state restored")
}

// committedLocked sums committed cash over open positions. Caller holds mu.
func (s *Service) committedLocked() float64 {
	total := 0.0
	for i := range s.open {
		total += s.open[i].CommittedCash
	}
	return total
}

func (s *Service) persistOpen(pos domain.Position) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveOpenPosition(pos); err != nil {
		s.log.Error().Err(err).Str("position_id", pos.ID).Msg("Failed to persist open position")
	}
	if err := s.store.SaveAccount(s.cash, s.totalAssets); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist account balances")
	}
}

func (s *Service) persistClose(cp domain.ClosedPosition) {
	if s.store == nil {
		return
	}
	if err := s.store.DeleteOpenPosition(cp.ID); err != nil {
		s.log.Error().Err(err).Str("position_id", cp.ID).Msg("Failed to remove open position from store")
	}
	if err := s.store.SaveClosedPosition(cp); err != nil {
		s.log.Error().Err(err).Str("position_id", cp.ID).Msg("Failed to persist closed position")
	}
	if err := s.store.SaveAccount(s.cash, s.totalAssets); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist account balances")
	}
}

func winRate(closed []domain.ClosedPosition) float64 {
	if len(closed) == 0 {
		return 0
	}
	wins := 0
	for i := range closed {
		if closed[i].RealizedPL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(closed))
}
