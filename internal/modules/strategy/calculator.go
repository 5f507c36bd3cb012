package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// ErrInsufficientCapital is returned when the earmarked tranche-1 budget
// cannot buy even one minimal lot at the requested entry price. It is the
// calculator's only failure mode.
var ErrInsufficientCapital = errors.New("insufficient capital for one lot")

// Calculator turns (capital, entry price, instrument) into a two-tranche
// trade plan. It is stateless and has no side effects: no ledger access,
// no network, no clock beyond stamping the creation date.
type Calculator struct {
	cfg Config
	log zerolog.Logger

	// now is injectable for deterministic deadline tests.
	now func() time.Time
}

// NewCalculator creates a plan calculator with the given strategy parameters.
func NewCalculator(cfg Config, log zerolog.Logger) *Calculator {
	return &Calculator{
		cfg: cfg,
		log: log.With().Str("service", "calculator").Logger(),
		now: time.Now,
	}
}

// Config returns the strategy parameters the calculator was built with.
func (c *Calculator) Config() Config {
	return c.cfg
}

// ComputePlan produces a fully specified plan for buying `code` at
// `entryPrice` out of `totalCapital`.
//
// Sizing rules:
//   - the per-instrument cap is totalCapital * PositionRatio
//   - tranche 1 deploys BatchSplit of that cap at the entry price
//   - tranche 2 reuses the same budget at entry * (1 - AddBuyDrop)
//   - share counts floor to whole lots; tranche 1 flooring to zero lots
//     fails with ErrInsufficientCapital
//
// Take-profit anchors to the entry price (tranche-1 shares are the ones
// eligible for the first partial exit); stop-loss anchors to the blended
// average cost assuming both tranches fill.
func (c *Calculator) ComputePlan(totalCapital, entryPrice float64, code, name string) (*domain.Plan, error) {
	if totalCapital <= 0 {
		return nil, fmt.Errorf("total capital must be positive, got %v", totalCapital)
	}
	if entryPrice <= 0 {
		return nil, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	board := ClassifyBoard(code)

	singleCap := totalCapital * c.cfg.PositionRatio
	tranche1Budget := singleCap * c.cfg.BatchSplit

	tranche1Shares := c.floorToLot(tranche1Budget / entryPrice)
	if tranche1Shares == 0 {
		c.log.Debug().
			Str("code", code).
			Float64("budget", tranche1Budget).
			Float64("price", entryPrice).
			Msg("Tranche 1 budget below one lot")
		return nil, ErrInsufficientCapital
	}
	tranche1Cost := float64(tranche1Shares) * entryPrice

	tranche2Trigger := entryPrice * (1 - c.cfg.AddBuyDrop)
	tranche2Shares := c.floorToLot(tranche1Budget / tranche2Trigger)

	// tranche1Shares > 0 guarantees the denominator is non-zero.
	totalShares := tranche1Shares + tranche2Shares
	blendedAvg := (tranche1Cost + float64(tranche2Shares)*tranche2Trigger) / float64(totalShares)

	tpFraction := c.cfg.TakeProfitFraction(board)

	now := c.now()
	plan := &domain.Plan{
		Code:                   code,
		Name:                   name,
		Board:                  board,
		EntryPrice:             entryPrice,
		Tranche1Shares:         tranche1Shares,
		Tranche1Cost:           tranche1Cost,
		Tranche2TriggerPrice:   tranche2Trigger,
		Tranche2Shares:         tranche2Shares,
		BlendedAvgPrice:        blendedAvg,
		TakeProfitPrice:        entryPrice * (1 + tpFraction),
		TakeProfitFraction:     tpFraction,
		PostAddTakeProfitPrice: blendedAvg * (1 + tpFraction),
		StopLossPrice:          blendedAvg * (1 - c.cfg.StopLossFromAvg),
		CreatedDate:            now,
		DeadlineDate:           now.AddDate(0, 0, c.cfg.MaxHoldingDays),
	}

	return plan, nil
}

// floorToLot floors a raw share count to a whole number of lots.
func (c *Calculator) floorToLot(shares float64) int64 {
	lots := int64(math.Floor(shares / float64(c.cfg.LotSize)))
	if lots < 0 {
		lots = 0
	}
	return lots * c.cfg.LotSize
}
