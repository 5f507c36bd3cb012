// Package strategy implements the fixed-rule position sizing strategy:
// board classification, the immutable strategy parameters and the
// two-tranche plan calculator.
package strategy

import (
	"fmt"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// Config holds the strategy parameters. It is constructed once at startup
// and never mutated afterwards.
//
// The defaults are the rule set the journal was designed around:
// 5 instruments max, 16% of capital per instrument, half deployed up front,
// the other half on a 7% dip, hard stop 7% under blended cost.
type Config struct {
	PositionRatio   float64 // max capital fraction per single instrument
	BatchSplit      float64 // fraction of the per-instrument cap used in tranche 1
	AddBuyDrop      float64 // price drop from entry that triggers tranche 2
	StopLossFromAvg float64 // drawdown from blended average cost that triggers full exit
	TPMainBoard     float64 // take-profit trigger for main-board instruments
	TPTechBoard     float64 // take-profit trigger for tech-board instruments
	TrailingDrop    float64 // trailing-stop drawdown (advisory, not enforced here)
	MaxHoldingDays  int     // holding-period limit in calendar days
	LotSize         int64   // minimum tradable share increment
}

// DefaultConfig returns the strategy parameters with their standard values.
func DefaultConfig() Config {
	return Config{
		PositionRatio:   0.16,
		BatchSplit:      0.5,
		AddBuyDrop:      0.07,
		StopLossFromAvg: 0.07,
		TPMainBoard:     0.05,
		TPTechBoard:     0.07,
		TrailingDrop:    0.08,
		MaxHoldingDays:  20,
		LotSize:         100,
	}
}

// Validate checks that the parameters describe a usable strategy.
func (c Config) Validate() error {
	if c.PositionRatio <= 0 || c.PositionRatio > 1 {
		return fmt.Errorf("position ratio must be in (0, 1], got %v", c.PositionRatio)
	}
	if c.BatchSplit <= 0 || c.BatchSplit > 1 {
		return fmt.Errorf("batch split must be in (0, 1], got %v", c.BatchSplit)
	}
	if c.AddBuyDrop <= 0 || c.AddBuyDrop >= 1 {
		return fmt.Errorf("add-buy drop must be in (0, 1), got %v", c.AddBuyDrop)
	}
	if c.StopLossFromAvg <= 0 || c.StopLossFromAvg >= 1 {
		return fmt.Errorf("stop-loss drawdown must be in (0, 1), got %v", c.StopLossFromAvg)
	}
	if c.TPMainBoard < 0 || c.TPTechBoard < 0 {
		return fmt.Errorf("take-profit fractions must be non-negative")
	}
	if c.MaxHoldingDays <= 0 {
		return fmt.Errorf("max holding days must be positive, got %d", c.MaxHoldingDays)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot size must be positive, got %d", c.LotSize)
	}
	return nil
}

// TakeProfitFraction returns the take-profit threshold for a board.
func (c Config) TakeProfitFraction(board domain.Board) float64 {
	if board == domain.BoardTech {
		return c.TPTechBoard
	}
	return c.TPMainBoard
}
