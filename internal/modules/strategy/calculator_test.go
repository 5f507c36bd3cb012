package strategy

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxing-lab/tianji/internal/domain"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	calc := NewCalculator(DefaultConfig(), log)
	// Pin the clock so deadline assertions are deterministic
	calc.now = func() time.Time {
		return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	}
	return calc
}

// TestComputePlan_MainBoardScenario walks through the full arithmetic for a
// main-board instrument: 1,000,000 capital, entry at 100.00.
func TestComputePlan_MainBoardScenario(t *testing.T) {
	calc := newTestCalculator(t)

	plan, err := calc.ComputePlan(1_000_000, 100.00, "600519", "贵州茅台")
	require.NoError(t, err)

	// Cap 160,000 -> tranche budget 80,000 -> 800 shares at 100.00
	assert.Equal(t, domain.BoardMain, plan.Board)
	assert.Equal(t, int64(800), plan.Tranche1Shares)
	assert.InDelta(t, 80_000.0, plan.Tranche1Cost, 1e-9)

	// Add-buy trigger 93.00; 80,000/93 = 860.2 floors to 800
	assert.InDelta(t, 93.00, plan.Tranche2TriggerPrice, 1e-9)
	assert.Equal(t, int64(800), plan.Tranche2Shares)

	// Blended (80,000 + 800*93) / 1600 = 96.5
	assert.InDelta(t, 96.5, plan.BlendedAvgPrice, 1e-9)

	// Main board take-profit +5% off entry, stop 7% under blended cost
	assert.InDelta(t, 105.00, plan.TakeProfitPrice, 1e-9)
	assert.InDelta(t, 0.05, plan.TakeProfitFraction, 1e-9)
	assert.InDelta(t, 89.745, plan.StopLossPrice, 1e-9)
	assert.InDelta(t, 96.5*1.05, plan.PostAddTakeProfitPrice, 1e-9)

	// Deadline is creation date + configured holding period (calendar days)
	assert.Equal(t, time.Date(2026, 3, 22, 10, 0, 0, 0, time.UTC), plan.DeadlineDate)
}

func TestComputePlan_TechBoardTakeProfit(t *testing.T) {
	calc := newTestCalculator(t)

	plan, err := calc.ComputePlan(1_000_000, 50.00, "300750", "宁德时代")
	require.NoError(t, err)

	assert.Equal(t, domain.BoardTech, plan.Board)
	assert.InDelta(t, 0.07, plan.TakeProfitFraction, 1e-9)
	assert.InDelta(t, 53.50, plan.TakeProfitPrice, 1e-9)
}

func TestComputePlan_InsufficientCapital(t *testing.T) {
	calc := newTestCalculator(t)

	// 50,000 capital -> tranche budget 4,000 -> zero lots at 1000.00
	plan, err := calc.ComputePlan(50_000, 1000.00, "600519", "贵州茅台")
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, ErrInsufficientCapital)
}

func TestComputePlan_RejectsNonPositiveInputs(t *testing.T) {
	calc := newTestCalculator(t)

	_, err := calc.ComputePlan(0, 100.00, "600519", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientCapital)

	_, err = calc.ComputePlan(1_000_000, 0, "600519", "")
	assert.Error(t, err)

	_, err = calc.ComputePlan(-1, -1, "600519", "")
	assert.Error(t, err)
}

// TestComputePlan_LotInvariants checks the sizing properties over a spread of
// capital/price combinations: share counts are whole non-negative lots,
// tranche-1 cost is exact, and the blended average sits between the add-buy
// trigger and the entry price.
func TestComputePlan_LotInvariants(t *testing.T) {
	calc := newTestCalculator(t)
	lot := calc.Config().LotSize

	capitals := []float64{30_000, 62_500, 100_000, 450_000, 1_000_000, 9_999_999}
	prices := []float64{0.88, 3.14, 9.99, 25.60, 101.01, 1999.99}

	for _, capital := range capitals {
		for _, price := range prices {
			plan, err := calc.ComputePlan(capital, price, "000001", "平安银行")
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientCapital)
				continue
			}

			assert.Greater(t, plan.Tranche1Shares, int64(0))
			assert.Zero(t, plan.Tranche1Shares%lot)
			assert.GreaterOrEqual(t, plan.Tranche2Shares, int64(0))
			assert.Zero(t, plan.Tranche2Shares%lot)

			assert.InDelta(t, float64(plan.Tranche1Shares)*price, plan.Tranche1Cost, 1e-9)

			if plan.Tranche2Shares > 0 {
				assert.GreaterOrEqual(t, plan.BlendedAvgPrice, plan.Tranche2TriggerPrice)
				assert.LessOrEqual(t, plan.BlendedAvgPrice, plan.EntryPrice)
			}

			// Exit band ordering holds whenever both thresholds are active
			assert.Less(t, plan.StopLossPrice, plan.BlendedAvgPrice)
			assert.Greater(t, plan.TakeProfitPrice, plan.BlendedAvgPrice)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.PositionRatio = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.BatchSplit = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.AddBuyDrop = 1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxHoldingDays = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.LotSize = -100
	assert.Error(t, bad.Validate())
}
