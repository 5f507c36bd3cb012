package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxing-lab/tianji/internal/domain"
)

func testPlan(code string, tranche1Cost float64) *domain.Plan {
	return &domain.Plan{
		Code:                 code,
		Name:                 "测试标的",
		Board:                domain.BoardMain,
		EntryPrice:           100,
		Tranche1Shares:       int64(tranche1Cost / 100),
		Tranche1Cost:         tranche1Cost,
		Tranche2TriggerPrice: 93,
		Tranche2Shares:       800,
		BlendedAvgPrice:      96.5,
		TakeProfitPrice:      105,
		TakeProfitFraction:   0.05,
		StopLossPrice:        89.745,
		CreatedDate:          time.Now(),
		DeadlineDate:         time.Now().AddDate(0, 0, 20),
	}
}

func newTestService(startingCash float64) *Service {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(startingCash, nil, log)
}

// TestOpenClose_CashFlow covers the open-then-close cash arithmetic:
// opening 80,000 against 100,000 leaves 20,000, a second 30,000 open is
// rejected without touching state, and closing with +5,000 realized P/L
// brings cash to 105,000.
func TestOpenClose_CashFlow(t *testing.T) {
	svc := newTestService(100_000)

	pos, err := svc.OpenPosition(testPlan("600519", 80_000), domain.RationaleTechnical, "突破60日均线")
	require.NoError(t, err)
	require.NotEmpty(t, pos.ID)
	assert.InDelta(t, 20_000, svc.Cash(), 1e-9)
	assert.InDelta(t, 80_000, svc.MarketValue(), 1e-9)

	// Second open exceeds cash: rejected, nothing changes
	before := svc.OpenPositions()
	_, err = svc.OpenPosition(testPlan("000001", 30_000), domain.RationaleSector, "板块涨停潮")
	assert.ErrorIs(t, err, ErrInsufficientCash)
	assert.InDelta(t, 20_000, svc.Cash(), 1e-9)
	assert.Equal(t, before, svc.OpenPositions())

	// Close with +5,000: cash = 20,000 + 80,000 + 5,000
	cp, err := svc.ClosePosition(pos.ID, 5_000)
	require.NoError(t, err)
	assert.InDelta(t, 5_000, cp.RealizedPL, 1e-9)
	assert.InDelta(t, 105_000, svc.Cash(), 1e-9)
	assert.Empty(t, svc.OpenPositions())
	require.Len(t, svc.ClosedPositions(), 1)
	assert.InDelta(t, 1.0, svc.WinRate(), 1e-9)

	// Baseline recomputed at close: cash + no open positions
	assert.InDelta(t, 105_000, svc.TotalAssets(), 1e-9)
}

func TestOpenPosition_Validation(t *testing.T) {
	svc := newTestService(100_000)

	_, err := svc.OpenPosition(nil, domain.RationaleTechnical, "")
	assert.Error(t, err)

	_, err = svc.OpenPosition(testPlan("600519", 1000), domain.RationaleCategory("vibes"), "")
	assert.ErrorIs(t, err, ErrInvalidRationale)

	assert.InDelta(t, 100_000, svc.Cash(), 1e-9)
	assert.Empty(t, svc.OpenPositions())
}

func TestClosePosition_NotFound(t *testing.T) {
	svc := newTestService(100_000)
	_, err := svc.ClosePosition("no-such-id", 100)
	assert.ErrorIs(t, err, ErrPositionNotFound)

	// Closing twice: second call must fail, position never reappears
	pos, err := svc.OpenPosition(testPlan("600519", 10_000), domain.RationaleEvent, "重组预期")
	require.NoError(t, err)
	_, err = svc.ClosePosition(pos.ID, -500)
	require.NoError(t, err)
	_, err = svc.ClosePosition(pos.ID, -500)
	assert.ErrorIs(t, err, ErrPositionNotFound)
	assert.Len(t, svc.ClosedPositions(), 1)
}

func TestOpenPositions_MostRecentFirst(t *testing.T) {
	svc := newTestService(1_000_000)

	first, err := svc.OpenPosition(testPlan("600519", 10_000), domain.RationaleTechnical, "")
	require.NoError(t, err)
	second, err := svc.OpenPosition(testPlan("300750", 10_000), domain.RationaleSector, "")
	require.NoError(t, err)

	open := svc.OpenPositions()
	require.Len(t, open, 2)
	assert.Equal(t, second.ID, open[0].ID)
	assert.Equal(t, first.ID, open[1].ID)
}

func TestWinRate_EmptyHistoryIsZero(t *testing.T) {
	svc := newTestService(100_000)
	assert.Zero(t, svc.WinRate())
}

func TestWinRate_Mixed(t *testing.T) {
	svc := newTestService(1_000_000)

	outcomes := []float64{5_000, -2_000, 0, 1_500}
	for _, pl := range outcomes {
		pos, err := svc.OpenPosition(testPlan("600519", 10_000), domain.RationaleFundamental, "")
		require.NoError(t, err)
		_, err = svc.ClosePosition(pos.ID, pl)
		require.NoError(t, err)
	}

	// Zero P/L is not a win
	assert.InDelta(t, 0.5, svc.WinRate(), 1e-9)
}

func TestInitialize_ResetsEverything(t *testing.T) {
	svc := newTestService(100_000)
	pos, err := svc.OpenPosition(testPlan("600519", 10_000), domain.RationaleTechnical, "")
	require.NoError(t, err)
	_, err = svc.ClosePosition(pos.ID, 42)
	require.NoError(t, err)

	svc.Initialize(500_000)

	assert.InDelta(t, 500_000, svc.Cash(), 1e-9)
	assert.InDelta(t, 500_000, svc.TotalAssets(), 1e-9)
	assert.Empty(t, svc.OpenPositions())
	assert.Empty(t, svc.ClosedPositions())
	assert.Zero(t, svc.WinRate())
}

func TestGetSummary(t *testing.T) {
	svc := newTestService(100_000)
	_, err := svc.OpenPosition(testPlan("600519", 30_000), domain.RationaleTechnical, "")
	require.NoError(t, err)

	sum := svc.GetSummary()
	assert.InDelta(t, 70_000, sum.Cash, 1e-9)
	assert.InDelta(t, 30_000, sum.MarketValue, 1e-9)
	assert.InDelta(t, 100_000, sum.TotalAssets, 1e-9)
	assert.Equal(t, 1, sum.OpenCount)
	assert.Equal(t, 0, sum.ClosedCount)
}

func TestOverduePositions(t *testing.T) {
	svc := newTestService(1_000_000)

	fresh := testPlan("600519", 10_000)
	stale := testPlan("000001", 10_000)
	stale.DeadlineDate = time.Now().AddDate(0, 0, -1)

	_, err := svc.OpenPosition(fresh, domain.RationaleTechnical, "")
	require.NoError(t, err)
	stalePos, err := svc.OpenPosition(stale, domain.RationaleTechnical, "")
	require.NoError(t, err)

	overdue := svc.OverduePositions(time.Now())
	require.Len(t, overdue, 1)
	assert.Equal(t, stalePos.ID, overdue[0].ID)
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	svc := newTestService(100_000)
	pos, err := svc.OpenPosition(testPlan("600519", 30_000), domain.RationaleEvent, "政策利好")
	require.NoError(t, err)
	_, err = svc.OpenPosition(testPlan("300750", 20_000), domain.RationaleSector, "")
	require.NoError(t, err)
	_, err = svc.ClosePosition(pos.ID, 1_000)
	require.NoError(t, err)

	st := svc.Snapshot()

	restored := newTestService(0)
	restored.Restore(st)

	assert.InDelta(t, svc.Cash(), restored.Cash(), 1e-9)
	assert.InDelta(t, svc.TotalAssets(), restored.TotalAssets(), 1e-9)
	assert.Equal(t, svc.OpenPositions(), restored.OpenPositions())
	assert.Equal(t, svc.ClosedPositions(), restored.ClosedPositions())
}

// TestConcurrentOpenClose hammers the ledger from many goroutines and then
// checks cash conservation: starting cash plus injected P/L must equal final
// cash plus committed capital, to the cent.
func TestConcurrentOpenClose(t *testing.T) {
	const (
		workers      = 16
		perWorker    = 25
		startingCash = 10_000_000.0
		cost         = 10_000.0
		pl           = 250.0
	)

	svc := newTestService(startingCash)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				pos, err := svc.OpenPosition(testPlan("600519", cost), domain.RationaleTechnical, "")
				if err != nil {
					continue
				}
				if i%2 == 0 {
					_, _ = svc.ClosePosition(pos.ID, pl)
				}
			}
		}()
	}
	wg.Wait()

	closed := svc.ClosedPositions()
	expected := startingCash + float64(len(closed))*pl
	assert.InDelta(t, expected, svc.Cash()+svc.MarketValue(), 0.01)
}
