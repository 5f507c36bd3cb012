package ledger

import (
	"gonum.org/v1/gonum/stat"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// RationaleStats aggregates outcomes for one buy-thesis category.
type RationaleStats struct {
	Label   string  `json:"label"`
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
	TotalPL float64 `json:"total_pl"`
}

// PerformanceStats summarizes the closed-trade archive. This is the data the
// retrospective advisory prompt is built from, and it is also served raw.
type PerformanceStats struct {
	Trades      int                        `json:"trades"`
	Wins        int                        `json:"wins"`
	WinRate     float64                    `json:"win_rate"`
	TotalPL     float64                    `json:"total_pl"`
	MeanPL      float64                    `json:"mean_pl"`
	StdDevPL    float64                    `json:"stddev_pl"`
	BestPL      float64                    `json:"best_pl"`
	WorstPL     float64                    `json:"worst_pl"`
	ByRationale map[string]*RationaleStats `json:"by_rationale"`
}

// ComputeStats builds performance statistics over closed positions.
// An empty archive yields the zero-value stats (win rate 0, no division).
func ComputeStats(closed []domain.ClosedPosition) PerformanceStats {
	stats := PerformanceStats{
		ByRationale: make(map[string]*RationaleStats),
	}
	if len(closed) == 0 {
		return stats
	}

	pls := make([]float64, 0, len(closed))
	for i := range closed {
		cp := &closed[i]
		pls = append(pls, cp.RealizedPL)

		stats.Trades++
		stats.TotalPL += cp.RealizedPL
		if cp.RealizedPL > 0 {
			stats.Wins++
		}
		if i == 0 || cp.RealizedPL > stats.BestPL {
			stats.BestPL = cp.RealizedPL
		}
		if i == 0 || cp.RealizedPL < stats.WorstPL {
			stats.WorstPL = cp.RealizedPL
		}

		key := string(cp.RationaleCategory)
		rs, ok := stats.ByRationale[key]
		if !ok {
			rs = &RationaleStats{Label: cp.RationaleCategory.Info().Label}
			stats.ByRationale[key] = rs
		}
		rs.Trades++
		rs.TotalPL += cp.RealizedPL
		if cp.RealizedPL > 0 {
			rs.Wins++
		}
	}

	stats.WinRate = float64(stats.Wins) / float64(stats.Trades)
	stats.MeanPL = stat.Mean(pls, nil)
	if len(pls) > 1 {
		stats.StdDevPL = stat.StdDev(pls, nil)
	}
	for _, rs := range stats.ByRationale {
		rs.WinRate = float64(rs.Wins) / float64(rs.Trades)
	}

	return stats
}
