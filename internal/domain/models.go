// Package domain contains the core domain models shared across modules.
// The domain layer is pure: no database, network or framework dependencies.
package domain

import "time"

// Board classifies an instrument into one of the two A-share listing buckets.
// The bucket selects the take-profit threshold for the first tranche.
type Board string

const (
	// BoardMain - Shanghai/Shenzhen main board
	BoardMain Board = "main"
	// BoardTech - STAR market (688), ChiNext (300) and NEEQ (4/8) listings
	BoardTech Board = "tech"
)

// RationaleCategory is the closed set of buy-thesis categories a position
// must be filed under. The category drives journaling and retrospective
// statistics, never the computed plan.
type RationaleCategory string

const (
	RationaleTechnical   RationaleCategory = "tech"
	RationaleFundamental RationaleCategory = "fund"
	RationaleEvent       RationaleCategory = "event"
	RationaleSector      RationaleCategory = "sector"
)

// RationaleInfo holds the display metadata associated with a category.
type RationaleInfo struct {
	Label string `json:"label"`
	Hint  string `json:"hint"`
}

// Info returns the display metadata for a rationale category.
// Unknown categories fall back to the raw value as label so stored history
// always renders, even if the enumeration changes between versions.
func (c RationaleCategory) Info() RationaleInfo {
	switch c {
	case RationaleTechnical:
		return RationaleInfo{Label: "技术形态", Hint: "均线多头、量价配合、MACD金叉、突破压力位"}
	case RationaleFundamental:
		return RationaleInfo{Label: "基本面", Hint: "PE/PB低估、业绩超预期、高股息、行业拐点"}
	case RationaleEvent:
		return RationaleInfo{Label: "事件驱动", Hint: "并购重组、政策利好、产品涨价、大订单"}
	case RationaleSector:
		return RationaleInfo{Label: "板块情绪", Hint: "板块涨停潮、龙头连板、高标反馈、主力净流入"}
	default:
		return RationaleInfo{Label: string(c)}
	}
}

// Valid reports whether the category is one of the known values.
func (c RationaleCategory) Valid() bool {
	switch c {
	case RationaleTechnical, RationaleFundamental, RationaleEvent, RationaleSector:
		return true
	}
	return false
}

// AllRationaleCategories returns the categories in display order.
func AllRationaleCategories() []RationaleCategory {
	return []RationaleCategory{
		RationaleTechnical,
		RationaleFundamental,
		RationaleEvent,
		RationaleSector,
	}
}

// Plan is the fully specified two-tranche entry/exit plan produced by the
// calculator. A Plan is ephemeral: it is recomputed on every input change and
// only becomes durable when opened as a Position.
//
// Monetary values are carried at full float64 precision; share counts are
// always non-negative multiples of the minimum tradable lot.
type Plan struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Board Board  `json:"board"`

	EntryPrice     float64 `json:"entry_price"`
	Tranche1Shares int64   `json:"tranche1_shares"`
	Tranche1Cost   float64 `json:"tranche1_cost"`

	// Second tranche reuses the same earmarked sub-allocation at the lower
	// trigger price; it is not a fresh allocation.
	Tranche2TriggerPrice float64 `json:"tranche2_trigger_price"`
	Tranche2Shares       int64   `json:"tranche2_shares"`

	// BlendedAvgPrice assumes both tranches fill.
	BlendedAvgPrice float64 `json:"blended_avg_price"`

	// Take-profit is anchored to the entry price (tranche-1 shares exit
	// first); stop-loss is anchored to the blended average, protecting the
	// whole position including the hypothetical add-buy.
	TakeProfitPrice        float64 `json:"take_profit_price"`
	TakeProfitFraction     float64 `json:"take_profit_fraction"`
	PostAddTakeProfitPrice float64 `json:"post_add_take_profit_price"`
	StopLossPrice          float64 `json:"stop_loss_price"`

	CreatedDate  time.Time `json:"created_date"`
	DeadlineDate time.Time `json:"deadline_date"`
}

// Position is a confirmed Plan plus lifecycle fields. It exists from the
// moment the ledger debits cash until it is closed and archived.
type Position struct {
	Plan

	ID                string            `json:"id"`
	RationaleCategory RationaleCategory `json:"rationale_category"`
	RationaleText     string            `json:"rationale_text"`

	// CommittedCash is the capital actually debited at open time. Market
	// value of an open position is approximated by this cost basis; there is
	// no live mark-to-market.
	CommittedCash float64 `json:"committed_cash"`

	OpenedAt time.Time `json:"opened_at"`
}

// Overdue reports whether the holding-period deadline has passed as of now.
// Advisory only: nothing closes automatically.
func (p *Position) Overdue(now time.Time) bool {
	return now.After(p.DeadlineDate)
}

// ClosedPosition is the immutable archive record of a closed position.
// RealizedPL is caller-supplied; the ledger never derives it from prices.
type ClosedPosition struct {
	Position

	ClosedAt   time.Time `json:"closed_at"`
	RealizedPL float64   `json:"realized_pl"`
}
