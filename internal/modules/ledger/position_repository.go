package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// positionColumns is the shared column list for both position tables.
// Column order must match scanPosition(); closed_positions appends
// closed_at and realized_pl.
const positionColumns = `id, code, name, board, entry_price, tranche1_shares, tranche1_cost,
	tranche2_trigger_price, tranche2_shares, blended_avg_price,
	take_profit_price, take_profit_fraction, post_add_take_profit_price, stop_loss_price,
	created_at, deadline_at, rationale_category, rationale_text, committed_cash, opened_at`

// PositionRepository persists ledger state in the journal database.
// It implements the Store interface with write-through semantics: the
// in-memory ledger remains authoritative and the repository mirrors it.
type PositionRepository struct {
	journalDB *sql.DB
	log       zerolog.Logger
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(journalDB *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		journalDB: journalDB,
		log:       log.With().Str("repo", "position").Logger(),
	}
}

// SaveAccount upserts the single account row holding cash and the
// total-assets baseline.
func (r *PositionRepository) SaveAccount(cash, totalAssets float64) error {
	query := `
		INSERT INTO account (id, cash, total_assets, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cash = excluded.cash,
			total_assets = excluded.total_assets,
			updated_at = excluded.updated_at
	`
	if _, err := r.journalDB.Exec(query, cash, totalAssets, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// SaveOpenPosition inserts a freshly opened position.
func (r *PositionRepository) SaveOpenPosition(pos domain.Position) error {
	query := `
		INSERT INTO open_positions (` + positionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.journalDB.Exec(query, positionArgs(pos)...)
	if err != nil {
		return fmt.Errorf("failed to save open position %s: %w", pos.ID, err)
	}
	return nil
}

// DeleteOpenPosition removes a position from the open table once closed.
func (r *PositionRepository) DeleteOpenPosition(id string) error {
	if _, err := r.journalDB.Exec("DELETE FROM open_positions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete open position %s: %w", id, err)
	}
	return nil
}

// SaveClosedPosition appends a record to the immutable archive.
func (r *PositionRepository) SaveClosedPosition(cp domain.ClosedPosition) error {
	query := `
		INSERT INTO closed_positions (` + positionColumns + `, closed_at, realized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := append(positionArgs(cp.Position), cp.ClosedAt.Unix(), cp.RealizedPL)
	if _, err := r.journalDB.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to save closed position %s: %w", cp.ID, err)
	}
	return nil
}

// Reset clears both position tables and rewrites the account row.
// Used by the explicit ledger reset operation.
func (r *PositionRepository) Reset(cash, totalAssets float64) error {
	tx, err := r.journalDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM open_positions"); err != nil {
		return fmt.Errorf("failed to clear open positions: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM closed_positions"); err != nil {
		return fmt.Errorf("failed to clear closed positions: %w", err)
	}
	query := `
		INSERT INTO account (id, cash, total_assets, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			cash = excluded.cash,
			total_assets = excluded.total_assets,
			updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, cash, totalAssets, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to reset account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

// Load hydrates the full ledger state from the journal database. Returns
// (nil, nil) when no account row exists yet (fresh database).
func (r *PositionRepository) Load() (*State, error) {
	var st State
	err := r.journalDB.QueryRow("SELECT cash, total_assets FROM account WHERE id = 1").
		Scan(&st.Cash, &st.TotalAssets)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	st.Open, err = r.loadOpen()
	if err != nil {
		return nil, err
	}
	st.Closed, err = r.loadClosed()
	if err != nil {
		return nil, err
	}

	return &st, nil
}

func (r *PositionRepository) loadOpen() ([]domain.Position, error) {
	query := "SELECT " + positionColumns + " FROM open_positions ORDER BY opened_at DESC, id"
	rows, err := r.journalDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan open position: %w", err)
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (r *PositionRepository) loadClosed() ([]domain.ClosedPosition, error) {
	query := "SELECT " + positionColumns + ", closed_at, realized_pl FROM closed_positions ORDER BY closed_at DESC, id"
	rows, err := r.journalDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed positions: %w", err)
	}
	defer rows.Close()

	closed := []domain.ClosedPosition{}
	for rows.Next() {
		var (
			pos        domain.Position
			closedAt   int64
			realizedPL float64
		)
		if err := scanPositionInto(rows, &pos, &closedAt, &realizedPL); err != nil {
			return nil, fmt.Errorf("failed to scan closed position: %w", err)
		}
		closed = append(closed, domain.ClosedPosition{
			Position:   pos,
			ClosedAt:   time.Unix(closedAt, 0),
			RealizedPL: realizedPL,
		})
	}
	return closed, rows.Err()
}

// positionArgs flattens a position into the insert argument list, matching
// positionColumns order. Timestamps are stored as Unix seconds.
func positionArgs(pos domain.Position) []interface{} {
	return []interface{}{
		pos.ID,
		pos.Code,
		pos.Name,
		string(pos.Board),
		pos.EntryPrice,
		pos.Tranche1Shares,
		pos.Tranche1Cost,
		pos.Tranche2TriggerPrice,
		pos.Tranche2Shares,
		pos.BlendedAvgPrice,
		pos.TakeProfitPrice,
		pos.TakeProfitFraction,
		pos.PostAddTakeProfitPrice,
		pos.StopLossPrice,
		pos.CreatedDate.Unix(),
		pos.DeadlineDate.Unix(),
		string(pos.RationaleCategory),
		pos.RationaleText,
		pos.CommittedCash,
		pos.OpenedAt.Unix(),
	}
}

func scanPosition(rows *sql.Rows) (domain.Position, error) {
	var pos domain.Position
	err := scanPositionInto(rows, &pos)
	return pos, err
}

// scanPositionInto scans the positionColumns set plus any trailing extras
// (closed_at, realized_pl for the archive table).
func scanPositionInto(rows *sql.Rows, pos *domain.Position, extras ...interface{}) error {
	var (
		board     string
		category  string
		createdAt int64
		deadline  int64
		openedAt  int64
	)
	dest := []interface{}{
		&pos.ID,
		&pos.Code,
		&pos.Name,
		&board,
		&pos.EntryPrice,
		&pos.Tranche1Shares,
		&pos.Tranche1Cost,
		&pos.Tranche2TriggerPrice,
		&pos.Tranche2Shares,
		&pos.BlendedAvgPrice,
		&pos.TakeProfitPrice,
		&pos.TakeProfitFraction,
		&pos.PostAddTakeProfitPrice,
		&pos.StopLossPrice,
		&createdAt,
		&deadline,
		&category,
		&pos.RationaleText,
		&pos.CommittedCash,
		&openedAt,
	}
	dest = append(dest, extras...)

	if err := rows.Scan(dest...); err != nil {
		return err
	}

	pos.Board = domain.Board(board)
	pos.RationaleCategory = domain.RationaleCategory(category)
	pos.CreatedDate = time.Unix(createdAt, 0)
	pos.DeadlineDate = time.Unix(deadline, 0)
	pos.OpenedAt = time.Unix(openedAt, 0)
	return nil
}
