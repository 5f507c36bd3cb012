package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/wuxing-lab/tianji/internal/domain"
)

// utf8BOM makes the exported CSV open cleanly in Excel, which otherwise
// guesses a legacy codepage for the Chinese rationale labels.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvHeader is the fixed export column set: one row per closed position.
var csvHeader = []string{"entry_date", "close_date", "code", "name", "rationale", "realized_pl"}

// WriteHistoryCSV writes the closed-position archive as UTF-8 CSV with a
// header row, most recent trade first (the order the slice carries).
func WriteHistoryCSV(w io.Writer, closed []domain.ClosedPosition) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range closed {
		cp := &closed[i]
		record := []string{
			cp.CreatedDate.Format("2006-01-02"),
			cp.ClosedAt.Format("2006-01-02"),
			cp.Code,
			cp.Name,
			cp.RationaleCategory.Info().Label,
			strconv.FormatFloat(cp.RealizedPL, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
