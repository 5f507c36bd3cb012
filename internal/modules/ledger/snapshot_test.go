package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxing-lab/tianji/internal/domain"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	// No snapshot yet
	st, err := LoadSnapshot(dir)
	require.NoError(t, err)
	assert.Nil(t, st)

	now := time.Unix(time.Now().Unix(), 0)
	original := State{
		Cash:        920_000,
		TotalAssets: 1_000_000,
		Open: []domain.Position{
			{
				Plan: domain.Plan{
					Code:         "600519",
					Name:         "贵州茅台",
					Board:        domain.BoardMain,
					EntryPrice:   100,
					CreatedDate:  now,
					DeadlineDate: now.AddDate(0, 0, 20),
				},
				ID:                "pos-1",
				RationaleCategory: domain.RationaleTechnical,
				CommittedCash:     80_000,
				OpenedAt:          now,
			},
		},
		Closed: []domain.ClosedPosition{
			{
				Position: domain.Position{
					Plan: domain.Plan{Code: "300750", Name: "宁德时代", CreatedDate: now, DeadlineDate: now},
					ID:   "pos-0",
				},
				ClosedAt:   now,
				RealizedPL: -2_000,
			},
		},
		SavedAt: now,
	}

	require.NoError(t, SaveSnapshot(dir, original))

	loaded, err := LoadSnapshot(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.InDelta(t, original.Cash, loaded.Cash, 1e-9)
	assert.InDelta(t, original.TotalAssets, loaded.TotalAssets, 1e-9)
	require.Len(t, loaded.Open, 1)
	assert.Equal(t, original.Open[0].ID, loaded.Open[0].ID)
	assert.True(t, original.Open[0].OpenedAt.Equal(loaded.Open[0].OpenedAt))
	require.Len(t, loaded.Closed, 1)
	assert.InDelta(t, -2_000, loaded.Closed[0].RealizedPL, 1e-9)
}
