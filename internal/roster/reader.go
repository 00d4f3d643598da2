package roster

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"wallet-scout/internal/domain"
)

const selectWalletsQuery = `
SELECT address, status, score,
       roi_7d, roi_30d, trade_count_30d, win_rate, max_drawdown_30d,
       avg_trade_size_sol, avg_entry_delay_sec, profit_factor,
       avg_win_sol, avg_loss_sol, realized_pnl_30d_sol,
       last_trade_at, promoted_at, expires_at,
       notes, archetype, created_at, updated_at
FROM wallets
ORDER BY score DESC, address`

// ReadAll opens a published roster artifact and returns every record,
// best score first.
func ReadAll(ctx context.Context, path string) ([]*domain.WalletRecord, error) {
	// The driver would happily create an empty database at a missing
	// path; a reader must never plant files at the published location.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, selectWalletsQuery)
	if err != nil {
		return nil, fmt.Errorf("query wallets: %w", err)
	}
	defer rows.Close()

	var records []*domain.WalletRecord
	for rows.Next() {
		rec := &domain.WalletRecord{}
		var status string
		err := rows.Scan(
			&rec.Address, &status, &rec.Score,
			&rec.ROI7D, &rec.ROI30D, &rec.TradeCount30D, &rec.WinRate, &rec.MaxDrawdown30D,
			&rec.AvgTradeSizeSOL, &rec.AvgEntryDelaySec, &rec.ProfitFactor,
			&rec.AvgWinSOL, &rec.AvgLossSOL, &rec.RealizedPnL30DSOL,
			&rec.LastTradeAt, &rec.PromotedAt, &rec.ExpiresAt,
			&rec.Notes, &rec.Archetype, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		rec.Status = domain.Tier(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}

	return records, nil
}
