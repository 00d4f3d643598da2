package clickhouse

import (
	"context"
	"fmt"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/storage"
)

// SimTradeStore implements storage.SimulationArchive using ClickHouse.
// Rows are append-only; the archive is for offline analysis, not decisions.
type SimTradeStore struct {
	conn *Conn
}

// NewSimTradeStore creates a new SimTradeStore.
func NewSimTradeStore(conn *Conn) *SimTradeStore {
	return &SimTradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimulationArchive = (*SimTradeStore)(nil)

// Archive stores every per-trade row of a wallet's simulated result.
func (s *SimTradeStore) Archive(ctx context.Context, result *domain.SimulatedResult) error {
	if result == nil {
		return storage.ErrInvalidInput
	}
	if len(result.Trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO simulated_trades (
			wallet_address, strategy, mint, symbol, action, trade_timestamp_ms,
			amount_sol, liquidity_sol, slippage_pct, slippage_cost_sol,
			fee_cost_sol, simulated_pnl_sol, rejected, reject_category, reject_reason
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, st := range result.Trades {
		rejected := uint8(0)
		if st.Rejected {
			rejected = 1
		}
		reason := ""
		if st.RejectReason != nil {
			reason = *st.RejectReason
		}

		err = batch.Append(
			result.WalletAddress,
			result.StrategyName,
			st.Trade.Mint,
			st.Trade.Symbol,
			string(st.Trade.Action),
			uint64(st.Trade.Timestamp),
			st.Trade.AmountSOL,
			st.LiquiditySOL,
			st.SlippagePct,
			st.SlippageCostSOL,
			st.FeeCostSOL,
			st.SimulatedPnLSOL,
			rejected,
			string(st.RejectCategory),
			reason,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}
