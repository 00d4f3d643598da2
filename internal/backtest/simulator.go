// Package backtest replays a wallet's historical trades under present-day
// liquidity, slippage and fee assumptions.
package backtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/liquidity"
	"wallet-scout/internal/observability"
)

// Reason used when a wallet has no trades at all.
const reasonNoTrades = "No trades to simulate"

// Simulator replays trades against the liquidity oracle.
type Simulator struct {
	oracle  *liquidity.Oracle
	metrics *observability.Metrics
	log     *zap.Logger
}

// NewSimulator creates a Simulator. Metrics may be nil.
func NewSimulator(oracle *liquidity.Oracle, metrics *observability.Metrics, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{oracle: oracle, metrics: metrics, log: log}
}

// SimulateWallet replays every trade independently and aggregates the
// outcome. Trades carry no state between each other; aggregate statistics
// are computed only after every per-trade result is known.
func (s *Simulator) SimulateWallet(ctx context.Context, address string, trades []*domain.HistoricalTrade, strat domain.StrategyConfig) (*domain.SimulatedResult, error) {
	result := &domain.SimulatedResult{
		WalletAddress: address,
		StrategyName:  strat.Name,
		TotalTrades:   len(trades),
	}

	if len(trades) == 0 {
		result.Passed = false
		result.FailureKind = domain.FailureNoTrades
		result.FailureReason = reasonNoTrades
		return result, nil
	}

	for _, trade := range trades {
		sim, err := s.simulateTrade(ctx, trade, strat)
		if err != nil {
			return nil, err
		}

		result.Trades = append(result.Trades, sim)
		if sim.Rejected {
			result.RejectedTrades++
			if sim.RejectReason != nil {
				result.RejectionReasons = append(result.RejectionReasons, *sim.RejectReason)
			}
			if s.metrics != nil {
				s.metrics.TradesRejected.WithLabelValues(string(sim.RejectCategory)).Inc()
			}
		} else {
			result.SimulatedTrades++
			if s.metrics != nil {
				s.metrics.TradesSimulated.Inc()
			}
			result.SimulatedPnLSOL += sim.SimulatedPnLSOL
			result.TotalSlippageCostSOL += sim.SlippageCostSOL
			result.TotalFeeCostSOL += sim.FeeCostSOL
		}
		if trade.RealizedPnLSOL != nil {
			result.OriginalPnLSOL += *trade.RealizedPnLSOL
		}
	}

	result.PnLDeltaSOL = result.SimulatedPnLSOL - result.OriginalPnLSOL
	s.judge(result, strat)

	return result, nil
}

// simulateTrade replays one trade.
func (s *Simulator) simulateTrade(ctx context.Context, trade *domain.HistoricalTrade, strat domain.StrategyConfig) (*domain.SimulatedTrade, error) {
	sim := &domain.SimulatedTrade{Trade: trade}

	snap, err := s.oracle.HistoricalOrCurrent(ctx, trade.Mint, trade.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("resolve liquidity for %s: %w", trade.Mint, err)
	}
	if snap == nil {
		reject(sim, domain.RejectNoData,
			fmt.Sprintf("no liquidity data for %s at trade time", trade.Symbol))
		return sim, nil
	}

	// A fallback snapshot is persisted so the next run resolves it from
	// history instead of paying the live-lookup cost again.
	if snap.IsFallback() {
		if err := s.oracle.SaveSnapshot(ctx, snap); err != nil {
			s.log.Warn("persist fallback snapshot failed",
				zap.String("mint", trade.Mint), zap.Error(err))
		}
	}

	sim.LiquiditySOL = &snap.LiquiditySOL
	sim.LiquidityOK = snap.LiquiditySOL >= strat.MinLiquiditySOL

	if !sim.LiquidityOK {
		reject(sim, domain.RejectLowLiquidity,
			fmt.Sprintf("insufficient liquidity: %.1f SOL below %s minimum %.1f SOL",
				snap.LiquiditySOL, strat.Name, strat.MinLiquiditySOL))
		return sim, nil
	}

	sim.SlippagePct = liquidity.EstimateSlippage(trade.AmountSOL, snap.LiquiditySOL)
	if sim.SlippagePct > strat.MaxSlippagePct {
		reject(sim, domain.RejectSlippage,
			fmt.Sprintf("excessive slippage: %.2f%% exceeds maximum %.2f%%",
				sim.SlippagePct, strat.MaxSlippagePct))
		return sim, nil
	}

	sim.SlippageCostSOL = trade.AmountSOL * sim.SlippagePct / 100
	sim.FeeCostSOL = trade.AmountSOL * strat.FeePct / 100

	realized := 0.0
	if trade.RealizedPnLSOL != nil {
		realized = *trade.RealizedPnLSOL
	}
	sim.SimulatedPnLSOL = realized - sim.SlippageCostSOL - sim.FeeCostSOL

	return sim, nil
}

// judge applies the aggregate pass/fail gates in order.
func (s *Simulator) judge(result *domain.SimulatedResult, strat domain.StrategyConfig) {
	if result.TotalTrades < strat.MinTrades {
		result.Passed = false
		result.FailureKind = domain.FailureInsufficientTrades
		result.FailureReason = fmt.Sprintf("insufficient trades: %d of %d required",
			result.TotalTrades, strat.MinTrades)
		return
	}

	if rejectedFraction(result) > 0.5 {
		result.Passed = false
		result.FailureKind = domain.FailureRejectionRate
		result.FailureReason = fmt.Sprintf("too many trades rejected: %d of %d",
			result.RejectedTrades, result.TotalTrades)
		return
	}

	if result.SimulatedPnLSOL < 0 {
		result.Passed = false
		result.FailureKind = domain.FailureNegativePnL
		result.FailureReason = fmt.Sprintf("negative simulated PnL: %.4f SOL",
			result.SimulatedPnLSOL)
		return
	}

	if result.OriginalPnLSOL > 0 && result.SimulatedPnLSOL < 0.2*result.OriginalPnLSOL {
		reduction := (1 - result.SimulatedPnLSOL/result.OriginalPnLSOL) * 100
		result.Passed = false
		result.FailureKind = domain.FailurePnLReduction
		result.FailureReason = fmt.Sprintf("simulated PnL down %.0f%% from original", reduction)
		return
	}

	result.Passed = true
	result.FailureKind = domain.FailureNone
	result.FailureReason = ""
}

func rejectedFraction(result *domain.SimulatedResult) float64 {
	if result.TotalTrades == 0 {
		return 0
	}
	return float64(result.RejectedTrades) / float64(result.TotalTrades)
}

func reject(sim *domain.SimulatedTrade, category domain.RejectCategory, reason string) {
	sim.Rejected = true
	sim.RejectCategory = category
	sim.RejectReason = &reason
}
