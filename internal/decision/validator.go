// Package decision runs the promotion validator: the final gate between a
// well-scored wallet and the ACTIVE roster tier. It drives a backtest
// through a small state machine and maps the outcome onto a typed
// validation status.
package decision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-scout/internal/domain"
)

// Backtester replays a wallet's trade history under a strategy.
type Backtester interface {
	SimulateWallet(ctx context.Context, address string, trades []*domain.HistoricalTrade, strat domain.StrategyConfig) (*domain.SimulatedResult, error)
}

// Validator decides whether a wallet earns the ACTIVE tier.
type Validator struct {
	backtester Backtester
	nowMs      func() int64
	log        *zap.Logger
}

// NewValidator creates a Validator.
func NewValidator(backtester Backtester, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		backtester: backtester,
		nowMs:      func() int64 { return time.Now().UnixMilli() },
		log:        log,
	}
}

// NewValidatorAt is NewValidator with a fixed clock, for tests.
func NewValidatorAt(backtester Backtester, log *zap.Logger, nowMs int64) *Validator {
	v := NewValidator(backtester, log)
	v.nowMs = func() int64 { return nowMs }
	return v
}

// Validate runs the full validation for one wallet. It never returns an
// error: backtester failures and panics both collapse into StatusError so
// one broken wallet cannot sink a batch run.
func (v *Validator) Validate(ctx context.Context, address string, trades []*domain.HistoricalTrade, strat domain.StrategyConfig) (out *domain.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("validation panicked",
				zap.String("wallet", address), zap.Any("panic", r))
			out = v.errorResult(address, fmt.Sprintf("validation panicked: %v", r))
		}
	}()

	state := StateBacktesting

	result, err := v.backtester.SimulateWallet(ctx, address, trades, strat)
	if err != nil {
		v.mustTransition(&state, StateError)
		return v.errorResult(address, fmt.Sprintf("backtest failed: %v", err))
	}
	v.mustTransition(&state, StateJudging)

	status := statusFor(result)
	if status == domain.StatusPassed {
		v.mustTransition(&state, StatePassed)
	} else {
		v.mustTransition(&state, StateFailed)
	}

	vr := &domain.ValidationResult{
		Address:     address,
		Status:      status,
		Result:      result,
		Passed:      status == domain.StatusPassed,
		Reason:      result.FailureReason,
		EvaluatedAt: v.nowMs(),
	}
	if vr.Passed {
		vr.RecommendedTier = domain.TierActive
		vr.Reason = fmt.Sprintf("backtest passed: %d/%d trades simulated, %.4f SOL net",
			result.SimulatedTrades, result.TotalTrades, result.SimulatedPnLSOL)
	} else {
		// A failed backtest demotes to CANDIDATE, never straight to
		// REJECTED; the wallet may recover on a later run.
		vr.RecommendedTier = domain.TierCandidate
	}

	v.log.Info("wallet validated",
		zap.String("wallet", address),
		zap.String("status", string(vr.Status)),
		zap.String("tier", string(vr.RecommendedTier)))

	return vr
}

// mustTransition advances the state machine, panicking on an illegal move.
// The recover in Validate converts such a bug into StatusError.
func (v *Validator) mustTransition(state *State, to State) {
	if !canTransition(*state, to) {
		panic(fmt.Sprintf("illegal validation transition %s -> %s", *state, to))
	}
	*state = to
}

func (v *Validator) errorResult(address, reason string) *domain.ValidationResult {
	return &domain.ValidationResult{
		Address:         address,
		Status:          domain.StatusError,
		Passed:          false,
		Reason:          reason,
		RecommendedTier: domain.TierCandidate,
		EvaluatedAt:     v.nowMs(),
	}
}

// statusFor maps a backtest outcome onto a typed validation status.
func statusFor(result *domain.SimulatedResult) domain.ValidationStatus {
	if result.Passed {
		return domain.StatusPassed
	}

	switch result.FailureKind {
	case domain.FailureNoTrades, domain.FailureInsufficientTrades:
		return domain.StatusFailedInsufficientTrades
	case domain.FailureRejectionRate:
		if dominantRejectIsSlippage(result) {
			return domain.StatusFailedSlippage
		}
		return domain.StatusFailedLiquidity
	case domain.FailureNegativePnL, domain.FailurePnLReduction:
		return domain.StatusFailedNegativePnL
	default:
		return domain.StatusError
	}
}

// dominantRejectIsSlippage reports whether slippage rejections outnumber
// liquidity ones among the rejected trades. Missing-data rejections count
// as liquidity problems.
func dominantRejectIsSlippage(result *domain.SimulatedResult) bool {
	var slippage, liquidityCnt int
	for _, st := range result.Trades {
		if !st.Rejected {
			continue
		}
		if st.RejectCategory == domain.RejectSlippage {
			slippage++
		} else {
			liquidityCnt++
		}
	}
	return slippage > liquidityCnt
}
