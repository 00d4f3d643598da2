// Package pipeline runs one full evaluation cycle:
// ingest → risk veto → score → validate → publish → notify → summary.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wallet-scout/internal/addr"
	"wallet-scout/internal/decision"
	"wallet-scout/internal/domain"
	"wallet-scout/internal/ingestion"
	"wallet-scout/internal/observability"
	"wallet-scout/internal/reporting"
	"wallet-scout/internal/roster"
	"wallet-scout/internal/scoring"
	"wallet-scout/internal/storage"
)

// ACTIVE wallets are re-evaluated within this window.
const activeExpiry = 7 * 24 * time.Hour

// Options for creating a Pipeline.
type Options struct {
	Source    ingestion.CandidateSource // required
	Risk      ingestion.RiskChecker     // optional token veto
	Scorer    *scoring.Scorer           // required
	Validator *decision.Validator       // required
	Writer    *roster.Writer            // required
	Notifier  *roster.Notifier          // optional
	Archive   storage.SimulationArchive // optional backtest archive

	Strategy          domain.StrategyConfig
	MinScoreActive    float64
	MinScoreCandidate float64
	RiskFailOpen      bool

	Metrics *observability.Metrics // optional
	Logger  *zap.Logger
}

// Pipeline coordinates one evaluation run.
type Pipeline struct {
	source    ingestion.CandidateSource
	risk      ingestion.RiskChecker
	scorer    *scoring.Scorer
	validator *decision.Validator
	writer    *roster.Writer
	notifier  *roster.Notifier
	archive   storage.SimulationArchive

	strategy          domain.StrategyConfig
	minScoreActive    float64
	minScoreCandidate float64
	riskFailOpen      bool

	metrics *observability.Metrics
	log     *zap.Logger
	nowMs   func() int64
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		source:            opts.Source,
		risk:              opts.Risk,
		scorer:            opts.Scorer,
		validator:         opts.Validator,
		writer:            opts.Writer,
		notifier:          opts.Notifier,
		archive:           opts.Archive,
		strategy:          opts.Strategy,
		minScoreActive:    opts.MinScoreActive,
		minScoreCandidate: opts.MinScoreCandidate,
		riskFailOpen:      opts.RiskFailOpen,
		metrics:           opts.Metrics,
		log:               log,
		nowMs:             func() int64 { return time.Now().UnixMilli() },
	}
}

// Run executes the full evaluation cycle. Per-wallet failures are contained
// in the summary; only a publish failure is a run-level error. The summary
// is returned even when publication fails.
func (p *Pipeline) Run(ctx context.Context) (*reporting.Summary, error) {
	summary := reporting.NewSummary(p.strategy.Name)

	candidates, err := p.source.Candidates(ctx)
	if err != nil {
		return summary, fmt.Errorf("load candidates: %w", err)
	}
	p.log.Info("evaluation cycle started",
		zap.Int("candidates", len(candidates)),
		zap.String("strategy", p.strategy.Name))

	var records []*domain.WalletRecord
	for _, address := range candidates {
		rec, err := p.evaluateWallet(ctx, address, summary)
		if err != nil {
			p.log.Warn("wallet evaluation failed",
				zap.String("wallet", address), zap.Error(err))
			summary.RecordError(address)
			if p.metrics != nil {
				p.metrics.WalletErrors.Inc()
			}
			continue
		}
		records = append(records, rec)
		summary.RecordWallet(rec.Status)
	}

	start := time.Now()
	if err := p.writer.Publish(ctx, records); err != nil {
		if p.metrics != nil {
			p.metrics.PublishFailures.Inc()
		}
		return summary, fmt.Errorf("publish roster: %w", err)
	}
	summary.Published = true
	summary.RosterPath = p.writer.Path()
	summary.RecordCount = len(records)
	if p.metrics != nil {
		p.metrics.PublishDuration.Observe(time.Since(start).Seconds())
		p.metrics.LastSuccessfulPublish.SetToCurrentTime()
		p.metrics.RosterSize.Set(float64(len(records)))
	}

	// Notification failure never undoes the publish.
	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, p.writer.Path(), len(records)); err != nil {
			p.log.Warn("merge notification failed", zap.Error(err))
		}
	}

	return summary, nil
}

// evaluateWallet scores one wallet and, when it provisionally qualifies for
// ACTIVE, confirms the tier through the backtest validator.
func (p *Pipeline) evaluateWallet(ctx context.Context, address string, summary *reporting.Summary) (*domain.WalletRecord, error) {
	if err := addr.ValidateWallet(address); err != nil {
		return nil, fmt.Errorf("invalid wallet address: %w", err)
	}

	metrics, err := p.source.Metrics(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load metrics: %w", err)
	}
	if metrics == nil {
		return nil, fmt.Errorf("no metrics for wallet")
	}

	trades, err := p.source.Trades(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	trades = p.applyRiskVeto(ctx, trades)

	score := p.scorer.Score(metrics)
	tier := scoring.TierFor(score, p.minScoreActive, p.minScoreCandidate)
	if p.metrics != nil {
		p.metrics.ScoreDistribution.Observe(score)
	}

	notes := ""
	if tier == domain.TierActive {
		vr := p.validator.Validate(ctx, address, trades, p.strategy)
		summary.RecordValidation(vr.Status)
		tier = vr.RecommendedTier
		notes = vr.Reason
		if p.metrics != nil {
			p.metrics.BacktestsRun.WithLabelValues(string(vr.Status)).Inc()
		}
		if p.archive != nil && vr.Result != nil {
			if err := p.archive.Archive(ctx, vr.Result); err != nil {
				p.log.Warn("archive backtest failed",
					zap.String("wallet", address), zap.Error(err))
			}
		}
	}

	if p.metrics != nil {
		p.metrics.WalletsEvaluated.WithLabelValues(string(tier)).Inc()
	}

	return p.buildRecord(address, tier, score, notes, metrics, trades), nil
}

// applyRiskVeto drops trades in vetoed tokens. On a checker error the
// configured fail-open policy decides whether the token passes.
func (p *Pipeline) applyRiskVeto(ctx context.Context, trades []*domain.HistoricalTrade) []*domain.HistoricalTrade {
	if p.risk == nil || len(trades) == 0 {
		return trades
	}

	// The input slice backs the caller's trade history; filter into a
	// fresh slice so their elements survive intact.
	verdicts := make(map[string]bool)
	out := make([]*domain.HistoricalTrade, 0, len(trades))
	for _, tr := range trades {
		safe, known := verdicts[tr.Mint]
		if !known {
			var err error
			safe, err = p.risk.IsTokenSafe(ctx, tr.Mint)
			if err != nil {
				p.log.Warn("risk check failed",
					zap.String("mint", tr.Mint),
					zap.Bool("fail_open", p.riskFailOpen),
					zap.Error(err))
				safe = p.riskFailOpen
			}
			verdicts[tr.Mint] = safe
		}
		if safe {
			out = append(out, tr)
		}
	}
	return out
}

func (p *Pipeline) buildRecord(address string, tier domain.Tier, score float64, notes string, metrics *domain.WalletMetrics, trades []*domain.HistoricalTrade) *domain.WalletRecord {
	now := p.nowMs()

	rec := &domain.WalletRecord{
		Address:          address,
		Status:           tier,
		Score:            score,
		ROI7D:            metrics.ROI7D,
		ROI30D:           metrics.ROI30D,
		TradeCount30D:    metrics.TradeCount30D,
		WinRate:          metrics.WinRate,
		MaxDrawdown30D:   metrics.MaxDrawdown30D,
		AvgTradeSizeSOL:  metrics.AvgTradeSizeSOL,
		AvgEntryDelaySec: metrics.AvgEntryDelaySec,
		ProfitFactor:     metrics.ProfitFactor,
		LastTradeAt:      metrics.LastTradeAt,
		Notes:            notes,
		Archetype:        classifyArchetype(metrics),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	rec.AvgWinSOL, rec.AvgLossSOL, rec.RealizedPnL30DSOL = deriveTradeStats(trades)

	if tier == domain.TierActive {
		promoted := now
		expires := now + activeExpiry.Milliseconds()
		rec.PromotedAt = &promoted
		rec.ExpiresAt = &expires
	}

	return rec
}

// deriveTradeStats computes average win/loss size and total realized PnL
// over the trades that carry a realized outcome.
func deriveTradeStats(trades []*domain.HistoricalTrade) (avgWin, avgLoss, totalPnL *float64) {
	var winSum, lossSum, pnlSum float64
	var wins, losses int
	seen := false

	for _, tr := range trades {
		if tr.RealizedPnLSOL == nil {
			continue
		}
		seen = true
		pnl := *tr.RealizedPnLSOL
		pnlSum += pnl
		if pnl > 0 {
			winSum += pnl
			wins++
		} else if pnl < 0 {
			lossSum += -pnl
			losses++
		}
	}

	if !seen {
		return nil, nil, nil
	}
	if wins > 0 {
		v := winSum / float64(wins)
		avgWin = &v
	}
	if losses > 0 {
		v := lossSum / float64(losses)
		avgLoss = &v
	}
	totalPnL = &pnlSum
	return avgWin, avgLoss, totalPnL
}

// classifyArchetype assigns an informal trader tag from entry timing and
// trade size. Purely informational.
func classifyArchetype(m *domain.WalletMetrics) string {
	if m.AvgEntryDelaySec == nil {
		return ""
	}
	switch {
	case *m.AvgEntryDelaySec < 120:
		return "sniper"
	case *m.AvgEntryDelaySec < 600:
		return "scalper"
	default:
		return "swing"
	}
}
