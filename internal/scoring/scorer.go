// Package scoring computes the wallet quality score.
// The score is a pure function of WalletMetrics: no I/O, no mutable state.
package scoring

import (
	"math"
	"time"

	"wallet-scout/internal/domain"
)

// Rule weights and thresholds. Tunable business policy; the contract is the
// rule ordering and the [0,100] range, not the individual weights.
const (
	// Kill switch: entries faster than this are latency bots we cannot copy.
	botEntryDelaySec = 30.0

	roi30Cap    = 100.0 // percent of 30d return that still earns points
	roi30Weight = 0.25  // max 25 points
	roi7Cap     = 50.0
	roi7Weight  = 0.2 // max 10 points

	consistencyWeight = 15.0
	winRateWeight     = 10.0 // weaker proxy when consistency is absent

	activityStepBonus = 4.0 // per threshold crossed, saturating

	spikePenalty = 15.0 // large 7d spike over the 30d baseline

	drawdownModeratePct = 20.0
	drawdownSeverePct   = 35.0
	drawdownExtremePct  = 50.0
	drawdownModeratePen = 5.0
	drawdownSeverePen   = 12.0
	drawdownExtremePen  = 25.0

	dustTradeSizeSOL = 0.1
	dustPenalty      = 8.0

	// Entry-timing bands, seconds after first liquidity.
	fastBandLowSec   = 30.0
	fastBandHighSec  = 120.0
	fastBandPenalty  = 6.0
	sweetSpotLowSec  = 300.0
	sweetSpotHighSec = 3600.0
	sweetSpotBonus   = 6.0

	freshWalletPenalty = 10.0

	recentTradeWindowMs = 48 * int64(time.Hour/time.Millisecond)
	staleTradeWindowMs  = 21 * 24 * int64(time.Hour/time.Millisecond)
	recencyBonus        = 5.0
	stalenessPenalty    = 10.0
	momentumBonus       = 5.0
)

// activityThresholds are 30-day trade counts that each add activityStepBonus.
var activityThresholds = []int{10, 20, 40}

// Scorer computes wallet quality scores against a fixed reference time.
// The reference time only affects the recency rule; pinning it at
// construction keeps Score deterministic for a whole evaluation cycle.
type Scorer struct {
	nowMs int64
}

// NewScorer creates a Scorer referenced to the current wall clock.
func NewScorer() *Scorer {
	return NewScorerAt(time.Now().UnixMilli())
}

// NewScorerAt creates a Scorer referenced to a fixed timestamp (unix ms).
func NewScorerAt(nowMs int64) *Scorer {
	return &Scorer{nowMs: nowMs}
}

// Score returns the wallet quality score in [0,100].
// Rules apply in fixed order; all contributions are additive except the
// bot kill switch, which short-circuits to 0.
func (s *Scorer) Score(m *domain.WalletMetrics) float64 {
	// Rule 1: latency-bot kill switch. Overrides everything else.
	if m.AvgEntryDelaySec != nil && *m.AvgEntryDelaySec < botEntryDelaySec {
		return 0
	}

	score := 0.0
	score += returnContribution(m)
	score += consistencyContribution(m)
	score += activityContribution(m)
	score -= spikePenaltyFor(m)
	score -= drawdownPenaltyFor(m)
	score -= dustPenaltyFor(m)
	score += entryTimingAdjustment(m)
	score += profitFactorContribution(m)
	score += downsideRatioContribution(m)
	score -= freshWalletPenaltyFor(m)
	score += s.recencyContribution(m)

	return clamp(score, 0, 100)
}

// returnContribution rewards positive 30d and 7d returns, each capped so a
// single outlier trade cannot dominate the score.
func returnContribution(m *domain.WalletMetrics) float64 {
	total := 0.0
	if m.ROI30D != nil && *m.ROI30D > 0 {
		total += math.Min(*m.ROI30D, roi30Cap) * roi30Weight
	}
	if m.ROI7D != nil && *m.ROI7D > 0 {
		total += math.Min(*m.ROI7D, roi7Cap) * roi7Weight
	}
	return total
}

// consistencyContribution rewards the consistency measure, falling back to
// raw win rate as a weaker proxy when consistency is absent.
func consistencyContribution(m *domain.WalletMetrics) float64 {
	if m.Consistency != nil {
		return clamp(*m.Consistency, 0, 1) * consistencyWeight
	}
	if m.WinRate != nil {
		return clamp(*m.WinRate, 0, 1) * winRateWeight
	}
	return 0
}

// activityContribution adds a saturating bonus per trade-count threshold
// crossed. More realized trades, more statistical confidence.
func activityContribution(m *domain.WalletMetrics) float64 {
	if m.TradeCount30D == nil {
		return 0
	}
	total := 0.0
	for _, threshold := range activityThresholds {
		if *m.TradeCount30D >= threshold {
			total += activityStepBonus
		}
	}
	return total
}

// spikePenaltyFor fires when the 7d return is more than double the 30d
// return while the 30d return is meaningfully positive: evidence of one
// lucky trade rather than skill.
func spikePenaltyFor(m *domain.WalletMetrics) float64 {
	if m.ROI7D == nil || m.ROI30D == nil {
		return 0
	}
	if *m.ROI7D > 2*(*m.ROI30D) && *m.ROI30D > 5 {
		return spikePenalty
	}
	return 0
}

// drawdownPenaltyFor applies the highest matching drawdown tier.
func drawdownPenaltyFor(m *domain.WalletMetrics) float64 {
	if m.MaxDrawdown30D == nil {
		return 0
	}
	dd := *m.MaxDrawdown30D
	switch {
	case dd > drawdownExtremePct:
		return drawdownExtremePen
	case dd > drawdownSeverePct:
		return drawdownSeverePen
	case dd > drawdownModeratePct:
		return drawdownModeratePen
	}
	return 0
}

// dustPenaltyFor penalizes wallets trading below an economically copyable size.
func dustPenaltyFor(m *domain.WalletMetrics) float64 {
	if m.AvgTradeSizeSOL != nil && *m.AvgTradeSizeSOL < dustTradeSizeSOL {
		return dustPenalty
	}
	return 0
}

// entryTimingAdjustment penalizes the "still too fast to copy safely" band
// and rewards the human/algorithmic analysis sweet spot.
func entryTimingAdjustment(m *domain.WalletMetrics) float64 {
	if m.AvgEntryDelaySec == nil {
		return 0
	}
	d := *m.AvgEntryDelaySec
	switch {
	case d >= fastBandLowSec && d < fastBandHighSec:
		return -fastBandPenalty
	case d >= sweetSpotLowSec && d <= sweetSpotHighSec:
		return sweetSpotBonus
	}
	return 0
}

// profitFactorContribution rewards gross-gain-to-gross-loss ratio tiers.
// Win rate alone can be gamed by closing winners early and holding losers.
func profitFactorContribution(m *domain.WalletMetrics) float64 {
	if m.ProfitFactor == nil {
		return 0
	}
	pf := *m.ProfitFactor
	switch {
	case pf >= 2.0:
		return 8
	case pf >= 1.5:
		return 5
	case pf >= 1.2:
		return 2
	case pf < 0.8:
		return -8
	}
	return 0
}

// downsideRatioContribution adds small bonus tiers for the downside-risk ratio.
func downsideRatioContribution(m *domain.WalletMetrics) float64 {
	if m.DownsideRatio == nil {
		return 0
	}
	switch {
	case *m.DownsideRatio >= 2.0:
		return 5
	case *m.DownsideRatio >= 1.0:
		return 3
	}
	return 0
}

// freshWalletPenaltyFor penalizes newly created wallets (burner/insider proxy).
func freshWalletPenaltyFor(m *domain.WalletMetrics) float64 {
	if m.FreshWallet != nil && *m.FreshWallet {
		return freshWalletPenalty
	}
	return 0
}

// recencyContribution rewards very recent activity, penalizes staleness, and
// adds a momentum bonus when most of the 30d return materialized in the last
// 7 days with both windows positive. Distinguished from the spike penalty by
// requiring both windows positive and a weaker ratio test.
func (s *Scorer) recencyContribution(m *domain.WalletMetrics) float64 {
	total := 0.0
	if m.LastTradeAt != nil {
		age := s.nowMs - *m.LastTradeAt
		switch {
		case age >= 0 && age <= recentTradeWindowMs:
			total += recencyBonus
		case age > staleTradeWindowMs:
			total -= stalenessPenalty
		}
	}
	if m.ROI7D != nil && m.ROI30D != nil {
		roi7, roi30 := *m.ROI7D, *m.ROI30D
		if roi7 > 0 && roi30 > 0 && roi7 >= 0.6*roi30 && roi7 <= 2*roi30 {
			total += momentumBonus
		}
	}
	return total
}

// TierFor maps a score to its provisional tier given the configured
// minimum scores. Demotion to REJECTED happens only here, never in the
// promotion validator.
func TierFor(score, minActive, minCandidate float64) domain.Tier {
	switch {
	case score >= minActive:
		return domain.TierActive
	case score >= minCandidate:
		return domain.TierCandidate
	}
	return domain.TierRejected
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
