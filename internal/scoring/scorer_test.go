package scoring

import (
	"testing"

	"wallet-scout/internal/domain"
)

const testNowMs = int64(1_700_000_000_000)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func bp(v bool) *bool       { return &v }

func testScorer() *Scorer {
	return NewScorerAt(testNowMs)
}

func TestScore_AlwaysInRange(t *testing.T) {
	cases := []struct {
		name string
		m    *domain.WalletMetrics
	}{
		{"empty", &domain.WalletMetrics{Address: "w"}},
		{"everything_negative", &domain.WalletMetrics{
			Address:         "w",
			ROI7D:           fp(-90),
			ROI30D:          fp(-95),
			MaxDrawdown30D:  fp(99),
			AvgTradeSizeSOL: fp(0.001),
			ProfitFactor:    fp(0.1),
			FreshWallet:     bp(true),
		}},
		{"everything_positive", &domain.WalletMetrics{
			Address:          "w",
			ROI7D:            fp(500),
			ROI30D:           fp(900),
			TradeCount30D:    ip(200),
			WinRate:          fp(1),
			Consistency:      fp(1),
			ProfitFactor:     fp(10),
			DownsideRatio:    fp(5),
			AvgEntryDelaySec: fp(600),
			AvgTradeSizeSOL:  fp(5),
		}},
		{"out_of_range_consistency", &domain.WalletMetrics{
			Address:     "w",
			Consistency: fp(3.5),
			WinRate:     fp(-2),
		}},
	}

	s := testScorer()
	for _, tc := range cases {
		score := s.Score(tc.m)
		if score < 0 || score > 100 {
			t.Errorf("%s: score %f out of [0,100]", tc.name, score)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	m := &domain.WalletMetrics{
		Address:       "w",
		ROI7D:         fp(12),
		ROI30D:        fp(40),
		TradeCount30D: ip(30),
		Consistency:   fp(0.7),
		ProfitFactor:  fp(1.6),
	}

	s := testScorer()
	first := s.Score(m)
	for i := 0; i < 10; i++ {
		if got := s.Score(m); got != first {
			t.Fatalf("score changed between calls: %f vs %f", got, first)
		}
	}
}

func TestScore_BotKillSwitch(t *testing.T) {
	// Entry under 30s zeroes the score regardless of everything else.
	m := &domain.WalletMetrics{
		Address:          "w",
		ROI7D:            fp(50),
		ROI30D:           fp(80),
		TradeCount30D:    ip(100),
		WinRate:          fp(0.9),
		Consistency:      fp(0.9),
		ProfitFactor:     fp(3),
		DownsideRatio:    fp(3),
		AvgEntryDelaySec: fp(12),
	}

	if got := testScorer().Score(m); got != 0 {
		t.Errorf("expected 0 for sub-30s entry delay, got %f", got)
	}
}

func TestScore_KillSwitchBoundary(t *testing.T) {
	m := &domain.WalletMetrics{
		Address:          "w",
		ROI30D:           fp(40),
		AvgEntryDelaySec: fp(30),
	}

	// Exactly 30s is not bot territory.
	if got := testScorer().Score(m); got == 0 {
		t.Errorf("expected nonzero score at 30s delay, got %f", got)
	}
}

func TestScore_ReferenceScenario(t *testing.T) {
	// roi_30d=50, consistency=0.8, roi_7d=10, trades=25, drawdown=5
	// must score strictly above 30 and within range.
	m := &domain.WalletMetrics{
		Address:        "w",
		ROI30D:         fp(50),
		ROI7D:          fp(10),
		Consistency:    fp(0.8),
		TradeCount30D:  ip(25),
		MaxDrawdown30D: fp(5),
	}

	score := testScorer().Score(m)
	if score <= 30 {
		t.Errorf("expected score > 30, got %f", score)
	}
	if score > 100 {
		t.Errorf("expected score <= 100, got %f", score)
	}
}

func TestScore_SpikePenaltyScenario(t *testing.T) {
	base := func(roi7 float64) *domain.WalletMetrics {
		return &domain.WalletMetrics{
			Address:       "w",
			ROI7D:         fp(roi7),
			ROI30D:        fp(30),
			Consistency:   fp(0.6),
			TradeCount30D: ip(25),
		}
	}

	s := testScorer()
	spiky := s.Score(base(100)) // 100 > 2*30: spike
	steady := s.Score(base(20))

	diff := steady - spiky
	if diff < 10 || diff > 20 {
		t.Errorf("expected spiky wallet ~15 (±5) points below steady, diff %f (spiky=%f steady=%f)",
			diff, spiky, steady)
	}
}

func TestScore_IncreasingROI30BoundedDecrease(t *testing.T) {
	// Increasing 30d return may toggle the spike penalty on, but never
	// costs more than the spike-penalty magnitude.
	m := func(roi30 float64) *domain.WalletMetrics {
		return &domain.WalletMetrics{
			Address:       "w",
			ROI7D:         fp(15),
			ROI30D:        fp(roi30),
			Consistency:   fp(0.7),
			TradeCount30D: ip(25),
		}
	}

	s := testScorer()
	prev := s.Score(m(0))
	for roi30 := 1.0; roi30 <= 120; roi30++ {
		cur := s.Score(m(roi30))
		if prev-cur > spikePenalty {
			t.Fatalf("roi30 %f: score dropped %f, more than spike penalty %f",
				roi30, prev-cur, spikePenalty)
		}
		prev = cur
	}
}

func TestScore_DrawdownNeverIncreasesScore(t *testing.T) {
	m := func(dd float64) *domain.WalletMetrics {
		return &domain.WalletMetrics{
			Address:        "w",
			ROI30D:         fp(40),
			Consistency:    fp(0.7),
			TradeCount30D:  ip(25),
			MaxDrawdown30D: fp(dd),
		}
	}

	s := testScorer()
	prev := s.Score(m(0))
	for dd := 1.0; dd <= 100; dd++ {
		cur := s.Score(m(dd))
		if cur > prev {
			t.Fatalf("drawdown %f increased score: %f > %f", dd, cur, prev)
		}
		prev = cur
	}
}

func TestScore_AbsentFieldsAreNotZero(t *testing.T) {
	// A wallet with no drawdown data must not be treated as one with a
	// recorded extreme drawdown.
	withDD := &domain.WalletMetrics{
		Address:        "w",
		ROI30D:         fp(40),
		MaxDrawdown30D: fp(60),
	}
	withoutDD := &domain.WalletMetrics{
		Address: "w",
		ROI30D:  fp(40),
	}

	s := testScorer()
	if s.Score(withoutDD) <= s.Score(withDD) {
		t.Errorf("absent drawdown scored no better than extreme drawdown")
	}
}

func TestScore_StalenessPenalty(t *testing.T) {
	recent := testNowMs - 60*60*1000
	stale := testNowMs - 30*24*60*60*1000

	m := func(last int64) *domain.WalletMetrics {
		return &domain.WalletMetrics{
			Address:     "w",
			ROI30D:      fp(40),
			Consistency: fp(0.7),
			LastTradeAt: &last,
		}
	}

	s := testScorer()
	if s.Score(m(recent)) <= s.Score(m(stale)) {
		t.Errorf("recently active wallet should outscore stale wallet")
	}
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.Tier
	}{
		{80, domain.TierActive},
		{70, domain.TierActive},
		{69.9, domain.TierCandidate},
		{40, domain.TierCandidate},
		{39.9, domain.TierRejected},
		{0, domain.TierRejected},
	}

	for _, tc := range cases {
		if got := TierFor(tc.score, 70, 40); got != tc.want {
			t.Errorf("TierFor(%f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
