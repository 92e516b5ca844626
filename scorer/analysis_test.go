package scorer

import (
	"math"
	"testing"
	"time"

	models "domatrend/database/models_pkg"
	"domatrend/database/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name      string
		breakdown types.ScoreBreakdown
		expected  float64
	}{
		{
			name: "mixed components",
			breakdown: types.ScoreBreakdown{
				SearchVolume:    80,
				TrendDirection:  60,
				OnChainActivity: 50,
				Rarity:          40,
			},
			expected: 59.5,
		},
		{
			name:      "all zero",
			breakdown: types.ScoreBreakdown{},
			expected:  0,
		},
		{
			name: "all maxed",
			breakdown: types.ScoreBreakdown{
				SearchVolume:    100,
				TrendDirection:  100,
				OnChainActivity: 100,
				Rarity:          100,
			},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedScore(tt.breakdown)
			if !almostEqual(got, tt.expected) {
				t.Errorf("expected %.2f, got %.2f", tt.expected, got)
			}
		})
	}
}

func TestWeightedScoreDeterministic(t *testing.T) {
	breakdown := types.ScoreBreakdown{
		SearchVolume:    73.4,
		TrendDirection:  21.9,
		OnChainActivity: 55.1,
		Rarity:          88,
	}

	first := WeightedScore(breakdown)
	for i := 0; i < 10; i++ {
		if got := WeightedScore(breakdown); got != first {
			t.Fatalf("score is not deterministic: %v vs %v", first, got)
		}
	}
}

func TestNormalizeSearchVolume(t *testing.T) {
	tests := []struct {
		volume   float64
		expected float64
	}{
		{0, 0},
		{500, 50},
		{1000, 100},
		{25000, 100}, // capped
	}

	for _, tt := range tests {
		if got := NormalizeSearchVolume(tt.volume); !almostEqual(got, tt.expected) {
			t.Errorf("NormalizeSearchVolume(%v): expected %v, got %v", tt.volume, tt.expected, got)
		}
	}
}

func TestTrendDirectionScore(t *testing.T) {
	tests := []struct {
		trend    float64
		expected float64
	}{
		{-1, 0},
		{0, 50},
		{1, 100},
		{0.5, 75},
	}

	for _, tt := range tests {
		if got := TrendDirectionScore(tt.trend); !almostEqual(got, tt.expected) {
			t.Errorf("TrendDirectionScore(%v): expected %v, got %v", tt.trend, tt.expected, got)
		}
	}
}

func TestOnChainActivityScore(t *testing.T) {
	metrics := types.OnChainMetrics{
		TransactionCount: 5,
		AveragePrice:     2,
		Liquidity:        60,
	}

	// 50*0.4 + 60*0.4 + 20*0.2
	if got := OnChainActivityScore(metrics); !almostEqual(got, 48) {
		t.Errorf("expected 48, got %v", got)
	}

	// transaction and price components cap at 100
	huge := types.OnChainMetrics{
		TransactionCount: 1000,
		AveragePrice:     9999,
		Liquidity:        100,
	}
	if got := OnChainActivityScore(huge); !almostEqual(got, 100) {
		t.Errorf("expected cap at 100, got %v", got)
	}
}

func TestConfidence(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	staleEnd := now.Add(-8 * 24 * time.Hour)

	tests := []struct {
		name     string
		search   types.SearchMetrics
		onChain  types.OnChainMetrics
		expected float64
	}{
		{
			name:     "baseline with no supporting signal",
			search:   types.SearchMetrics{TimeRangeEnd: staleEnd},
			expected: 0.5,
		},
		{
			name:     "deep transaction history",
			search:   types.SearchMetrics{TimeRangeEnd: staleEnd},
			onChain:  types.OnChainMetrics{TransactionCount: 6},
			expected: 0.7,
		},
		{
			name: "every bonus lands at the cap",
			search: types.SearchMetrics{
				RelatedQueries: []string{"a", "b", "c", "d"},
				TimeRangeEnd:   now,
			},
			onChain:  types.OnChainMetrics{TransactionCount: 6, UniqueOwners: 3},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.search, tt.onChain, now)
			if !almostEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLiquidity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if got := Liquidity(nil, now); got != 0 {
		t.Errorf("expected 0 for no events, got %v", got)
	}

	events := []models.RegistryEvent{
		{CreatedAt: now.Add(-1 * 24 * time.Hour)},
		{CreatedAt: now.Add(-5 * 24 * time.Hour)},
		{CreatedAt: now.Add(-29 * 24 * time.Hour)},
		{CreatedAt: now.Add(-45 * 24 * time.Hour)}, // outside window
		{CreatedAt: now.Add(-90 * 24 * time.Hour)}, // outside window
	}

	if got := Liquidity(events, now); !almostEqual(got, 10) {
		t.Errorf("expected 10, got %v", got)
	}
}

func TestRarity(t *testing.T) {
	tests := []struct {
		domainName string
		expected   float64
	}{
		{"ai.eth", 100}, // short dictionary word on a scarce TLD clamps at the top
		{"my-long-domain.com", 31},
		{"123.com", 83},
	}

	for _, tt := range tests {
		t.Run(tt.domainName, func(t *testing.T) {
			got := Rarity(tt.domainName)
			if !almostEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRarityBounds(t *testing.T) {
	names := []string{
		"a.eth", "zz.crypto", "x_y-z.com", "supercalifragilistic.net",
		"99999999.ai", "web3.web3", "", "no-tld",
	}

	for _, name := range names {
		got := Rarity(name)
		if got < 0 || got > 100 {
			t.Errorf("Rarity(%q) = %v, out of [0, 100]", name, got)
		}
	}
}

func TestBrandability(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{"empty name", "", 0},
		{"short with heavy vowels", "neo", 0.4},
		{"pronounceable with double letter", "coffee", 0.9},
		{"awkward consonant cluster", "zxqjv", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Brandability(tt.input)
			if !almostEqual(got, tt.expected) {
				t.Errorf("Brandability(%q): expected %v, got %v", tt.input, tt.expected, got)
			}
		})
	}
}

func TestBrandabilityBounds(t *testing.T) {
	names := []string{"a", "aeiou", "bcdfg", "tokenizer", "xx", "q"}

	for _, name := range names {
		got := Brandability(name)
		if got < 0 || got > 1 {
			t.Errorf("Brandability(%q) = %v, out of [0, 1]", name, got)
		}
	}
}
