package scorer

import (
	"math"
	"regexp"
	"strings"
	"time"

	models "domatrend/database/models_pkg"
	"domatrend/database/types"
)

// Scoring weights for the composite trend score. The stored score is
// always recomputable from its breakdown with these exact weights.
const (
	weightSearchVolume    = 0.30
	weightTrendDirection  = 0.25
	weightOnChainActivity = 0.25
	weightRarity          = 0.20
)

// liquidityLookbackDays bounds the recent-activity window used for the
// liquidity signal.
const liquidityLookbackDays = 30

// tldRarity ranks TLD scarcity classes; unknown TLDs get a small bonus
// for being off the beaten path.
var tldRarity = map[string]float64{
	"com":    0,
	"org":    5,
	"net":    5,
	"eth":    20,
	"crypto": 25,
	"nft":    20,
	"dao":    25,
	"defi":   20,
	"ai":     30,
	"web3":   25,
}

// commonWords is a small dictionary of names that read as real words in
// the web3 naming market.
var commonWords = map[string]bool{
	"crypto": true, "nft": true, "dao": true, "defi": true, "web3": true,
	"ai": true, "art": true, "game": true, "token": true, "coin": true,
	"swap": true, "trade": true, "market": true, "finance": true,
	"tech": true, "digital": true, "meta": true,
}

var (
	pureLetters  = regexp.MustCompile(`^[a-z]+$`)
	pureDigits   = regexp.MustCompile(`^\d+$`)
	letterDigits = regexp.MustCompile(`^[a-z]+\d+$`)
	cvcStart     = regexp.MustCompile(`^[bcdfghjklmnpqrstvwxyz][aeiou]`)
)

// NormalizeSearchVolume scales raw search volume onto 0-100
func NormalizeSearchVolume(volume float64) float64 {
	return math.Min(100, volume/1000*100)
}

// TrendDirectionScore maps a -1..1 trend onto 0-100
func TrendDirectionScore(trend float64) float64 {
	return (trend + 1) / 2 * 100
}

// OnChainActivityScore combines transaction count, liquidity and average
// price into one 0-100 component.
func OnChainActivityScore(m types.OnChainMetrics) float64 {
	transactionScore := math.Min(100, float64(m.TransactionCount)*10)
	priceScore := math.Min(100, m.AveragePrice*10)
	return transactionScore*0.4 + m.Liquidity*0.4 + priceScore*0.2
}

// WeightedScore composes the final score from the breakdown components,
// rounded to two decimals.
func WeightedScore(b types.ScoreBreakdown) float64 {
	score := b.SearchVolume*weightSearchVolume +
		b.TrendDirection*weightTrendDirection +
		b.OnChainActivity*weightOnChainActivity +
		b.Rarity*weightRarity
	return math.Round(score*100) / 100
}

// Confidence estimates how much signal backs a score. Starts at 0.5 and
// earns fixed increments for related-query depth, transaction depth,
// owner spread, and signal recency; capped at 1.
func Confidence(search types.SearchMetrics, onChain types.OnChainMetrics, now time.Time) float64 {
	confidence := 0.5

	if len(search.RelatedQueries) > 3 {
		confidence += 0.1
	}
	if onChain.TransactionCount > 5 {
		confidence += 0.2
	}
	if onChain.UniqueOwners > 2 {
		confidence += 0.1
	}
	if now.Sub(search.TimeRangeEnd) < 7*24*time.Hour {
		confidence += 0.1
	}

	return math.Min(1, confidence)
}

// Liquidity scores how much of a domain's event history falls inside the
// most recent lookback window, scaled onto 0-100.
func Liquidity(events []models.RegistryEvent, now time.Time) float64 {
	if len(events) == 0 {
		return 0
	}

	cutoff := now.Add(-liquidityLookbackDays * 24 * time.Hour)
	recent := 0
	for _, event := range events {
		if event.CreatedAt.After(cutoff) {
			recent++
		}
	}

	return math.Min(100, float64(recent)/liquidityLookbackDays*100)
}

// Rarity scores a domain name's scarcity from its length, TLD class,
// lexical pattern, brandability and dictionary status, clamped to 0-100.
func Rarity(domainName string) float64 {
	name := splitName(domainName)
	tld := splitTLD(domainName)

	rarity := 30.0

	switch {
	case len(name) <= 2:
		rarity += 40
	case len(name) <= 3:
		rarity += 35
	case len(name) <= 4:
		rarity += 25
	case len(name) <= 5:
		rarity += 15
	case len(name) <= 6:
		rarity += 10
	case len(name) <= 7:
		rarity += 5
	}

	if bonus, ok := tldRarity[tld]; ok {
		rarity += bonus
	} else {
		rarity += 15
	}

	if pureLetters.MatchString(name) {
		rarity += 5
	}
	if pureDigits.MatchString(name) {
		rarity += 15
	}
	if letterDigits.MatchString(name) {
		rarity += 10
	}
	if strings.Contains(name, "-") {
		rarity -= 5
	}
	if strings.Contains(name, "_") {
		rarity -= 8
	}

	rarity += Brandability(name) * 10

	if commonWords[name] {
		rarity += 10
	}

	return math.Max(0, math.Min(100, rarity))
}

// Brandability scores how memorable and pronounceable a name is, 0..1
func Brandability(name string) float64 {
	if name == "" {
		return 0
	}

	score := 0.5

	if len(name) >= 4 && len(name) <= 8 {
		score += 0.2
	} else if len(name) < 4 || len(name) > 10 {
		score -= 0.1
	}

	vowels := 0
	for _, r := range name {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			vowels++
		}
	}
	vowelRatio := float64(vowels) / float64(len(name))
	if vowelRatio >= 0.2 && vowelRatio <= 0.4 {
		score += 0.2
	} else if vowelRatio < 0.1 || vowelRatio > 0.6 {
		score -= 0.1
	}

	// Awkward consonant clusters hurt pronounceability
	if strings.Contains(name, "xq") || strings.Contains(name, "zx") || strings.Contains(name, "qj") {
		score -= 0.1
	}

	if hasDoubleLetter(name) {
		score += 0.1
	}
	if cvcStart.MatchString(name) {
		score += 0.1
	}

	return math.Max(0, math.Min(1, score))
}

func hasDoubleLetter(name string) bool {
	for i := 1; i < len(name); i++ {
		if name[i] == name[i-1] {
			return true
		}
	}
	return false
}

func splitName(domainName string) string {
	lowered := strings.ToLower(domainName)
	if idx := strings.IndexByte(lowered, '.'); idx > 0 {
		return lowered[:idx]
	}
	return lowered
}

func splitTLD(domainName string) string {
	lowered := strings.ToLower(domainName)
	if idx := strings.LastIndexByte(lowered, '.'); idx >= 0 && idx < len(lowered)-1 {
		return lowered[idx+1:]
	}
	return ""
}
