package trends

import (
	"fmt"
	"math"

	"domatrend/database/types"
)

// Synthetic builds deterministic placeholder metrics for a keyword. The
// same keyword always hashes to the same volume, trend, related queries
// and geographic spread, so repeated calls without a live cache entry stay
// stable across processes and restarts.
func (p *Provider) Synthetic(keyword string) types.SearchMetrics {
	h := keywordHash(keyword)

	volume := float64(40 + h%60)
	trend := float64(h%200)/100 - 1

	relatedQueries := []string{
		fmt.Sprintf("%s domain", keyword),
		fmt.Sprintf("%s price", keyword),
		fmt.Sprintf("%s web3", keyword),
		fmt.Sprintf("%s market share", keyword),
		fmt.Sprintf("%s analytics", keyword),
	}

	geographicData := map[string]float64{
		"US": float64(40 + h%15),
		"UK": float64(20 + h%10),
		"DE": float64(15 + h%10),
		"SG": float64(10 + h%5),
		"JP": float64(10 + h%7),
	}

	start, end := p.timeRange()
	return types.SearchMetrics{
		Volume:         math.Max(0, math.Min(100, volume)),
		Trend:          math.Max(-1, math.Min(1, trend)),
		RelatedQueries: relatedQueries,
		GeographicData: geographicData,
		TimeRangeStart: start,
		TimeRangeEnd:   end,
	}
}

// keywordHash is a simple 32-bit polynomial rolling hash over the keyword
func keywordHash(keyword string) uint32 {
	var h uint32
	for i := 0; i < len(keyword); i++ {
		h = h*31 + uint32(keyword[i])
	}
	return h
}
