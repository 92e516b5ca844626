package scorer

import (
	"context"
	"log"

	"domatrend/database/types"
	"domatrend/trends"
)

// eventFetchLimit caps how much event history feeds one aggregation
const eventFetchLimit = 100

// onChainMetrics derives activity metrics from stored events and the
// domain's registry snapshot. It never fails the scoring pipeline: any
// storage or registry trouble degrades to zeroed metrics with a log line.
func (s *Scorer) onChainMetrics(ctx context.Context, domainName string) types.OnChainMetrics {
	events, err := s.events.ByDomain(domainName, eventFetchLimit)
	if err != nil {
		log.Printf("❌ Failed to load events for %s: %v", domainName, err)
		return types.OnChainMetrics{Rarity: Rarity(domainName)}
	}

	// No exact-match history: widen to keyword variants (subdomains,
	// sibling TLDs) so a freshly queried name still gets a signal.
	if len(events) == 0 {
		keyword := trends.Keyword(domainName)
		events, err = s.events.ByKeyword(keyword, eventFetchLimit)
		if err != nil {
			log.Printf("❌ Failed to load keyword events for %s: %v", domainName, err)
			events = nil
		}
	}

	s.ensureDomainRecord(ctx, domainName)

	uniqueOwners := make(map[string]bool)
	priceSum := 0.0
	priceCount := 0
	for _, event := range events {
		// Best-effort owner proxy: explicit owner addresses are not part
		// of the event payload, so tx hash, network, then domain name
		// stand in for distinctness.
		switch {
		case event.TxHash != nil && *event.TxHash != "":
			uniqueOwners[*event.TxHash] = true
		case event.NetworkID != nil && *event.NetworkID != "":
			uniqueOwners[*event.NetworkID] = true
		default:
			uniqueOwners[event.DomainName] = true
		}

		if event.Price != nil {
			priceSum += *event.Price
			priceCount++
		}
	}

	averagePrice := 0.0
	if priceCount > 0 {
		averagePrice = priceSum / float64(priceCount)
	}

	return types.OnChainMetrics{
		TransactionCount: len(events),
		UniqueOwners:     len(uniqueOwners),
		AveragePrice:     averagePrice,
		Liquidity:        Liquidity(events, s.now()),
		Rarity:           Rarity(domainName),
	}
}

// ensureDomainRecord backfills the local domain snapshot from the registry
// the first time a name is scored. Failures are tolerated: the snapshot
// only enriches the domains table, the metrics above don't depend on it.
func (s *Scorer) ensureDomainRecord(ctx context.Context, domainName string) {
	existing, err := s.domains.Get(domainName)
	if err != nil {
		log.Printf("⚠️  Domain lookup failed for %s: %v", domainName, err)
		return
	}
	if existing != nil || s.registry == nil {
		return
	}

	record, err := s.registry.DomainByName(ctx, domainName)
	if err != nil {
		log.Printf("⚠️  Registry query failed for %s: %v", domainName, err)
		return
	}
	if record == nil {
		return
	}

	if err := s.domains.Upsert(record); err != nil {
		log.Printf("⚠️  Failed to store domain snapshot for %s: %v", domainName, err)
	}
}
