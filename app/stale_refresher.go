package app

import (
	"context"
	"log"
	"time"

	models "domatrend/database/models_pkg"
)

// staleScoreStore lists scores past the freshness window (scores.Repository)
type staleScoreStore interface {
	Stale(cutoff time.Time, limit int) ([]models.TrendScoreRecord, error)
}

// StaleRefresher periodically recomputes the oldest stored scores so that
// domains nobody queries still drift toward current data.
type StaleRefresher struct {
	scores staleScoreStore
	scorer scoreUpdater

	interval  time.Duration
	freshness time.Duration
	batch     int

	done chan bool
}

// NewStaleRefresher creates the background score refresher
func NewStaleRefresher(scores staleScoreStore, scorer scoreUpdater, interval, freshness time.Duration, batch int) *StaleRefresher {
	return &StaleRefresher{
		scores:    scores,
		scorer:    scorer,
		interval:  interval,
		freshness: freshness,
		batch:     batch,
		done:      make(chan bool),
	}
}

// Start runs the refresher until Stop is called
func (sr *StaleRefresher) Start() {
	log.Printf("🔄 Stale score refresher started (interval: %v, batch: %d)", sr.interval, sr.batch)

	ticker := time.NewTicker(sr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sr.refreshStale()
		case <-sr.done:
			log.Println("🔄 Stale score refresher stopped")
			return
		}
	}
}

// Stop gracefully stops the refresher
func (sr *StaleRefresher) Stop() {
	close(sr.done)
}

// refreshStale recomputes one batch of scores older than the freshness
// window, oldest first. Per-domain failures are logged and skipped.
func (sr *StaleRefresher) refreshStale() {
	cutoff := time.Now().UTC().Add(-sr.freshness)

	stale, err := sr.scores.Stale(cutoff, sr.batch)
	if err != nil {
		log.Printf("❌ Failed to list stale scores: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("📊 Refreshing %d stale trend scores", len(stale))
	for _, record := range stale {
		if _, err := sr.scorer.UpdateTrendScore(context.Background(), record.DomainName, true); err != nil {
			log.Printf("⚠️  Stale refresh failed for %s: %v", record.DomainName, err)
		}
	}
}
