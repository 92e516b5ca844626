package app

import (
	"context"
	"log"
	"sync"
	"time"

	models "domatrend/database/models_pkg"
	"domatrend/database/types"
	"domatrend/doma"
)

// eventSource is the registry poll/ack surface (doma.Client)
type eventSource interface {
	Poll(ctx context.Context, limit int, finalizedOnly bool) (*doma.PollResult, error)
	Ack(ctx context.Context, lastID int64) error
}

// eventSink appends events idempotently (events.Repository)
type eventSink interface {
	Append(event *models.RegistryEvent) (bool, error)
}

// scoreUpdater recomputes trend scores (scorer.Scorer)
type scoreUpdater interface {
	UpdateTrendScore(ctx context.Context, domainName string, forceUpdate bool) (*types.TrendScore, error)
}

// Poller drives the registry poll loop: fetch a batch of events, store the
// new ones, acknowledge the cursor, and refresh scores for touched domains.
type Poller struct {
	registry eventSource
	events   eventSink
	scorer   scoreUpdater

	interval time.Duration
	limit    int

	trigger chan struct{}
	done    chan bool

	mu            sync.Mutex
	polling       bool
	lastPollAt    time.Time
	lastBatchSize int
	totalIngested int64
	lastAckID     int64
}

// NewPoller creates the registry poll loop worker
func NewPoller(registry eventSource, events eventSink, scorer scoreUpdater, interval time.Duration, limit int) *Poller {
	return &Poller{
		registry: registry,
		events:   events,
		scorer:   scorer,
		interval: interval,
		limit:    limit,
		trigger:  make(chan struct{}, 1),
		done:     make(chan bool),
	}
}

// Start runs the poll loop until Stop is called
func (p *Poller) Start() {
	log.Printf("🔄 Registry poller started (interval: %v, batch: %d)", p.interval, p.limit)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Run immediately on start
	p.pollOnce()

	for {
		select {
		case <-ticker.C:
			p.pollOnce()
		case <-p.trigger:
			p.pollOnce()
		case <-p.done:
			log.Println("🔄 Registry poller stopped")
			return
		}
	}
}

// Stop gracefully stops the poller
func (p *Poller) Stop() {
	close(p.done)
}

// TriggerNow requests an immediate poll cycle. Returns false when a cycle
// is already queued or in flight.
func (p *Poller) TriggerNow() bool {
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Status returns a snapshot of the poll loop counters
func (p *Poller) Status() types.PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return types.PollerStatus{
		Running:       p.polling,
		LastPollAt:    p.lastPollAt,
		LastBatchSize: p.lastBatchSize,
		TotalIngested: p.totalIngested,
		LastAckID:     p.lastAckID,
	}
}

// pollOnce runs a single poll cycle. At most one cycle runs at a time;
// overlapping requests are dropped.
func (p *Poller) pollOnce() {
	p.mu.Lock()
	if p.polling {
		p.mu.Unlock()
		return
	}
	p.polling = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.polling = false
		p.mu.Unlock()
	}()

	ctx := context.Background()

	result, err := p.registry.Poll(ctx, p.limit, true)
	if err != nil {
		log.Printf("❌ Registry poll failed: %v", err)
		return
	}

	now := time.Now().UTC()
	inserted := 0
	touched := make(map[string]bool)

	for i := range result.Events {
		event := &result.Events[i]
		if event.UniqueID == "" || event.Name == "" {
			continue
		}

		record := &models.RegistryEvent{
			UniqueID:   event.UniqueID,
			EventType:  event.Type,
			DomainName: event.Name,
			Price:      doma.ExtractPrice(event),
			TxHash:     doma.ExtractTxHash(event),
			NetworkID:  doma.ExtractNetworkID(event),
			CreatedAt:  now,
		}

		isNew, err := p.events.Append(record)
		if err != nil {
			log.Printf("❌ Failed to store event %s: %v", event.UniqueID, err)
			continue
		}
		if isNew {
			inserted++
			touched[event.Name] = true
		}
	}

	// Only advance the registry cursor when this cycle stored something new.
	// A failed ack just means the batch is re-delivered and deduplicated.
	if inserted > 0 && result.LastID > 0 {
		if err := p.registry.Ack(ctx, result.LastID); err != nil {
			log.Printf("⚠️  Failed to ack events up to %d: %v", result.LastID, err)
		} else {
			p.mu.Lock()
			p.lastAckID = result.LastID
			p.mu.Unlock()
		}
	}

	p.mu.Lock()
	p.lastPollAt = now
	p.lastBatchSize = len(result.Events)
	p.totalIngested += int64(inserted)
	p.mu.Unlock()

	if inserted > 0 {
		log.Printf("📊 Poll cycle: %d events received, %d new, %d domains touched",
			len(result.Events), inserted, len(touched))
	}

	for name := range touched {
		if _, err := p.scorer.UpdateTrendScore(ctx, name, false); err != nil {
			log.Printf("⚠️  Score refresh failed for %s: %v", name, err)
		}
	}
}
