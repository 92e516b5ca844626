package app

import (
	"context"
	"errors"
	"testing"
	"time"

	models "domatrend/database/models_pkg"
	"domatrend/database/types"
	"domatrend/doma"
)

type fakeRegistry struct {
	result   *doma.PollResult
	pollErr  error
	ackErr   error
	ackCalls []int64
}

func (f *fakeRegistry) Poll(ctx context.Context, limit int, finalizedOnly bool) (*doma.PollResult, error) {
	return f.result, f.pollErr
}

func (f *fakeRegistry) Ack(ctx context.Context, lastID int64) error {
	f.ackCalls = append(f.ackCalls, lastID)
	return f.ackErr
}

type fakeSink struct {
	seen    map[string]bool
	stored  []*models.RegistryEvent
	failOn  string
	appends int
}

func newFakeSink() *fakeSink {
	return &fakeSink{seen: make(map[string]bool)}
}

func (f *fakeSink) Append(event *models.RegistryEvent) (bool, error) {
	f.appends++
	if event.UniqueID == f.failOn {
		return false, errors.New("storage down")
	}
	if f.seen[event.UniqueID] {
		return false, nil
	}
	f.seen[event.UniqueID] = true
	f.stored = append(f.stored, event)
	return true, nil
}

type fakeUpdater struct {
	domains []string
	forced  []bool
	err     error
}

func (f *fakeUpdater) UpdateTrendScore(ctx context.Context, domainName string, forceUpdate bool) (*types.TrendScore, error) {
	f.domains = append(f.domains, domainName)
	f.forced = append(f.forced, forceUpdate)
	if f.err != nil {
		return nil, f.err
	}
	return &types.TrendScore{DomainName: domainName}, nil
}

func pollEvents() []doma.Event {
	return []doma.Event{
		{ID: 1, Type: models.EventNameTokenMinted, Name: "alpha.eth", UniqueID: "evt-1"},
		{ID: 2, Type: models.EventNameRenewed, Name: "alpha.eth", UniqueID: "evt-2"},
		{ID: 3, Type: models.EventNameTokenTransferred, Name: "beta.eth", UniqueID: "evt-3"},
	}
}

func TestPollOnceStoresAndAcks(t *testing.T) {
	registry := &fakeRegistry{result: &doma.PollResult{Events: pollEvents(), LastID: 3}}
	sink := newFakeSink()
	updater := &fakeUpdater{}

	p := NewPoller(registry, sink, updater, time.Minute, 50)
	p.pollOnce()

	if len(sink.stored) != 3 {
		t.Fatalf("expected 3 stored events, got %d", len(sink.stored))
	}
	if len(registry.ackCalls) != 1 || registry.ackCalls[0] != 3 {
		t.Errorf("expected one ack at 3, got %v", registry.ackCalls)
	}
	if len(updater.domains) != 2 {
		t.Errorf("expected 2 refreshed domains, got %v", updater.domains)
	}
	for i, forced := range updater.forced {
		if forced {
			t.Errorf("poll refresh for %s must not force a recompute", updater.domains[i])
		}
	}

	status := p.Status()
	if status.TotalIngested != 3 {
		t.Errorf("expected 3 ingested, got %d", status.TotalIngested)
	}
	if status.LastAckID != 3 {
		t.Errorf("expected ack id 3, got %d", status.LastAckID)
	}
	if status.LastBatchSize != 3 {
		t.Errorf("expected batch size 3, got %d", status.LastBatchSize)
	}
}

func TestPollOnceSkipsRedeliveredBatch(t *testing.T) {
	registry := &fakeRegistry{result: &doma.PollResult{Events: pollEvents(), LastID: 3}}
	sink := newFakeSink()
	updater := &fakeUpdater{}

	p := NewPoller(registry, sink, updater, time.Minute, 50)
	p.pollOnce()
	p.pollOnce() // same batch again, e.g. after a lost ack

	if len(sink.stored) != 3 {
		t.Errorf("redelivered batch must not duplicate events, got %d", len(sink.stored))
	}
	// Second cycle inserted nothing, so the cursor must not be re-acked
	if len(registry.ackCalls) != 1 {
		t.Errorf("expected exactly one ack, got %v", registry.ackCalls)
	}
	if len(updater.domains) != 2 {
		t.Errorf("no-op cycle must not refresh scores, got %v", updater.domains)
	}
}

func TestPollOnceSkipsMalformedEvents(t *testing.T) {
	registry := &fakeRegistry{result: &doma.PollResult{
		Events: []doma.Event{
			{ID: 1, Type: models.EventNameTokenMinted, Name: "alpha.eth", UniqueID: ""},
			{ID: 2, Type: models.EventNameTokenMinted, Name: "", UniqueID: "evt-2"},
			{ID: 3, Type: models.EventNameTokenMinted, Name: "beta.eth", UniqueID: "evt-3"},
		},
		LastID: 3,
	}}
	sink := newFakeSink()

	p := NewPoller(registry, sink, &fakeUpdater{}, time.Minute, 50)
	p.pollOnce()

	if len(sink.stored) != 1 {
		t.Fatalf("expected only the well-formed event, got %d", len(sink.stored))
	}
	if sink.stored[0].UniqueID != "evt-3" {
		t.Errorf("unexpected stored event %+v", sink.stored[0])
	}
}

func TestPollOnceSwallowsAckFailure(t *testing.T) {
	registry := &fakeRegistry{
		result: &doma.PollResult{Events: pollEvents(), LastID: 3},
		ackErr: errors.New("registry unavailable"),
	}
	sink := newFakeSink()
	updater := &fakeUpdater{}

	p := NewPoller(registry, sink, updater, time.Minute, 50)
	p.pollOnce()

	// Events are stored and scores refreshed despite the failed ack
	if len(sink.stored) != 3 {
		t.Errorf("expected 3 stored events, got %d", len(sink.stored))
	}
	if len(updater.domains) != 2 {
		t.Errorf("expected score refreshes despite ack failure, got %v", updater.domains)
	}
	if p.Status().LastAckID != 0 {
		t.Errorf("failed ack must not advance the cursor, got %d", p.Status().LastAckID)
	}
}

func TestPollOncePollFailure(t *testing.T) {
	registry := &fakeRegistry{pollErr: errors.New("timeout")}
	sink := newFakeSink()

	p := NewPoller(registry, sink, &fakeUpdater{}, time.Minute, 50)
	p.pollOnce()

	if sink.appends != 0 {
		t.Errorf("failed poll must not touch storage, got %d appends", sink.appends)
	}
	if len(registry.ackCalls) != 0 {
		t.Errorf("failed poll must not ack, got %v", registry.ackCalls)
	}
}

func TestPollOnceStorageFailureContinues(t *testing.T) {
	registry := &fakeRegistry{result: &doma.PollResult{Events: pollEvents(), LastID: 3}}
	sink := newFakeSink()
	sink.failOn = "evt-2"
	updater := &fakeUpdater{}

	p := NewPoller(registry, sink, updater, time.Minute, 50)
	p.pollOnce()

	// The failing event is skipped, the rest of the batch still lands
	if len(sink.stored) != 2 {
		t.Errorf("expected 2 stored events, got %d", len(sink.stored))
	}
	if p.Status().TotalIngested != 2 {
		t.Errorf("expected 2 ingested, got %d", p.Status().TotalIngested)
	}
	if len(registry.ackCalls) != 1 {
		t.Errorf("partial success must still ack, got %v", registry.ackCalls)
	}
}

func TestTriggerNowQueuesOnce(t *testing.T) {
	p := NewPoller(&fakeRegistry{result: &doma.PollResult{}}, newFakeSink(), &fakeUpdater{}, time.Minute, 50)

	if !p.TriggerNow() {
		t.Error("first trigger must queue")
	}
	if p.TriggerNow() {
		t.Error("second trigger must be dropped while one is pending")
	}
}
