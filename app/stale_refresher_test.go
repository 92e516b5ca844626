package app

import (
	"errors"
	"testing"
	"time"

	models "domatrend/database/models_pkg"
)

type fakeStaleStore struct {
	records []models.TrendScoreRecord
	err     error
	cutoffs []time.Time
}

func (f *fakeStaleStore) Stale(cutoff time.Time, limit int) ([]models.TrendScoreRecord, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func TestRefreshStaleForcesRecompute(t *testing.T) {
	store := &fakeStaleStore{records: []models.TrendScoreRecord{
		{DomainName: "alpha.eth"},
		{DomainName: "beta.eth"},
	}}
	updater := &fakeUpdater{}

	sr := NewStaleRefresher(store, updater, time.Hour, 6*time.Hour, 25)
	sr.refreshStale()

	if len(updater.domains) != 2 {
		t.Fatalf("expected 2 refreshes, got %v", updater.domains)
	}
	for i, forced := range updater.forced {
		if !forced {
			t.Errorf("stale refresh for %s must force a recompute", updater.domains[i])
		}
	}

	if len(store.cutoffs) != 1 {
		t.Fatalf("expected one stale query, got %d", len(store.cutoffs))
	}
	age := time.Since(store.cutoffs[0])
	if age < 6*time.Hour || age > 6*time.Hour+time.Minute {
		t.Errorf("cutoff must sit one freshness window in the past, got %v ago", age)
	}
}

func TestRefreshStaleRespectsBatchLimit(t *testing.T) {
	store := &fakeStaleStore{records: []models.TrendScoreRecord{
		{DomainName: "a.eth"}, {DomainName: "b.eth"}, {DomainName: "c.eth"},
	}}
	updater := &fakeUpdater{}

	sr := NewStaleRefresher(store, updater, time.Hour, 6*time.Hour, 2)
	sr.refreshStale()

	if len(updater.domains) != 2 {
		t.Errorf("expected the batch limit to cap refreshes, got %v", updater.domains)
	}
}

func TestRefreshStaleContinuesPastFailures(t *testing.T) {
	store := &fakeStaleStore{records: []models.TrendScoreRecord{
		{DomainName: "alpha.eth"},
		{DomainName: "beta.eth"},
	}}
	updater := &fakeUpdater{err: errors.New("provider down")}

	sr := NewStaleRefresher(store, updater, time.Hour, 6*time.Hour, 25)
	sr.refreshStale()

	if len(updater.domains) != 2 {
		t.Errorf("per-domain failures must not stop the batch, got %v", updater.domains)
	}
}

func TestRefreshStaleListFailure(t *testing.T) {
	store := &fakeStaleStore{err: errors.New("db down")}
	updater := &fakeUpdater{}

	sr := NewStaleRefresher(store, updater, time.Hour, 6*time.Hour, 25)
	sr.refreshStale()

	if len(updater.domains) != 0 {
		t.Errorf("list failure must skip the cycle, got %v", updater.domains)
	}
}
