package scorer

import (
	"context"
	"testing"
	"time"

	models "domatrend/database/models_pkg"
	"domatrend/database/types"
)

type fakeEventStore struct {
	events       []models.RegistryEvent
	keywordCalls int
}

func (f *fakeEventStore) ByDomain(domainName string, limit int) ([]models.RegistryEvent, error) {
	return f.events, nil
}

func (f *fakeEventStore) ByKeyword(keyword string, limit int) ([]models.RegistryEvent, error) {
	f.keywordCalls++
	return nil, nil
}

type fakeDomainStore struct {
	record  *models.DomainRecord
	upserts int
}

func (f *fakeDomainStore) Get(name string) (*models.DomainRecord, error) {
	return f.record, nil
}

func (f *fakeDomainStore) Upsert(record *models.DomainRecord) error {
	f.upserts++
	f.record = record
	return nil
}

type fakeScoreStore struct {
	records map[string]*models.TrendScoreRecord
	upserts int
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{records: make(map[string]*models.TrendScoreRecord)}
}

func (f *fakeScoreStore) Get(domainName string) (*models.TrendScoreRecord, error) {
	return f.records[domainName], nil
}

func (f *fakeScoreStore) Upsert(record *models.TrendScoreRecord) error {
	f.upserts++
	f.records[record.DomainName] = record
	return nil
}

func (f *fakeScoreStore) Top(limit int) ([]models.TrendScoreRecord, error) {
	out := make([]models.TrendScoreRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, *r)
	}
	return out, nil
}

type fakeInsightStore struct {
	record *models.AiInsightRecord
}

func (f *fakeInsightStore) Get(domainName string) (*models.AiInsightRecord, error) {
	return f.record, nil
}

func (f *fakeInsightStore) Upsert(record *models.AiInsightRecord) error {
	f.record = record
	return nil
}

type fakeRegistry struct{}

func (f *fakeRegistry) DomainByName(ctx context.Context, domainName string) (*models.DomainRecord, error) {
	return nil, nil
}

type fakeSearchProvider struct {
	metrics types.SearchMetrics
	calls   int
}

func (f *fakeSearchProvider) Metrics(ctx context.Context, domainName string) types.SearchMetrics {
	f.calls++
	return f.metrics
}

type fakeBroadcaster struct {
	updates []types.ScoreUpdate
}

func (f *fakeBroadcaster) PublishScore(update types.ScoreUpdate) {
	f.updates = append(f.updates, update)
}

func testScorer(now time.Time) (*Scorer, *fakeEventStore, *fakeScoreStore, *fakeSearchProvider, *fakeBroadcaster) {
	owner := "0xabc"
	events := &fakeEventStore{}
	scores := newFakeScoreStore()
	broker := &fakeBroadcaster{}
	search := &fakeSearchProvider{
		metrics: types.SearchMetrics{
			Volume:         500,
			Trend:          0.5,
			RelatedQueries: []string{"a", "b", "c", "d"},
			TimeRangeEnd:   now,
		},
	}

	s := New(Options{
		Events:   events,
		Domains:  &fakeDomainStore{record: &models.DomainRecord{Name: "alpha.eth", Owner: &owner}},
		Scores:   scores,
		Insights: &fakeInsightStore{},
		Registry: &fakeRegistry{},
		Search:   search,
		Broker:   broker,

		Freshness:  6 * time.Hour,
		InsightTTL: 6 * time.Hour,
	})
	s.SetClock(func() time.Time { return now })
	return s, events, scores, search, broker
}

func domainEvents(now time.Time, count int) []models.RegistryEvent {
	price := 2.0
	events := make([]models.RegistryEvent, 0, count)
	for i := 0; i < count; i++ {
		hash := string(rune('a'+i)) + "-hash"
		events = append(events, models.RegistryEvent{
			UniqueID:   hash,
			DomainName: "alpha.eth",
			TxHash:     &hash,
			Price:      &price,
			CreatedAt:  now.Add(-24 * time.Hour),
		})
	}
	return events
}

func TestUpdateTrendScoreServesFreshScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _, scores, search, _ := testScorer(now)

	stored := &models.TrendScoreRecord{
		DomainName:  "alpha.eth",
		Score:       42.5,
		LastUpdated: now.Add(-1 * time.Hour),
		DataPoints:  7,
		Confidence:  0.8,
	}
	scores.records["alpha.eth"] = stored

	score, err := s.UpdateTrendScore(context.Background(), "alpha.eth", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if score.Score != 42.5 {
		t.Errorf("expected stored score 42.5, got %v", score.Score)
	}
	if !score.Metadata.LastUpdated.Equal(stored.LastUpdated) {
		t.Errorf("fresh score must keep its timestamp, got %v", score.Metadata.LastUpdated)
	}
	if search.calls != 0 {
		t.Errorf("fresh score must not hit the search provider, got %d calls", search.calls)
	}
	if scores.upserts != 0 {
		t.Errorf("fresh score must not be rewritten, got %d upserts", scores.upserts)
	}
}

func TestUpdateTrendScoreRecomputesStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, events, scores, search, broker := testScorer(now)
	events.events = domainEvents(now, 6)

	scores.records["alpha.eth"] = &models.TrendScoreRecord{
		DomainName:  "alpha.eth",
		Score:       42.5,
		LastUpdated: now.Add(-7 * time.Hour),
	}

	score, err := s.UpdateTrendScore(context.Background(), "alpha.eth", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if search.calls != 1 {
		t.Fatalf("expected one search provider call, got %d", search.calls)
	}
	if scores.upserts != 1 {
		t.Fatalf("expected one upsert, got %d", scores.upserts)
	}

	expected := WeightedScore(score.Breakdown)
	if score.Score != expected {
		t.Errorf("score %v does not match its breakdown (want %v)", score.Score, expected)
	}
	if !almostEqual(score.Breakdown.SearchVolume, 50) {
		t.Errorf("expected search volume component 50, got %v", score.Breakdown.SearchVolume)
	}
	if !almostEqual(score.Breakdown.TrendDirection, 75) {
		t.Errorf("expected trend component 75, got %v", score.Breakdown.TrendDirection)
	}
	if !almostEqual(score.Metadata.Confidence, 1.0) {
		t.Errorf("expected full confidence, got %v", score.Metadata.Confidence)
	}
	if score.Metadata.DataPoints != 10 {
		t.Errorf("expected 10 data points, got %d", score.Metadata.DataPoints)
	}

	if len(broker.updates) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(broker.updates))
	}
	if broker.updates[0].Score != score.Score {
		t.Errorf("broadcast score %v does not match result %v", broker.updates[0].Score, score.Score)
	}
}

func TestUpdateTrendScoreForceRecomputes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _, scores, search, _ := testScorer(now)

	scores.records["alpha.eth"] = &models.TrendScoreRecord{
		DomainName:  "alpha.eth",
		Score:       42.5,
		LastUpdated: now.Add(-1 * time.Minute), // still fresh
	}

	if _, err := s.UpdateTrendScore(context.Background(), "alpha.eth", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if search.calls != 1 {
		t.Errorf("force update must recompute, got %d search calls", search.calls)
	}
	if scores.upserts != 1 {
		t.Errorf("force update must persist, got %d upserts", scores.upserts)
	}
}

func TestUpdateTrendScoreFallsBackToKeywordEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, events, _, _, _ := testScorer(now)

	// No stored events for the exact name: the keyword fallback must fire.
	if _, err := s.UpdateTrendScore(context.Background(), "alpha.eth", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events.keywordCalls != 1 {
		t.Errorf("expected one keyword fallback lookup, got %d", events.keywordCalls)
	}
}

func TestTopTrending(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, _, scores, _, _ := testScorer(now)

	scores.records["alpha.eth"] = &models.TrendScoreRecord{DomainName: "alpha.eth", Score: 90}
	scores.records["beta.eth"] = &models.TrendScoreRecord{DomainName: "beta.eth", Score: 40}

	top, err := s.TopTrending(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(top))
	}
}
