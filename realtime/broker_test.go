package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"domatrend/database/types"
)

func TestBrokerDeliversScoreUpdates(t *testing.T) {
	b := NewBroker()
	go b.Run()
	defer b.Stop()

	client := b.Subscribe()
	defer b.Unsubscribe(client)

	update := types.ScoreUpdate{
		DomainName: "alpha.eth",
		Score:      58.5,
		Confidence: 0.8,
		UpdatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	b.PublishScore(update)

	select {
	case msg := <-client:
		var got types.ScoreUpdate
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("broadcast is not valid JSON: %v", err)
		}
		if got.DomainName != "alpha.eth" || got.Score != 58.5 {
			t.Errorf("unexpected payload: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	go b.Run()
	defer b.Stop()

	client := b.Subscribe()
	b.Unsubscribe(client)

	select {
	case _, open := <-client:
		if open {
			t.Error("expected closed channel after unsubscribe")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBrokerDropsWhenClientBufferFull(t *testing.T) {
	b := NewBroker()
	go b.Run()
	defer b.Stop()

	client := b.Subscribe()
	defer b.Unsubscribe(client)

	// Flood well past the per-client buffer; the broker must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.PublishScore(types.ScoreUpdate{DomainName: "alpha.eth", Score: float64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a slow client")
	}
}
