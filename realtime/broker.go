// Package realtime fans freshly computed trend scores out to streaming
// subscribers (SSE and WebSocket clients of the API layer).
package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"domatrend/database/types"
)

// Broker broadcasts score updates to connected clients. Slow clients are
// skipped rather than blocking the broadcast loop.
type Broker struct {
	clients    map[chan []byte]bool
	register   chan chan []byte
	unregister chan chan []byte
	broadcast  chan []byte
	done       chan bool
	mu         sync.RWMutex
}

// NewBroker creates a new score-update broker
func NewBroker() *Broker {
	return &Broker{
		clients:    make(map[chan []byte]bool),
		register:   make(chan chan []byte),
		unregister: make(chan chan []byte),
		broadcast:  make(chan []byte, 256),
		done:       make(chan bool),
	}
}

// Run starts the broker loop
func (b *Broker) Run() {
	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			log.Printf("📡 Stream client connected. Total: %d", len(b.clients))

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client)
				log.Printf("📡 Stream client disconnected. Total: %d", len(b.clients))
			}
			b.mu.Unlock()

		case msg := <-b.broadcast:
			b.mu.RLock()
			for client := range b.clients {
				select {
				case client <- msg:
				default:
					// client buffer full, drop this update for it
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			return
		}
	}
}

// Stop terminates the broker loop
func (b *Broker) Stop() {
	close(b.done)
}

// PublishScore broadcasts a score update to every subscriber
func (b *Broker) PublishScore(update types.ScoreUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		log.Printf("⚠️  Failed to marshal score update: %v", err)
		return
	}

	select {
	case b.broadcast <- payload:
	default:
		// broadcast queue full, drop rather than block the scorer
	}
}

// ClientCount reports the number of connected subscribers
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Subscribe registers a new client channel. The caller must hand the
// channel back to Unsubscribe when done.
func (b *Broker) Subscribe() chan []byte {
	client := make(chan []byte, 10)
	b.register <- client
	return client
}

// Unsubscribe removes a client channel and closes it
func (b *Broker) Unsubscribe(client chan []byte) {
	b.unregister <- client
}

// ServeHTTP handles the SSE streaming endpoint
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := b.Subscribe()
	notify := r.Context().Done()

	for {
		select {
		case <-notify:
			b.Unsubscribe(client)
			return
		case msg, open := <-client:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
