package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"domatrend/database/domains"
	"domatrend/database/events"
	"domatrend/database/scores"
	"domatrend/database/types"
	"domatrend/database/usage"
	"domatrend/realtime"
)

// Server handles HTTP API requests
type Server struct {
	events  *events.Repository
	domains *domains.Repository
	scores  *scores.Repository
	usage   *usage.Repository
	broker  *realtime.Broker
	scorer  ScoringInterface
	poller  PollerInterface
}

// ScoringInterface defines the scoring operations the API exposes
type ScoringInterface interface {
	UpdateTrendScore(ctx context.Context, domainName string, forceUpdate bool) (*types.TrendScore, error)
	TopTrending(limit int) ([]types.TrendScore, error)
}

// PollerInterface defines the poll-loop operations the API exposes
type PollerInterface interface {
	TriggerNow() bool
	Status() types.PollerStatus
}

// NewServer creates a new API server instance
func NewServer(eventRepo *events.Repository, domainRepo *domains.Repository, scoreRepo *scores.Repository, usageRepo *usage.Repository, broker *realtime.Broker, scoringService ScoringInterface) *Server {
	return &Server{
		events:  eventRepo,
		domains: domainRepo,
		scores:  scoreRepo,
		usage:   usageRepo,
		broker:  broker,
		scorer:  scoringService,
	}
}

// SetPoller sets the poll-loop control used by the trigger and status routes
func (s *Server) SetPoller(poller PollerInterface) {
	s.poller = poller
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("POST /api/score", s.handleScoreDomain)
	mux.HandleFunc("GET /api/trending", s.handleGetTrending)
	mux.HandleFunc("GET /api/domains/{name}/events", s.handleGetDomainEvents)
	mux.HandleFunc("GET /api/events/recent", s.handleGetRecentEvents)

	// Poll Loop Routes
	mux.HandleFunc("POST /api/poll/trigger", s.handleTriggerPoll)
	mux.HandleFunc("GET /api/status", s.handleGetStatus)

	// Streaming Routes
	mux.Handle("GET /api/scores/stream", s.broker) // SSE Endpoint
	mux.HandleFunc("GET /api/scores/ws", s.handleScoresWebSocket)

	mux.HandleFunc("GET /health", s.handleHealth)

	// Add middleware
	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("🚀 API Server starting on %s", serverAddr)
	return http.ListenAndServe(serverAddr, handler)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
