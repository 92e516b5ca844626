package api

import (
	"encoding/json"
	"net/http"
	"time"

	"domatrend/trends"
)

var (
	limitMin    = 1
	limitMax    = 100
	trendingMax = 50
)

type scoreRequest struct {
	DomainName  string `json:"domainName"`
	ForceUpdate bool   `json:"forceUpdate"`
}

// handleScoreDomain computes (or serves the fresh stored copy of) the trend
// score for a single domain
func (s *Server) handleScoreDomain(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	name, ok := normalizeDomainName(req.DomainName)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid domain name", nil)
		return
	}

	score, err := s.scorer.UpdateTrendScore(r.Context(), name, req.ForceUpdate)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute trend score", err)
		return
	}

	respondWithJSON(w, http.StatusOK, score)
}

// handleGetTrending returns the highest-scored domains
func (s *Server) handleGetTrending(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 10, &limitMin, &trendingMax)

	scores, err := s.scorer.TopTrending(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to query trending domains", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(scores),
		"domains": scores,
	})
}

// handleGetDomainEvents returns the stored registry events for one domain,
// newest first
func (s *Server) handleGetDomainEvents(w http.ResponseWriter, r *http.Request) {
	name, ok := normalizeDomainName(r.PathValue("name"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid domain name", nil)
		return
	}
	limit := getIntParam(r, "limit", 50, &limitMin, &limitMax)

	events, err := s.events.ByDomain(name, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to query domain events", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"domain_name": name,
		"count":       len(events),
		"events":      events,
	})
}

// handleGetRecentEvents returns the most recently ingested registry events
func (s *Server) handleGetRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 50, &limitMin, &limitMax)

	events, err := s.events.Recent(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to query recent events", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}

// handleTriggerPoll asks the poll loop to run immediately
func (s *Server) handleTriggerPoll(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Poll loop not running", nil)
		return
	}

	triggered := s.poller.TriggerNow()
	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
		"triggered": triggered,
	})
}

// handleGetStatus reports service-wide counters and the poll loop snapshot
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	eventCount, err := s.events.Count()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to query status", err)
		return
	}
	domainCount, err := s.domains.Count()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to query status", err)
		return
	}
	scoreCount, err := s.scores.Count()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to query status", err)
		return
	}

	now := time.Now().UTC()
	searchCalls, err := s.usage.Count(trends.ServiceName, now.Format("2006-01-02"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to query status", err)
		return
	}

	status := map[string]interface{}{
		"events":             eventCount,
		"domains":            domainCount,
		"scores":             scoreCount,
		"search_calls_today": searchCalls,
		"stream_clients":     s.broker.ClientCount(),
		"time":               now,
	}
	if s.poller != nil {
		status["poller"] = s.poller.Status()
	}

	respondWithJSON(w, http.StatusOK, status)
}

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
