package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.started).Round(time.Second).String(),
	})
}

// handleReady checks the store and the templates.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.svc.Ledger().Ping(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["cache"] = map[string]any{"report_entries": s.reports.Size()}
	checks["rate_limiter"] = map[string]any{"active_clients": s.limiter.ActiveClients()}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	sec := s.detector.GetMetrics()
	tr := s.tracer.GetMetrics()

	counters := []struct {
		name, help, kind string
		value            any
	}{
		{"budgetbook_http_requests_total", "Total HTTP requests", "counter", tr.TotalRequests},
		{"budgetbook_http_requests_in_flight", "HTTP requests being served", "gauge", tr.InFlight},
		{"budgetbook_http_request_duration_avg_seconds", "Average request duration", "gauge", tr.AverageLatency.Seconds()},
		{"budgetbook_ledger_mutations_total", "Committed ledger writes", "counter", s.metrics.mutations.Load()},
		{"budgetbook_report_cache_hits_total", "Report cache hits", "counter", s.metrics.cacheHits.Load()},
		{"budgetbook_report_cache_misses_total", "Report cache misses", "counter", s.metrics.cacheMisses.Load()},
		{"budgetbook_report_cache_entries", "Cached reports", "gauge", s.reports.Size()},
		{"budgetbook_rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", s.limiter.Hits()},
		{"budgetbook_rate_limit_clients", "Clients tracked by the rate limiter", "gauge", s.limiter.ActiveClients()},
		{"budgetbook_suspicious_requests_total", "Suspicious requests detected", "counter", sec.SuspiciousRequests},
		{"budgetbook_blocked_requests_total", "Requests blocked by method", "counter", sec.BlockedRequests},
		{"budgetbook_uptime_seconds", "Seconds since start", "gauge", int64(time.Since(s.metrics.started).Seconds())},
	}
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n", c.name, c.help, c.name, c.kind, c.name, c.value)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
