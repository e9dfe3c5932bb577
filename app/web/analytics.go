package web

import "net/http"

// APIStatsResponse is the per-status breakdown of the collection
type APIStatsResponse struct {
	Counts  map[string]int `json:"counts"`
	Total   int            `json:"total"`
	HasData bool           `json:"has_data"`
}

// APITrendResponse is the 30-day activity series, oldest day first
type APITrendResponse struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// handleStats returns the status breakdown of active records
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	b := s.tracker.StatusBreakdown()
	s.writeJSON(w, http.StatusOK, APIStatsResponse{Counts: b.Counts, Total: b.Total, HasData: b.HasData})
}

// handleTrend returns daily application counts for the trailing month
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	labels, counts := s.tracker.Trend()
	s.writeJSON(w, http.StatusOK, APITrendResponse{Labels: labels, Counts: counts})
}
