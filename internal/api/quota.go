package api

import "net/http"

func (s *Server) handleGetQuota(w http.ResponseWriter, r *http.Request) {
	report, err := s.quotaSvc.Report(r.Context())
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleRefreshQuota rediscovers the provider send rate and caches it.
func (s *Server) handleRefreshQuota(w http.ResponseWriter, r *http.Request) {
	rate, err := s.quotaSvc.Refresh(r.Context())
	if err != nil {
		s.logger.Error("quota refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rate": rate})
}
