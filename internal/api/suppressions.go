package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListSuppressions(w http.ResponseWriter, r *http.Request) {
	list, err := s.suppressionSvc.List(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("list suppressions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list suppressions")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleDeleteSuppression lifts the suppression of one address. The channel
// defaults to email.
func (s *Server) handleDeleteSuppression(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if err := s.suppressionSvc.Remove(r.Context(), email, r.URL.Query().Get("channel")); err != nil {
		httpErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
