package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/sesrelay/internal/dispatch"
	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/service"
)

// maxSendBodyBytes bounds a send request, attachments included.
const maxSendBodyBytes = 32 << 20

type sendResponse struct {
	ID         string                    `json:"id"`
	Rate       int                       `json:"rate"`
	Sent       int                       `json:"sent"`
	Delivered  []dispatch.Delivery       `json:"delivered"`
	Suppressed []string                  `json:"suppressed"`
	Failed     []service.FailedRecipient `json:"failed"`
	Retry      *mail.Message             `json:"retry,omitempty"`
}

// handleCreateSend dispatches one message. A partial failure answers 207
// with the failed recipients and the narrowed message to resubmit.
func (s *Server) handleCreateSend(w http.ResponseWriter, r *http.Request) {
	var msg mail.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSendBodyBytes)).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	report, err := s.sendSvc.Send(r.Context(), &msg)
	if err != nil {
		s.logger.Error("send failed", "subject", msg.Subject, "error", err)
		httpErr(w, err)
		return
	}

	status := http.StatusOK
	if report.PartialFailure() {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, sendResponse{
		ID:         report.ID,
		Rate:       report.Rate,
		Sent:       len(report.Delivered),
		Delivered:  report.Delivered,
		Suppressed: report.Suppressed,
		Failed:     report.Failed,
		Retry:      report.Retry,
	})
}

func (s *Server) handleListSends(w http.ResponseWriter, r *http.Request) {
	entries, err := s.sendSvc.List(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("list sends failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sends")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetSend(w http.ResponseWriter, r *http.Request) {
	entry, err := s.sendSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
