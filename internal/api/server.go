package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/sesrelay/internal/service"
)

const (
	errInvalidJSONBody = "invalid JSON body"
	defaultListLimit   = 50
	maxListLimit       = 1000
)

// Server holds all dependencies for the REST API handlers.
type Server struct {
	sendSvc        service.SendService
	suppressionSvc service.SuppressionService
	contactSvc     service.ContactService
	quotaSvc       service.QuotaService
	logger         *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(
	sendSvc service.SendService,
	suppressionSvc service.SuppressionService,
	contactSvc service.ContactService,
	quotaSvc service.QuotaService,
	logger *slog.Logger,
) *Server {
	return &Server{
		sendSvc:        sendSvc,
		suppressionSvc: suppressionSvc,
		contactSvc:     contactSvc,
		quotaSvc:       quotaSvc,
		logger:         logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Sends
	r.Get("/sends", s.handleListSends)
	r.Post("/sends", s.handleCreateSend)
	r.Get("/sends/{id}", s.handleGetSend)

	// Do-not-contact records
	r.Get("/suppressions", s.handleListSuppressions)
	r.Delete("/suppressions/{email}", s.handleDeleteSuppression)

	// Contacts
	r.Get("/contacts", s.handleListContacts)
	r.Post("/contacts", s.handleCreateContact)
	r.Get("/contacts/{id}", s.handleGetContact)
	r.Delete("/contacts/{id}", s.handleDeleteContact)

	// SES quota
	r.Get("/quota", s.handleGetQuota)
	r.Post("/quota/refresh", s.handleRefreshQuota)

	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// httpErr maps service errors to HTTP status codes.
func httpErr(w http.ResponseWriter, err error) {
	var (
		nf *service.NotFoundError
		ve *service.ValidationError
		ce *service.ConflictError
	)
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// queryLimit reads ?limit=N, falling back to the default for missing or
// invalid values.
func queryLimit(r *http.Request) int {
	limit := defaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxListLimit)
		}
	}
	return limit
}
