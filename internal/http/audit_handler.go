package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

const defaultAuditLimit = 50

type auditService interface {
	History(ctx context.Context, userID string, limit int) ([]persistence.AuditEntry, error)
}

type AuditHandler struct {
	service   auditService
	responder responder
}

func NewAuditHandler(service auditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{service: service, responder: newResponder(logger)}
}

// History returns the caller's own timer audit trail, newest first.
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	limit := defaultAuditLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	auth, _ := AuthFromContext(r.Context())

	entries, err := h.service.History(r.Context(), auth.UserID, limit)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]auditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, auditEntryDTO{
			ID:        entry.ID,
			UserID:    entry.UserID,
			EntryID:   entry.EntryID,
			Action:    entry.Action,
			Metadata:  entry.Metadata,
			Timestamp: entry.Timestamp,
		})
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, auditHistoryResponse{Entries: dtos})
}

type auditHistoryResponse struct {
	Entries []auditEntryDTO `json:"entries"`
}

type auditEntryDTO struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	EntryID   string            `json:"entryId"`
	Action    string            `json:"action"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
