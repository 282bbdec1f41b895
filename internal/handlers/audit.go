package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nsetools/project-scheduler/internal/repo"
)

// AuditHandler exposes the audit log to authenticated operators.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	entries, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("audit: list", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]interface{}{
		"items":  entries,
		"limit":  limit,
		"offset": offset,
	}, http.StatusOK)
}
