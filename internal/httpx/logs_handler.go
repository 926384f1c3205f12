package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-retail-api.git/internal/audit"
)

// LogsHandler serves the audit trail's recent entries.
type LogsHandler struct {
	Audit *audit.Service
}

func (h *LogsHandler) Register(r *chi.Mux) {
	r.Get("/logs", h.recent)
}

func (h *LogsHandler) recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Audit.Recent(ctx, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
