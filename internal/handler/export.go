package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pavelanni/lumira/internal/model"
)

// Exporter produces the results journal export.
type Exporter interface {
	ExportResults(ctx context.Context) (model.ResultsExport, error)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := h.exporter.ExportResults(r.Context())
	if err != nil {
		slog.Error("export results", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}
	writeJSON(w, http.StatusOK, exp)
}
