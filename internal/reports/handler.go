package reports

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"libris/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the export endpoints; the caller gates them as admin-only.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/export/csv", h.handleExportCSV)
	r.Get("/export/xlsx", h.handleExportXLSX)
	r.Get("/overdue/last-month", h.handleOverdueLastMonth)
	r.Get("/borrows/last-month", h.handleBorrowsLastMonth)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	export, err := h.service.BorrowsBetweenCSV(r.Context(), start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sendExport(w, export)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	export, err := h.service.BorrowsBetweenXLSX(r.Context(), start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	sendExport(w, export)
}

func (h *Handler) handleOverdueLastMonth(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.OverdueLastMonthCSV(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	sendExport(w, export)
}

func (h *Handler) handleBorrowsLastMonth(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.BorrowsLastMonthCSV(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	sendExport(w, export)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoRecords):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidRange):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func sendExport(w http.ResponseWriter, export *Export) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

// dateRange parses the start_date and end_date query parameters,
// accepting either a bare date or a full RFC 3339 timestamp.
func dateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	startStr := r.URL.Query().Get("start_date")
	endStr := r.URL.Query().Get("end_date")
	if startStr == "" || endStr == "" {
		httpx.Error(w, http.StatusBadRequest, "start_date and end_date are required")
		return time.Time{}, time.Time{}, false
	}

	start, err := parseDate(startStr)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid start_date")
		return time.Time{}, time.Time{}, false
	}
	end, err := parseDate(endStr)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid end_date")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
