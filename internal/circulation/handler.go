package circulation

import (
	"errors"
	"net/http"
	"strconv"
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

// BorrowerRoutes mounts checkout and return. Auth middleware is applied
// by the caller; the handlers trust borrower_id once it reaches them.
func (h *Handler) BorrowerRoutes(r chi.Router) {
	r.Post("/checkout", h.handleCheckout)
	r.Put("/return/{id}", h.handleReturn)
}

// AdminRoutes mounts the read-only query surface; the caller gates it.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/borrowed/{borrower_id}", h.handleBorrowed)
	r.Get("/overdue", h.handleOverdue)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID     int64  `json:"book_id"`
		BorrowerID int64  `json:"borrower_id"`
		DueDate    string `json:"due_date"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID < 1 || req.BorrowerID < 1 {
		httpx.Error(w, http.StatusBadRequest, "book_id and borrower_id are required")
		return
	}
	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "due_date must be a valid RFC 3339 timestamp")
		return
	}
	if dueDate.Before(time.Now()) {
		httpx.Error(w, http.StatusBadRequest, "due_date must not be in the past")
		return
	}

	loan, err := h.service.Checkout(r.Context(), req.BookID, req.BorrowerID, dueDate)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loan)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	loanID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || loanID < 1 {
		httpx.Error(w, http.StatusBadRequest, "invalid loan ID")
		return
	}

	receipt, err := h.service.Return(r.Context(), loanID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleBorrowed(w http.ResponseWriter, r *http.Request) {
	borrowerID, err := strconv.ParseInt(chi.URLParam(r, "borrower_id"), 10, 64)
	if err != nil || borrowerID < 1 {
		httpx.Error(w, http.StatusBadRequest, "invalid borrower ID")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.OutstandingByBorrower(r.Context(), borrowerID, page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.Overdue(r.Context(), time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loans)
}

// writeError maps the lending error set onto HTTP statuses. Conflict
// gets its own status so callers can distinguish reload-and-retry from
// plain failures.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrAlreadyReturned):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		httpx.Error(w, http.StatusConflict, ErrConflict.Error())
	default:
		httpx.Error(w, http.StatusInternalServerError, "internal error")
	}
}
