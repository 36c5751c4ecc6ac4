package circulation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService returns a canned error from every operation.
type stubService struct {
	err error
}

func (s *stubService) Checkout(ctx context.Context, bookID, borrowerID int64, dueDate time.Time) (*Loan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Loan{ID: 1, BookID: bookID, BorrowerID: borrowerID, DueDate: dueDate, Version: 1}, nil
}

func (s *stubService) Return(ctx context.Context, loanID int64) (*Receipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Receipt{LoanID: loanID, ReturnDate: time.Now().UTC()}, nil
}

func (s *stubService) OutstandingByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) (*LoanPage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &LoanPage{CurrentPage: 1, Loans: []LoanDetail{}}, nil
}

func (s *stubService) Overdue(ctx context.Context, asOf time.Time) ([]LoanDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []LoanDetail{}, nil
}

func newTestRouter(svc Service) chi.Router {
	h := NewHandler(svc)
	r := chi.NewRouter()
	h.BorrowerRoutes(r)
	h.AdminRoutes(r)
	return r
}

func checkoutBody(t *testing.T) *strings.Reader {
	t.Helper()
	due := time.Now().Add(14 * 24 * time.Hour).UTC().Format(time.RFC3339)
	return strings.NewReader(`{"book_id": 1, "borrower_id": 1, "due_date": "` + due + `"}`)
}

func TestHandlerErrorStatuses(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unavailable", ErrUnavailable, http.StatusBadRequest},
		{"already returned", ErrAlreadyReturned, http.StatusBadRequest},
		{"conflict", ErrConflict, http.StatusConflict},
		{"transient", transient(assert.AnError), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name+" on checkout", func(t *testing.T) {
			router := newTestRouter(&stubService{err: tc.err})
			req := httptest.NewRequest(http.MethodPost, "/checkout", checkoutBody(t))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})

		t.Run(tc.name+" on return", func(t *testing.T) {
			router := newTestRouter(&stubService{err: tc.err})
			req := httptest.NewRequest(http.MethodPut, "/return/1", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestHandlerSuccessStatuses(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/checkout", checkoutBody(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/return/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/borrowed/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/overdue", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerRejectsBadInput(t *testing.T) {
	router := newTestRouter(&stubService{})

	cases := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"malformed body", http.MethodPost, "/checkout", `{`},
		{"missing ids", http.MethodPost, "/checkout", `{"due_date": "2099-01-02T00:00:00Z"}`},
		{"past due date", http.MethodPost, "/checkout", `{"book_id": 1, "borrower_id": 1, "due_date": "2000-01-02T00:00:00Z"}`},
		{"bad due date", http.MethodPost, "/checkout", `{"book_id": 1, "borrower_id": 1, "due_date": "tomorrow"}`},
		{"non-numeric loan id", http.MethodPut, "/return/abc", ""},
		{"zero loan id", http.MethodPut, "/return/0", ""},
		{"non-numeric borrower id", http.MethodGet, "/borrowed/abc", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body *strings.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tc.method, tc.target, body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
