package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"
)

var pgDialect = goqu.Dialect("postgres")

// service implements the Service interface.
type service struct {
	db *sqlx.DB
}

// NewService creates a new reports service instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

func exportColumns() []interface{} {
	return []interface{}{
		goqu.I("l.id").As("borrow_id"),
		goqu.I("w.name").As("borrower_name"),
		goqu.I("w.email").As("borrower_email"),
		goqu.I("b.title").As("book_title"),
		goqu.I("b.isbn").As("book_isbn"),
		goqu.I("l.checkout_date").As("borrow_date"),
		goqu.I("l.due_date"),
		goqu.I("l.return_date"),
	}
}

func (s *service) fetch(ctx context.Context, where ...goqu.Expression) ([]Row, error) {
	querySQL, args, err := pgDialect.
		From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("l.book_id").Eq(goqu.I("b.id")))).
		Join(goqu.T("borrowers").As("w"), goqu.On(goqu.I("l.borrower_id").Eq(goqu.I("w.id")))).
		Select(exportColumns()...).
		Where(where...).
		Order(goqu.I("l.checkout_date").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build export query: %w", err)
	}

	rows := []Row{}
	if err := s.db.SelectContext(ctx, &rows, querySQL, args...); err != nil {
		return nil, fmt.Errorf("query export rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}
	return rows, nil
}

// BorrowsBetweenCSV exports all borrows in the given date range as CSV.
func (s *service) BorrowsBetweenCSV(ctx context.Context, start, end time.Time) (*Export, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	rows, err := s.fetch(ctx, goqu.I("l.checkout_date").Between(goqu.Range(start, end)))
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("borrows_%s_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return renderCSV(rows, filename)
}

// BorrowsBetweenXLSX exports all borrows in the given date range as a
// spreadsheet.
func (s *service) BorrowsBetweenXLSX(ctx context.Context, start, end time.Time) (*Export, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	rows, err := s.fetch(ctx, goqu.I("l.checkout_date").Between(goqu.Range(start, end)))
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("borrows_%s_%s.xlsx", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return renderXLSX(rows, filename)
}

// OverdueLastMonthCSV exports last month's overdue borrows as CSV.
func (s *service) OverdueLastMonthCSV(ctx context.Context) (*Export, error) {
	start, end := lastMonthRange(time.Now())
	rows, err := s.fetch(ctx,
		goqu.I("l.return_date").IsNull(),
		goqu.I("l.due_date").Gte(start),
		goqu.I("l.due_date").Lt(end),
	)
	if err != nil {
		return nil, err
	}
	return renderCSV(rows, "overdue_last_month.csv")
}

// BorrowsLastMonthCSV exports all of last month's borrows as CSV.
func (s *service) BorrowsLastMonthCSV(ctx context.Context) (*Export, error) {
	start, end := lastMonthRange(time.Now())
	rows, err := s.fetch(ctx,
		goqu.I("l.checkout_date").Gte(start),
		goqu.I("l.checkout_date").Lt(end),
	)
	if err != nil {
		return nil, err
	}
	return renderCSV(rows, "borrows_last_month.csv")
}

// lastMonthRange returns the previous month as a half-open interval:
// the first instant of that month up to, excluding, the first instant
// of the current one. Nothing recorded in the month's final second
// falls outside it.
func lastMonthRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, end
}
