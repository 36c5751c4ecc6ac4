package circulation

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
)

var pgDialect = goqu.Dialect("postgres")

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// loanDetailColumns is the projection shared by the query surface:
// the loan plus the book's display fields.
var loanDetailColumns = []interface{}{
	goqu.I("l.id"),
	goqu.I("l.book_id"),
	goqu.I("l.borrower_id"),
	goqu.I("l.checkout_date"),
	goqu.I("l.due_date"),
	goqu.I("l.return_date"),
	goqu.I("l.version"),
	goqu.I("b.title").As("book_title"),
	goqu.I("b.author").As("book_author"),
	goqu.I("b.isbn").As("book_isbn"),
	goqu.I("b.shelf_location").As("shelf_location"),
}

func loansJoinedWithBooks() *goqu.SelectDataset {
	return pgDialect.
		From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("l.book_id").Eq(goqu.I("b.id")))).
		Select(loanDetailColumns...)
}

// OutstandingByBorrower returns one page of a borrower's open loans,
// most recent checkout first.
func (s *PostgresStore) OutstandingByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) (*LoanPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	outstanding := goqu.And(
		goqu.I("l.borrower_id").Eq(borrowerID),
		goqu.I("l.return_date").IsNull(),
	)

	countSQL, countArgs, err := pgDialect.
		From(goqu.T("loans").As("l")).
		Select(goqu.COUNT("*")).
		Where(outstanding).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, transient(fmt.Errorf("count outstanding loans: %w", err))
	}

	querySQL, queryArgs, err := loansJoinedWithBooks().
		Where(outstanding).
		Order(goqu.I("l.checkout_date").Desc()).
		Limit(uint(pageSize)).
		Offset(uint((page - 1) * pageSize)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build outstanding query: %w", err)
	}

	loans := []LoanDetail{}
	if err := s.db.SelectContext(ctx, &loans, querySQL, queryArgs...); err != nil {
		return nil, transient(fmt.Errorf("query outstanding loans: %w", err))
	}

	return &LoanPage{
		TotalItems:  total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		Loans:       loans,
	}, nil
}

// Overdue returns every loan that is still outstanding and past due as
// of the given instant.
func (s *PostgresStore) Overdue(ctx context.Context, asOf time.Time) ([]LoanDetail, error) {
	querySQL, queryArgs, err := loansJoinedWithBooks().
		Where(
			goqu.I("l.return_date").IsNull(),
			goqu.I("l.due_date").Lt(asOf),
		).
		Order(goqu.I("l.due_date").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build overdue query: %w", err)
	}

	loans := []LoanDetail{}
	if err := s.db.SelectContext(ctx, &loans, querySQL, queryArgs...); err != nil {
		return nil, transient(fmt.Errorf("query overdue loans: %w", err))
	}
	return loans, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
