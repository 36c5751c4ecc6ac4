package circulation

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memBook is a book row held by the in-memory store.
type memBook struct {
	BookInventory
	Title         string
	Author        string
	ISBN          string
	ShelfLocation string
}

// memStore is an in-memory Store and LoanReader with the same
// consistency semantics as the Postgres implementation: primitives are
// individually atomic (so transactions interleave), version CAS guards
// the guarded updates, IncrementLocked holds a per-book lock until the
// unit of work finishes, and a failed unit of work undoes its writes.
type memStore struct {
	mu         sync.Mutex
	books      map[int64]*memBook
	loans      map[int64]*Loan
	nextLoanID int64
	rowLocks   map[int64]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		books:    make(map[int64]*memBook),
		loans:    make(map[int64]*Loan),
		rowLocks: make(map[int64]*sync.Mutex),
	}
}

func (s *memStore) addBook(id int64, title string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[id] = &memBook{
		BookInventory: BookInventory{ID: id, Quantity: quantity, Version: 1},
		Title:         title,
	}
	s.rowLocks[id] = &sync.Mutex{}
}

func (s *memStore) bookQuantity(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id].Quantity
}

func (s *memStore) loanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loans)
}

func (s *memStore) outstandingCount(bookID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.loans {
		if l.BookID == bookID && l.ReturnDate == nil {
			n++
		}
	}
	return n
}

func (s *memStore) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	store *memStore
	undo  []func()
	held  []*sync.Mutex
}

func (t *memTx) commit() {
	for _, l := range t.held {
		l.Unlock()
	}
}

func (t *memTx) rollback() {
	t.store.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.store.mu.Unlock()
	for _, l := range t.held {
		l.Unlock()
	}
}

func (t *memTx) CreateLoan(_ context.Context, loan *Loan) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.nextLoanID++
	loan.ID = t.store.nextLoanID
	loan.Version = 1
	stored := *loan
	t.store.loans[loan.ID] = &stored
	id := loan.ID
	t.undo = append(t.undo, func() { delete(t.store.loans, id) })
	return nil
}

func (t *memTx) FindLoan(_ context.Context, id int64) (*Loan, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	loan, ok := t.store.loans[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *loan
	return &copied, nil
}

func (t *memTx) MarkReturned(_ context.Context, id int64, expectedVersion int, returnedAt time.Time) (int64, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	loan, ok := t.store.loans[id]
	if !ok || loan.Version != expectedVersion || loan.ReturnDate != nil {
		return 0, nil
	}
	prev := *loan
	loan.ReturnDate = &returnedAt
	loan.Version++
	t.undo = append(t.undo, func() { *t.store.loans[id] = prev })
	return 1, nil
}

func (t *memTx) BookInventory(_ context.Context, bookID int64) (*BookInventory, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	book, ok := t.store.books[bookID]
	if !ok {
		return nil, ErrNotFound
	}
	inv := book.BookInventory
	return &inv, nil
}

func (t *memTx) DecrementAvailable(_ context.Context, bookID int64, expectedVersion int) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	book, ok := t.store.books[bookID]
	if !ok || book.Version != expectedVersion || book.Quantity < 1 {
		return false, nil
	}
	book.Quantity--
	book.Version++
	t.undo = append(t.undo, func() {
		book.Quantity++
		book.Version--
	})
	return true, nil
}

func (t *memTx) IncrementLocked(_ context.Context, bookID int64) error {
	t.store.mu.Lock()
	lock, ok := t.store.rowLocks[bookID]
	t.store.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	lock.Lock()
	t.held = append(t.held, lock)

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	book := t.store.books[bookID]
	book.Quantity++
	book.Version++
	t.undo = append(t.undo, func() {
		book.Quantity--
		book.Version--
	})
	return nil
}

// LoanReader over the in-memory state, for query-surface tests.

func (s *memStore) OutstandingByBorrower(_ context.Context, borrowerID int64, page, pageSize int) (*LoanPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	s.mu.Lock()
	var all []LoanDetail
	for _, l := range s.loans {
		if l.BorrowerID == borrowerID && l.ReturnDate == nil {
			all = append(all, s.detail(l))
		}
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CheckoutDate.After(all[j].CheckoutDate)
	})

	total := len(all)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &LoanPage{
		TotalItems:  total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		Loans:       all[start:end],
	}, nil
}

func (s *memStore) Overdue(_ context.Context, asOf time.Time) ([]LoanDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loans := []LoanDetail{}
	for _, l := range s.loans {
		if l.ReturnDate == nil && l.DueDate.Before(asOf) {
			loans = append(loans, s.detail(l))
		}
	}
	return loans, nil
}

func (s *memStore) detail(l *Loan) LoanDetail {
	d := LoanDetail{Loan: *l}
	if b, ok := s.books[l.BookID]; ok {
		d.BookTitle = b.Title
		d.BookAuthor = b.Author
		d.BookISBN = b.ISBN
		d.ShelfLocation = b.ShelfLocation
	}
	return d
}
