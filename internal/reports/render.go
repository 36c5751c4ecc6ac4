package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{
	"Borrow ID", "Borrower Name", "Borrower Email",
	"Book Title", "Book ISBN", "Borrow Date", "Due Date", "Return Date",
}

// csvSafe neutralizes spreadsheet formula injection: cells starting
// with =, +, - or @ get a leading apostrophe.
func csvSafe(value string) string {
	if strings.HasPrefix(value, "=") || strings.HasPrefix(value, "+") ||
		strings.HasPrefix(value, "-") || strings.HasPrefix(value, "@") {
		return "'" + value
	}
	return value
}

func formatDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatReturnDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func renderCSV(rows []Row, filename string) (*Export, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			fmt.Sprintf("%d", r.BorrowID),
			csvSafe(r.BorrowerName),
			csvSafe(r.BorrowerEmail),
			csvSafe(r.BookTitle),
			csvSafe(r.BookISBN),
			formatDate(r.BorrowDate),
			formatDate(r.DueDate),
			formatReturnDate(r.ReturnDate),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &Export{
		Filename:    filename,
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

func renderXLSX(rows []Row, filename string) (*Export, error) {
	const sheet = "Borrows"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "H", 24); err != nil {
		return nil, fmt.Errorf("set column widths: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		row := []interface{}{
			r.BorrowID,
			csvSafe(r.BorrowerName),
			csvSafe(r.BorrowerEmail),
			csvSafe(r.BookTitle),
			csvSafe(r.BookISBN),
			formatDate(r.BorrowDate),
			formatDate(r.DueDate),
			formatReturnDate(r.ReturnDate),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	return &Export{
		Filename:    filename,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}
