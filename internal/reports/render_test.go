package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []Row {
	borrowed := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	due := borrowed.AddDate(0, 0, 14)
	returned := borrowed.AddDate(0, 0, 10)
	return []Row{
		{
			BorrowID:      1,
			BorrowerName:  "Ada Lovelace",
			BorrowerEmail: "ada@example.com",
			BookTitle:     "=HYPERLINK(evil)",
			BookISBN:      "9780141439518",
			BorrowDate:    borrowed,
			DueDate:       due,
			ReturnDate:    &returned,
		},
		{
			BorrowID:      2,
			BorrowerName:  "@mention",
			BorrowerEmail: "m@example.com",
			BookTitle:     "Persuasion",
			BookISBN:      "9780141439686",
			BorrowDate:    borrowed,
			DueDate:       due,
		},
	}
}

func TestRenderCSV(t *testing.T) {
	export, err := renderCSV(sampleRows(), "borrows.csv")
	require.NoError(t, err)
	assert.Equal(t, "borrows.csv", export.Filename)
	assert.Equal(t, "text/csv", export.ContentType)

	records, err := csv.NewReader(bytes.NewReader(export.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "'=HYPERLINK(evil)", records[1][3], "formula cells must be neutralized")
	assert.Equal(t, "'@mention", records[2][1])
	assert.Empty(t, records[2][7], "outstanding loans have no return date")
}

func TestRenderXLSX(t *testing.T) {
	export, err := renderXLSX(sampleRows(), "borrows.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "borrows.xlsx", export.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(export.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Borrows")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Borrow ID", rows[0][0])
	assert.Equal(t, "'=HYPERLINK(evil)", rows[1][3])
	assert.Equal(t, "Persuasion", rows[2][3])
}

func TestCSVSafe(t *testing.T) {
	cases := map[string]string{
		"plain":         "plain",
		"=1+2":          "'=1+2",
		"+SUM(A1)":      "'+SUM(A1)",
		"-2+3":          "'-2+3",
		"@cmd":          "'@cmd",
		"middle=unsafe": "middle=unsafe",
	}
	for in, want := range cases {
		assert.Equal(t, want, csvSafe(in))
	}
}

func TestLastMonthRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	start, end := lastMonthRange(now)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), end)

	// A borrow in the month's final second is inside the half-open range.
	lastSecond := time.Date(2026, 2, 28, 23, 59, 59, 500000000, time.UTC)
	assert.True(t, !lastSecond.Before(start) && lastSecond.Before(end))

	// Year boundary.
	now = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	start, end = lastMonthRange(now)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)
}
