// Package spreadsheet converts between workbook files and ledger data.
//
// Importers never touch a ledger. They return a Result the caller applies
// with ledger.ApplyImport once the user has picked replace or append.
package spreadsheet

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/models"
)

// Sheet names with a fixed meaning in the current layout.
const (
	CategoriesSheet = "Categories"
	SummarySheet    = "Summary"
)

// Layout identifies which file layout an import was read from.
type Layout string

const (
	LayoutCategorized Layout = "categorized"
	LayoutLegacy      Layout = "legacy"
	LayoutCSV         Layout = "csv"

	// LayoutUnknown labels a workbook rejected before its layout was detected.
	LayoutUnknown Layout = "unknown"
)

// Row is one spreadsheet row keyed by header text. It never leaves this package.
type Row map[string]string

// Result is the outcome of reading an import file.
type Result struct {
	Layout   Layout
	Students []models.Student

	// CategoriesAdded are categories the file defines (current layout) or
	// that had to be created to hold the rows (legacy layout).
	CategoriesAdded []models.Category

	// ReplaceCategories is set when CategoriesAdded is the complete category
	// set read from a Categories sheet.
	ReplaceCategories bool

	// Errors lists rows that were skipped or only partly read.
	Errors []string
}

// Batch converts the result into the input of ledger.ApplyImport.
func (r *Result) Batch() ledger.ImportBatch {
	return ledger.ImportBatch{
		Students:          r.Students,
		Categories:        r.CategoriesAdded,
		ReplaceCategories: r.ReplaceCategories,
	}
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Importer reads workbooks and CSV files into import results.
type Importer struct {
	now   func() time.Time
	newID func() string
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock sets the clock used for "today" on imported payments.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// WithIDGenerator sets the generator for student, category and transaction IDs.
func WithIDGenerator(gen func() string) Option {
	return func(im *Importer) { im.newID = gen }
}

func NewImporter(opts ...Option) *Importer {
	im := &Importer{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

func (im *Importer) today() models.Date {
	return models.NewDate(im.now())
}

var amountJunk = regexp.MustCompile(`[^0-9.\-]+`)

// parseAmount strips everything but digits, dot and minus, then parses.
func parseAmount(s string) (float64, bool) {
	cleaned := amountJunk.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var dateLayouts = []string{
	models.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2-Jan-06",
	"02-Jan-2006",
}

// parseDate reads a date cell. Cells are read raw, so a date formatted in
// the workbook arrives as its serial number. An empty cell is the absent date;
// ok is false only for non-empty text that is not a date.
func parseDate(s string) (d models.Date, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 {
			return "", false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", false
		}
		return models.NewDate(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.NewDate(t), true
		}
	}
	return "", false
}
