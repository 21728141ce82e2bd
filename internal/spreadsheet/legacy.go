package spreadsheet

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/names"
)

// blockState tracks where a legacy sheet scan is.
type blockState int

const (
	stateNone blockState = iota
	stateAfterSectionHeader
	stateInPaidBlock
	stateInUnpaidBlock
)

func (s blockState) inBlock() bool {
	return s == stateInPaidBlock || s == stateInUnpaidBlock
}

// legacyDescription is used for the category created when the target
// ledger has none.
const legacyDescription = "Imported from legacy data"

// legacyScanner holds the per-sheet scan state.
type legacyScanner struct {
	sheet      string
	section    string
	state      blockState
	headerSeen bool
}

// classify advances the state machine for one row. It reports whether the
// row is a student data row that should be read.
func (sc *legacyScanner) classify(first string) bool {
	lower := strings.ToLower(first)
	switch {
	case strings.HasPrefix(lower, "section:"):
		sc.section = strings.ToUpper(strings.TrimSpace(first[len("section:"):]))
		sc.state = stateAfterSectionHeader
		sc.headerSeen = false
		return false
	case strings.EqualFold(first, "PAID STUDENTS"):
		sc.state = stateInPaidBlock
		sc.headerSeen = false
		return false
	case strings.EqualFold(first, "UNPAID STUDENTS"):
		sc.state = stateInUnpaidBlock
		sc.headerSeen = false
		return false
	}
	if !sc.state.inBlock() {
		return false
	}
	if !sc.headerSeen {
		if strings.Contains(lower, "name") {
			sc.headerSeen = true
		}
		return false
	}
	return true
}

// readLegacy scans every non-summary sheet for "Section:" / "PAID STUDENTS" /
// "UNPAID STUDENTS" blocks. Amounts go to the active category (or the first
// one); a "default" category is created when the ledger has none.
func (im *Importer) readLegacy(f *excelize.File, sheets []string, categories []models.Category, active string) (*Result, error) {
	res := &Result{Layout: LayoutLegacy}

	cats := categories
	if len(cats) == 0 {
		def := models.Category{
			ID:          models.DefaultCategoryID,
			Name:        models.DefaultCategoryName,
			Description: legacyDescription,
		}
		cats = []models.Category{def}
		res.CategoriesAdded = cats
		active = def.ID
	}
	if !containsCategory(cats, active) {
		active = cats[0].ID
	}

	for _, sheet := range sheets {
		if strings.EqualFold(sheet, SummarySheet) {
			continue
		}
		rows, err := readRows(f, sheet)
		if err != nil {
			return nil, err
		}

		sc := &legacyScanner{sheet: sheet, section: strings.ToUpper(strings.TrimSpace(sheet))}
		for i, cells := range rows {
			if blankRow(cells) {
				continue
			}
			if !sc.classify(strings.TrimSpace(cells[0])) {
				continue
			}
			if s, ok := im.legacyStudent(sc, cells, i+1, cats, active, res); ok {
				res.Students = append(res.Students, s)
			}
		}
	}
	return res, nil
}

// legacyStudent reads one data row: name, amount, status, date.
func (im *Importer) legacyStudent(sc *legacyScanner, cells []string, line int, cats []models.Category, active string, res *Result) (models.Student, bool) {
	if len(cells) < 2 {
		res.addError("Sheet %q row %d: expected at least a name and an amount", sc.sheet, line)
		return models.Student{}, false
	}
	n, ok := names.Parse(strings.TrimSpace(cells[0]))
	if !ok {
		res.addError("Sheet %q row %d: invalid name format %q", sc.sheet, line, cells[0])
		return models.Student{}, false
	}

	raw := strings.TrimSpace(cells[1])
	if raw == "" {
		raw = "0"
	}
	amount, ok := parseAmount(raw)
	if !ok || amount < 0 {
		res.addError("Sheet %q row %d: invalid amount %q", sc.sheet, line, cells[1])
		return models.Student{}, false
	}

	paid := sc.state == stateInPaidBlock
	var date models.Date
	if paid && len(cells) > 3 {
		var ok bool
		if date, ok = parseDate(cells[3]); !ok {
			res.addError("Sheet %q row %d: unreadable payment date %q, left empty", sc.sheet, line, cells[3])
		}
	}

	s := models.Student{
		ID:            im.newID(),
		FirstName:     n.FirstName,
		MiddleInitial: n.MiddleInitial,
		LastName:      n.LastName,
		Section:       sc.section,
		Categories:    make(map[string]models.CategoryRecord, len(cats)),
	}
	for _, c := range cats {
		rec := models.EmptyRecord()
		if c.ID == active {
			rec.Amount = amount
			rec.IsPaid = paid
			rec.PaymentDate = date
			if paid && !date.IsZero() {
				rec.Transactions = append(rec.Transactions, models.Transaction{
					ID:     im.newID(),
					Amount: amount,
					Date:   date,
					Notes:  "Imported payment",
				})
			}
		}
		s.Categories[c.ID] = rec
	}
	return s, true
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func containsCategory(cats []models.Category, id string) bool {
	for _, c := range cats {
		if c.ID == id {
			return true
		}
	}
	return false
}
