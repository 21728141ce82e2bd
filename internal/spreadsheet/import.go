package spreadsheet

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/names"
)

// ImportWorkbook reads an xlsx workbook. A workbook with a sheet named
// exactly "Categories" is read as the current layout, anything else as the
// legacy section-block layout. categories and active describe the ledger
// the result will be applied to.
func (im *Importer) ImportWorkbook(r io.Reader, categories []models.Category, active string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read workbook: %v", models.ErrImportFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", models.ErrImportFormat)
	}

	var res *Result
	if hasSheet(sheets, CategoriesSheet) {
		res, err = im.readCategorized(f, sheets, categories)
	} else {
		res, err = im.readLegacy(f, sheets, categories, active)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Workbook read",
		"layout", res.Layout,
		"sheets", len(sheets),
		"students", len(res.Students),
		"row_errors", len(res.Errors),
	)
	return res, nil
}

func hasSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}

func readRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read sheet %q: %v", models.ErrImportFormat, sheet, err)
	}
	return rows, nil
}

// keyedRows turns a header row plus data rows into Rows. Blank rows are
// dropped; the returned row numbers are 1-based sheet rows.
func keyedRows(rows [][]string) ([]Row, []int) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	var out []Row
	var lines []int
	for i, cells := range rows[1:] {
		row := make(Row, len(cells))
		for j, cell := range cells {
			if j >= len(header) || header[j] == "" {
				continue
			}
			if _, dup := row[header[j]]; dup {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				row[header[j]] = v
			}
		}
		if len(row) == 0 {
			continue
		}
		out = append(out, row)
		lines = append(lines, i+2)
	}
	return out, lines
}

func (im *Importer) readCategorized(f *excelize.File, sheets []string, existing []models.Category) (*Result, error) {
	res := &Result{Layout: LayoutCategorized}

	rows, err := readRows(f, CategoriesSheet)
	if err != nil {
		return nil, err
	}
	cats := im.readCategories(rows, res)
	if len(cats) > 0 {
		res.CategoriesAdded = cats
		res.ReplaceCategories = true
	} else {
		cats = existing
	}

	for _, sheet := range sheets {
		if sheet == CategoriesSheet || sheet == SummarySheet {
			continue
		}
		rows, err := readRows(f, sheet)
		if err != nil {
			return nil, err
		}
		data, _ := keyedRows(rows)
		for _, row := range data {
			if s, ok := im.studentFromRow(row, sheet, cats); ok {
				res.Students = append(res.Students, s)
			}
		}
	}
	return res, nil
}

func (im *Importer) readCategories(rows [][]string, res *Result) []models.Category {
	data, lines := keyedRows(rows)
	seen := make(map[string]bool)
	var cats []models.Category
	for i, row := range data {
		name := row["name"]
		if name == "" {
			res.addError("Categories row %d: missing category name", lines[i])
			continue
		}
		id := row["id"]
		if id == "" {
			id = im.newID()
		}
		if seen[id] {
			res.addError("Categories row %d: duplicate category id %q", lines[i], id)
			continue
		}
		seen[id] = true

		target, _ := parseAmount(row["targetAmount"])
		if target < 0 {
			target = 0
		}
		cats = append(cats, models.Category{
			ID:           id,
			Name:         name,
			Description:  row["description"],
			TargetAmount: target,
		})
	}
	return cats
}

// studentFromRow builds a student from a section sheet row. Rows without a
// parsable Name are skipped without an error entry.
func (im *Importer) studentFromRow(row Row, sheet string, cats []models.Category) (models.Student, bool) {
	n, ok := names.Parse(row["Name"])
	if !ok {
		return models.Student{}, false
	}

	section := row["Section"]
	if section == "" {
		section = sheet
	}
	id := row["ID"]
	if id == "" {
		id = im.newID()
	}

	s := models.Student{
		ID:            id,
		FirstName:     n.FirstName,
		MiddleInitial: n.MiddleInitial,
		LastName:      n.LastName,
		Section:       strings.ToUpper(strings.TrimSpace(section)),
		Categories:    make(map[string]models.CategoryRecord, len(cats)),
	}
	for _, c := range cats {
		key := c.ColumnKey()
		amount, _ := parseAmount(row[key+"_Amount"])
		if amount < 0 {
			amount = 0
		}
		date, _ := parseDate(row[key+"_Date"])

		rec := models.EmptyRecord()
		rec.Amount = amount
		rec.IsPaid = row[key+"_Status"] == "PAID"
		if rec.IsPaid {
			rec.PaymentDate = date
			txDate := date
			if txDate.IsZero() {
				txDate = im.today()
			}
			rec.Transactions = append(rec.Transactions, models.Transaction{
				ID:     im.newID(),
				Amount: amount,
				Date:   txDate,
				Notes:  "Imported payment",
			})
		}
		s.Categories[c.ID] = rec
	}
	return s, true
}
