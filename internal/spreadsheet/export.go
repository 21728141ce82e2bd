package spreadsheet

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/treasurer/internal/calculator"
	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/models"
)

const (
	maxSheetName = 31
	summaryTitle = "Overall Summary"
)

var (
	categoryHeaders = []string{"id", "name", "description", "targetAmount"}
	summaryHeaders  = []string{"Category", "Target Amount", "Collected Amount", "Remaining", "Completion %", "Paid Students", "Unpaid Students"}
)

// Filename is the download name for an export made by owner at now.
func Filename(owner string, now time.Time) string {
	if owner == "" {
		owner = "All"
	}
	return fmt.Sprintf("SmartTreasurer_Export_%s_%s.xlsx", owner, now.Format(models.DateLayout))
}

// Export writes data as a workbook: one sheet per section sorted by label,
// then a Categories sheet and a Summary sheet. It only reads data.
func Export(w io.Writer, data models.LedgerData) error {
	if len(data.Students) == 0 {
		return models.ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetAppProps(&excelize.AppProperties{Application: "Smart Treasurer"})
	f.SetDocProps(&excelize.DocProperties{
		Creator: "Smart Treasurer",
		Title:   "Student payments",
	})

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	namer := newSheetNamer()
	for i, group := range groupBySection(data.Students) {
		sheet := namer.next(group.Section)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		if err := writeSectionSheet(f, sheet, group.Students, data.Categories, st); err != nil {
			return err
		}
	}

	for _, sheet := range []string{CategoriesSheet, SummarySheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
	}
	if err := writeCategoriesSheet(f, data.Categories, st); err != nil {
		return err
	}
	if err := writeSummarySheet(f, data, st); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type styles struct {
	header  int
	amount  int
	date    int
	percent int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return st, err
	}
	amountFmt := `"₱"#,##0.00`
	if st.amount, err = f.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt}); err != nil {
		return st, err
	}
	dateFmt := "yyyy-mm-dd"
	if st.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return st, err
	}
	percentFmt := `0.0"%"`
	st.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt})
	return st, err
}

func groupBySection(students []models.Student) []ledger.SectionGroup {
	bySection := make(map[string][]models.Student)
	for _, s := range students {
		bySection[s.Section] = append(bySection[s.Section], s)
	}
	sections := make([]string, 0, len(bySection))
	for section := range bySection {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	groups := make([]ledger.SectionGroup, 0, len(sections))
	for _, section := range sections {
		list := bySection[section]
		ledger.SortStudents(list)
		groups = append(groups, ledger.SectionGroup{Section: section, Students: list})
	}
	return groups
}

func writeSectionSheet(f *excelize.File, sheet string, students []models.Student, cats []models.Category, st styles) error {
	headers := []string{"ID", "Name", "Section"}
	for _, c := range cats {
		key := c.ColumnKey()
		headers = append(headers, key+"_Amount", key+"_Status", key+"_Date")
	}
	if err := writeRow(f, sheet, 1, stringsToValues(headers)); err != nil {
		return err
	}

	for i, s := range students {
		values := []any{s.ID, s.DisplayName(), s.Section}
		for _, c := range cats {
			rec := s.Categories[c.ID]
			status := "UNPAID"
			if rec.IsPaid {
				status = "PAID"
			}
			var date any
			if t, ok := rec.PaymentDate.Time(); ok {
				date = t
			}
			values = append(values, rec.Amount, status, date)
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	lastRow := len(students) + 1
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(sheet, "A1", lastCol+"1", st.header)
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "B", 30)
	f.SetColWidth(sheet, "C", "C", 15)
	for i := range cats {
		amountCol, _ := excelize.ColumnNumberToName(4 + i*3)
		statusCol, _ := excelize.ColumnNumberToName(5 + i*3)
		dateCol, _ := excelize.ColumnNumberToName(6 + i*3)
		f.SetColWidth(sheet, amountCol, amountCol, 12)
		f.SetColWidth(sheet, statusCol, statusCol, 10)
		f.SetColWidth(sheet, dateCol, dateCol, 15)
		f.SetCellStyle(sheet, fmt.Sprintf("%s2", amountCol), fmt.Sprintf("%s%d", amountCol, lastRow), st.amount)
		f.SetCellStyle(sheet, fmt.Sprintf("%s2", dateCol), fmt.Sprintf("%s%d", dateCol, lastRow), st.date)
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	return nil
}

func writeCategoriesSheet(f *excelize.File, cats []models.Category, st styles) error {
	sheet := CategoriesSheet
	if err := writeRow(f, sheet, 1, stringsToValues(categoryHeaders)); err != nil {
		return err
	}
	for i, c := range cats {
		if err := writeRow(f, sheet, i+2, []any{c.ID, c.Name, c.Description, c.TargetAmount}); err != nil {
			return err
		}
	}
	f.SetCellStyle(sheet, "A1", "D1", st.header)
	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "B", "C", 30)
	f.SetColWidth(sheet, "D", "D", 15)
	return nil
}

func writeSummarySheet(f *excelize.File, data models.LedgerData, st styles) error {
	sheet := SummarySheet
	if err := f.SetCellValue(sheet, "A1", summaryTitle); err != nil {
		return fmt.Errorf("failed to write summary title: %w", err)
	}
	if err := writeRow(f, sheet, 3, stringsToValues(summaryHeaders)); err != nil {
		return err
	}

	sums := calculator.SummarizeCategories(data)
	for i, s := range sums {
		values := []any{s.Name, s.Target, s.Collected, s.Remaining, math.Round(s.Completion*10) / 10, s.Paid, s.Unpaid}
		if err := writeRow(f, sheet, i+4, values); err != nil {
			return err
		}
	}

	f.SetCellStyle(sheet, "A3", "G3", st.header)
	if len(sums) > 0 {
		last := len(sums) + 3
		f.SetCellStyle(sheet, "B4", fmt.Sprintf("D%d", last), st.amount)
		f.SetCellStyle(sheet, "E4", fmt.Sprintf("E%d", last), st.percent)
	}
	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", "G", 18)
	return nil
}

// writeRow writes values starting at column A. nil values leave the cell empty.
func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func stringsToValues(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// sheetNamer maps section labels to unique, valid sheet names.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: map[string]bool{
		strings.ToLower(CategoriesSheet): true,
		strings.ToLower(SummarySheet):    true,
	}}
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_",
	"*", "_", "[", "_", "]", "_",
)

func (n *sheetNamer) next(label string) string {
	base := strings.Trim(sheetNameReplacer.Replace(label), "'")
	if base == "" {
		base = "Section"
	}
	base = truncateRunes(base, maxSheetName)

	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
