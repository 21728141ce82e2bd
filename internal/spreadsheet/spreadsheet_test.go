package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/treasurer/internal/models"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestImporter() *Importer {
	n := 0
	return NewImporter(
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		}),
	)
}

type sheetData struct {
	name string
	rows [][]any
}

// buildWorkbook writes sheets in order into an xlsx file.
func buildWorkbook(t *testing.T, sheets ...sheetData) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, sd := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sd.name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else if _, err := f.NewSheet(sd.name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		for r, row := range sd.rows {
			if err := writeRow(f, sd.name, r+1, row); err != nil {
				t.Fatalf("writeRow: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"500", 500, true},
		{"₱1,250.50", 1250.5, true},
		{" 75 ", 75, true},
		{"-20", -20, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAmount(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseAmount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		want   models.Date
		wantOK bool
	}{
		{"45306", "2024-01-15", true},
		{"2024-01-15", "2024-01-15", true},
		{"2024-01-15T08:30:00Z", "2024-01-15", true},
		{"1/15/2024", "2024-01-15", true},
		{"Jan 15, 2024", "2024-01-15", true},
		{"", "", true},
		{"sometime", "", false},
		{"-3", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseDate(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestImportWorkbookRejectsUnreadableFile(t *testing.T) {
	_, err := newTestImporter().ImportWorkbook(strings.NewReader("definitely not a workbook"), nil, "")
	if !errors.Is(err, models.ErrImportFormat) {
		t.Fatalf("expected ErrImportFormat, got %v", err)
	}
}

func TestImportLegacy(t *testing.T) {
	cats := []models.Category{{ID: "c1", Name: "Fund"}, {ID: "c2", Name: "Trip"}}

	t.Run("paid block row becomes a paid student in the active category", func(t *testing.T) {
		file := buildWorkbook(t, sheetData{name: "BSCS-2B", rows: [][]any{
			{"Section: BSCS-2B"},
			{"PAID STUDENTS"},
			{"Name", "Amount", "Status", "Date"},
			{"Dela Cruz, Juan P.", "500", "PAID", date(2024, 1, 15)},
		}})

		res, err := newTestImporter().ImportWorkbook(bytes.NewReader(file), cats, "c2")
		if err != nil {
			t.Fatalf("ImportWorkbook failed: %v", err)
		}
		if res.Layout != LayoutLegacy {
			t.Errorf("Layout = %q, want legacy", res.Layout)
		}
		if len(res.Students) != 1 {
			t.Fatalf("expected 1 student, got %d (errors: %v)", len(res.Students), res.Errors)
		}
		s := res.Students[0]
		if s.FirstName != "Juan" || s.MiddleInitial != "P" || s.LastName != "Dela Cruz" || s.Section != "BSCS-2B" {
			t.Errorf("unexpected student %+v", s)
		}
		rec := s.Categories["c2"]
		if rec.Amount != 500 || !rec.IsPaid || rec.PaymentDate != "2024-01-15" {
			t.Errorf("active record = %+v", rec)
		}
		if len(rec.Transactions) != 1 || rec.Transactions[0].Date != "2024-01-15" {
			t.Errorf("expected one imported transaction, got %+v", rec.Transactions)
		}
		if other := s.Categories["c1"]; other.Amount != 0 || other.IsPaid {
			t.Errorf("inactive record should be empty, got %+v", other)
		}
		if len(res.CategoriesAdded) != 0 {
			t.Errorf("no categories should be added, got %+v", res.CategoriesAdded)
		}
	})

	t.Run("malformed amount is reported and the valid row kept", func(t *testing.T) {
		file := buildWorkbook(t, sheetData{name: "BSIT-1A", rows: [][]any{
			{"PAID STUDENTS"},
			{"Name", "Amount", "Status", "Date"},
			{"Santos, Maria", "N/A", "PAID"},
			{"Reyes, Ana B.", "₱250", "PAID"},
		}})

		res, err := newTestImporter().ImportWorkbook(bytes.NewReader(file), cats, "c1")
		if err != nil {
			t.Fatalf("ImportWorkbook failed: %v", err)
		}
		if len(res.Students) != 1 || res.Students[0].LastName != "Reyes" {
			t.Fatalf("expected only Reyes, got %+v", res.Students)
		}
		if len(res.Errors) == 0 {
			t.Error("expected an error entry for the N/A row")
		}
		if got := res.Students[0].Categories["c1"]; got.Amount != 250 || got.PaymentDate != "" || len(got.Transactions) != 0 {
			t.Errorf("record = %+v", got)
		}
	})

	t.Run("creates a default category when the ledger has none", func(t *testing.T) {
		file := buildWorkbook(t, sheetData{name: "Sheet", rows: [][]any{
			{"Section: grade 7"},
			{"UNPAID STUDENTS"},
			{"Full Name", "Amount"},
			{"Pedro Penduko", "", "UNPAID"},
		}})

		res, err := newTestImporter().ImportWorkbook(bytes.NewReader(file), nil, "")
		if err != nil {
			t.Fatalf("ImportWorkbook failed: %v", err)
		}
		if len(res.CategoriesAdded) != 1 || res.CategoriesAdded[0].ID != models.DefaultCategoryID {
			t.Fatalf("expected default category, got %+v", res.CategoriesAdded)
		}
		if len(res.Students) != 1 {
			t.Fatalf("expected 1 student, got %d", len(res.Students))
		}
		s := res.Students[0]
		if s.Section != "GRADE 7" {
			t.Errorf("Section = %q, want GRADE 7", s.Section)
		}
		rec, ok := s.Categories[models.DefaultCategoryID]
		if !ok || rec.IsPaid || rec.Amount != 0 {
			t.Errorf("default record = %+v (present %v)", rec, ok)
		}
	})

	t.Run("rows outside a block or before the header are ignored", func(t *testing.T) {
		file := buildWorkbook(t,
			sheetData{name: "A", rows: [][]any{
				{"Dela Cruz, Juan", "100"},
				{"PAID STUDENTS"},
				{"Smith, John", "100"},
				{"Name", "Amount"},
				{"Doe, Jane", "100"},
			}},
			sheetData{name: "Summary", rows: [][]any{
				{"PAID STUDENTS"},
				{"Name"},
				{"Summary, Row", "1"},
			}},
		)

		res, err := newTestImporter().ImportWorkbook(bytes.NewReader(file), cats, "c1")
		if err != nil {
			t.Fatalf("ImportWorkbook failed: %v", err)
		}
		if len(res.Students) != 1 || res.Students[0].LastName != "Doe" {
			t.Fatalf("expected only Doe, got %+v", res.Students)
		}
	})

	t.Run("unreadable date leaves the payment date empty", func(t *testing.T) {
		file := buildWorkbook(t, sheetData{name: "A", rows: [][]any{
			{"PAID STUDENTS"},
			{"Name", "Amount", "Status", "Date"},
			{"Doe, Jane", "100", "PAID", "someday"},
		}})

		res, err := newTestImporter().ImportWorkbook(bytes.NewReader(file), cats, "c1")
		if err != nil {
			t.Fatalf("ImportWorkbook failed: %v", err)
		}
		if len(res.Students) != 1 {
			t.Fatalf("expected 1 student, got %d", len(res.Students))
		}
		rec := res.Students[0].Categories["c1"]
		if !rec.IsPaid || rec.PaymentDate != "" {
			t.Errorf("record = %+v", rec)
		}
		if len(res.Errors) != 1 {
			t.Errorf("expected one warning, got %v", res.Errors)
		}
	})
}

func TestImportCategorized(t *testing.T) {
	file := buildWorkbook(t,
		sheetData{name: "bscs-1a", rows: [][]any{
			{"ID", "Name", "Tuition_Fund_Amount", "Tuition_Fund_Status", "Tuition_Fund_Date"},
			{"s1", "Smith, Alice A", 300, "PAID", date(2024, 2, 2)},
			{"", "Bob Jones", "abc", "UNPAID"},
			{"s3", "Cher", 100, "PAID"},
			{"s4", "Lee, Kim", 50, "PAID"},
		}},
		sheetData{name: CategoriesSheet, rows: [][]any{
			{"id", "name", "description", "targetAmount"},
			{"c1", "Tuition Fund", "Main", 1000},
			{"", "", "no name"},
		}},
		sheetData{name: SummarySheet, rows: [][]any{{"Overall Summary"}}},
	)

	res, err := newTestImporter().ImportWorkbook(bytes.NewReader(file), []models.Category{{ID: "old", Name: "Old"}}, "old")
	if err != nil {
		t.Fatalf("ImportWorkbook failed: %v", err)
	}
	if res.Layout != LayoutCategorized || !res.ReplaceCategories {
		t.Errorf("Layout = %q, ReplaceCategories = %v", res.Layout, res.ReplaceCategories)
	}
	wantCats := []models.Category{{ID: "c1", Name: "Tuition Fund", Description: "Main", TargetAmount: 1000}}
	if !reflect.DeepEqual(res.CategoriesAdded, wantCats) {
		t.Errorf("CategoriesAdded = %+v", res.CategoriesAdded)
	}
	if len(res.Errors) != 1 {
		t.Errorf("expected the nameless category row to be reported, got %v", res.Errors)
	}
	if len(res.Students) != 3 {
		t.Fatalf("expected 3 students (Cher skipped), got %+v", res.Students)
	}

	alice := res.Students[0]
	if alice.ID != "s1" || alice.Section != "BSCS-1A" || alice.MiddleInitial != "A" {
		t.Errorf("alice = %+v", alice)
	}
	rec := alice.Categories["c1"]
	if rec.Amount != 300 || !rec.IsPaid || rec.PaymentDate != "2024-02-02" || len(rec.Transactions) != 1 {
		t.Errorf("alice record = %+v", rec)
	}

	bob := res.Students[1]
	if bob.ID == "" || bob.FirstName != "Bob" || bob.LastName != "Jones" {
		t.Errorf("bob = %+v", bob)
	}
	if rec := bob.Categories["c1"]; rec.Amount != 0 || rec.IsPaid || len(rec.Transactions) != 0 {
		t.Errorf("bob record = %+v", rec)
	}

	kim := res.Students[2].Categories["c1"]
	if kim.PaymentDate != "" || len(kim.Transactions) != 1 || kim.Transactions[0].Date != models.NewDate(testNow) {
		t.Errorf("paid without date should log a transaction dated today, got %+v", kim)
	}
}

func exportLedger(t *testing.T, data models.LedgerData) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Export(&buf, data); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	return buf.Bytes()
}

func sampleLedger() models.LedgerData {
	return models.LedgerData{
		Categories: []models.Category{
			{ID: "default", Name: "Default Payments", TargetAmount: 2000},
			{ID: "c2", Name: "Field Trip", Description: "Museum"},
		},
		ActiveCategory: "default",
		Students: []models.Student{
			{
				ID: "s1", FirstName: "Alice", MiddleInitial: "A", LastName: "Smith", Section: "BSCS-1A",
				Categories: map[string]models.CategoryRecord{
					"default": {Amount: 500, IsPaid: true, PaymentDate: "2024-01-15", Transactions: []models.Transaction{{ID: "t1", Amount: 500, Date: "2024-01-15"}}},
					"c2":      models.EmptyRecord(),
				},
			},
			{
				ID: "s2", FirstName: "Ben", LastName: "Abad", Section: "BSCS-1A",
				Categories: map[string]models.CategoryRecord{"default": {Amount: 100}},
			},
			{
				ID: "s3", FirstName: "Carla", LastName: "Cruz", Section: "ABM/2",
				Categories: map[string]models.CategoryRecord{},
			},
		},
	}
}

func TestExportRoundTrip(t *testing.T) {
	data := sampleLedger()
	file := exportLedger(t, data)

	res, err := newTestImporter().ImportWorkbook(bytes.NewReader(file), nil, "")
	if err != nil {
		t.Fatalf("ImportWorkbook failed: %v", err)
	}
	if res.Layout != LayoutCategorized {
		t.Fatalf("Layout = %q", res.Layout)
	}
	if !reflect.DeepEqual(res.CategoriesAdded, data.Categories) {
		t.Errorf("categories = %+v, want %+v", res.CategoriesAdded, data.Categories)
	}
	if len(res.Students) != len(data.Students) {
		t.Fatalf("students = %d, want %d", len(res.Students), len(data.Students))
	}

	byID := make(map[string]models.Student)
	for _, s := range res.Students {
		byID[s.ID] = s
	}
	for _, want := range data.Students {
		got, ok := byID[want.ID]
		if !ok {
			t.Errorf("student %s missing after round trip", want.ID)
			continue
		}
		if got.FirstName != want.FirstName || got.MiddleInitial != want.MiddleInitial ||
			got.LastName != want.LastName || got.Section != want.Section {
			t.Errorf("student %s = %+v, want %+v", want.ID, got, want)
		}
		for _, c := range data.Categories {
			w, g := want.Categories[c.ID], got.Categories[c.ID]
			if g.Amount != w.Amount || g.IsPaid != w.IsPaid || g.PaymentDate != w.PaymentDate {
				t.Errorf("student %s category %s = %+v, want %+v", want.ID, c.ID, g, w)
			}
		}
	}
}

func TestExportLayout(t *testing.T) {
	data := sampleLedger()
	file := exportLedger(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	wantSheets := []string{"ABM_2", "BSCS-1A", CategoriesSheet, SummarySheet}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, wantSheets) {
		t.Fatalf("sheets = %v, want %v", got, wantSheets)
	}

	rows, err := f.GetRows("BSCS-1A", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	wantHeader := []string{"ID", "Name", "Section",
		"Default_Payments_Amount", "Default_Payments_Status", "Default_Payments_Date",
		"Field_Trip_Amount", "Field_Trip_Status", "Field_Trip_Date"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v", rows[0])
	}
	// sorted by last name: Abad before Smith
	if rows[1][1] != "Abad, Ben" || rows[2][1] != "Smith, Alice A" {
		t.Errorf("names = %q, %q", rows[1][1], rows[2][1])
	}
	if rows[2][4] != "PAID" || rows[2][5] != "45306" {
		t.Errorf("status/date = %q, %q", rows[2][4], rows[2][5])
	}

	summary, err := f.GetRows(SummarySheet, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if summary[0][0] != summaryTitle {
		t.Errorf("summary title = %q", summary[0][0])
	}
	// Default Payments: target 2000, collected 600, remaining 1400, 30%, 1 paid of 3
	wantSummary := []string{"Default Payments", "2000", "600", "1400", "30", "1", "2"}
	if !reflect.DeepEqual(summary[3], wantSummary) {
		t.Errorf("summary row = %v, want %v", summary[3], wantSummary)
	}
}

func TestExportIsRepeatable(t *testing.T) {
	data := sampleLedger()
	first := exportLedger(t, data)
	second := exportLedger(t, data)

	a, err := excelize.OpenReader(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer a.Close()
	b, err := excelize.OpenReader(bytes.NewReader(second))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer b.Close()

	for _, sheet := range a.GetSheetList() {
		ra, _ := a.GetRows(sheet, excelize.Options{RawCellValue: true})
		rb, _ := b.GetRows(sheet, excelize.Options{RawCellValue: true})
		if !reflect.DeepEqual(ra, rb) {
			t.Errorf("sheet %q differs between exports", sheet)
		}
	}
	if !reflect.DeepEqual(data, sampleLedger()) {
		t.Error("export mutated the ledger data")
	}
}

func TestExportWithoutStudents(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, models.NewLedgerData())
	if !errors.Is(err, models.ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
}

func TestSheetNamer(t *testing.T) {
	n := newSheetNamer()
	tests := []struct {
		label string
		want  string
	}{
		{"BSCS-1A", "BSCS-1A"},
		{"A/B:C", "A_B_C"},
		{"SUMMARY", "SUMMARY (2)"},
		{"A_B_C", "A_B_C (2)"},
		{strings.Repeat("X", 40), strings.Repeat("X", 31)},
		{"", "Section"},
	}
	for _, tt := range tests {
		if got := n.next(tt.label); got != tt.want {
			t.Errorf("next(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("maria", testNow); got != "SmartTreasurer_Export_maria_2024-03-01.xlsx" {
		t.Errorf("Filename = %q", got)
	}
	if got := Filename("", testNow); got != "SmartTreasurer_Export_All_2024-03-01.xlsx" {
		t.Errorf("Filename = %q", got)
	}
}

func TestImportCSV(t *testing.T) {
	cats := []models.Category{{ID: "c1", Name: "Fund"}}
	input := "Name,Section\n" +
		"\"Dela Cruz, Juan P.\",bscs-2b\n" +
		"Maria Santos, BSIT-1A\n" +
		"Prince,BSCS-2B\n" +
		"Lonely\n" +
		"Ana Reyes,\n"

	res, err := newTestImporter().ImportCSV(strings.NewReader(input), cats)
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}
	if len(res.Students) != 2 {
		t.Fatalf("expected 2 students, got %+v", res.Students)
	}
	juan := res.Students[0]
	if juan.LastName != "Dela Cruz" || juan.FirstName != "Juan" || juan.MiddleInitial != "P" || juan.Section != "BSCS-2B" {
		t.Errorf("juan = %+v", juan)
	}
	if rec, ok := juan.Categories["c1"]; !ok || rec.Transactions == nil {
		t.Errorf("expected empty record for c1, got %+v", juan.Categories)
	}
	if maria := res.Students[1]; maria.FirstName != "Maria" || maria.Section != "BSIT-1A" {
		t.Errorf("maria = %+v", maria)
	}
	if len(res.Errors) != 3 {
		t.Errorf("expected 3 row errors, got %v", res.Errors)
	}
	if len(res.CategoriesAdded) != 0 || res.Layout != LayoutCSV {
		t.Errorf("unexpected result metadata %+v", res)
	}
}
