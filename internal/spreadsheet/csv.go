package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/names"
)

// ImportCSV reads one student per line as "name,section". Names follow the
// same rules as workbook imports, so a "Last, First" name must be quoted.
// Students get an empty record for every category in categories.
func (im *Importer) ImportCSV(r io.Reader, categories []models.Category) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	res := &Result{Layout: LayoutCSV}
	for first := true; ; first = false {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read csv: %v", models.ErrImportFormat, err)
		}
		line, _ := cr.FieldPos(0)
		if first && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
		}
		if blankRow(record) {
			continue
		}
		if first && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}

		if len(record) < 2 {
			res.addError("Line %d: expected name and section", line)
			continue
		}
		n, ok := names.Parse(record[0])
		if !ok {
			res.addError("Line %d: invalid name format %q", line, record[0])
			continue
		}
		section := strings.ToUpper(strings.TrimSpace(record[1]))
		if section == "" {
			res.addError("Line %d: missing section", line)
			continue
		}

		s := models.Student{
			ID:            im.newID(),
			FirstName:     n.FirstName,
			MiddleInitial: n.MiddleInitial,
			LastName:      n.LastName,
			Section:       section,
			Categories:    make(map[string]models.CategoryRecord, len(categories)),
		}
		for _, c := range categories {
			s.Categories[c.ID] = models.EmptyRecord()
		}
		res.Students = append(res.Students, s)
	}
	return res, nil
}
