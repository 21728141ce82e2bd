package ledger

import (
	"fmt"
	"strings"

	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/names"
)

// AddStudent validates fields and adds a student with a zero record for every
// existing category.
func (l *Ledger) AddStudent(fields StudentFields) (models.Student, error) {
	student, err := l.newStudent(fields)
	if err != nil {
		return models.Student{}, err
	}
	l.data.Students = append(l.data.Students, student)
	return student.Clone(), nil
}

// EditStudent replaces a student's name and section. The ID and the category
// records are kept as they are.
func (l *Ledger) EditStudent(id string, fields StudentFields) (models.Student, error) {
	i := l.studentIndex(id)
	if i < 0 {
		return models.Student{}, fmt.Errorf("%w: student %s", models.ErrNotFound, id)
	}
	fields = fields.normalize()
	if err := validateStruct(fields); err != nil {
		return models.Student{}, err
	}

	s := &l.data.Students[i]
	s.FirstName = fields.FirstName
	s.MiddleInitial = fields.MiddleInitial
	s.LastName = fields.LastName
	s.Section = fields.Section
	return s.Clone(), nil
}

// DeleteStudent removes one student.
func (l *Ledger) DeleteStudent(id string) error {
	i := l.studentIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: student %s", models.ErrNotFound, id)
	}
	l.data.Students = append(l.data.Students[:i:i], l.data.Students[i+1:]...)
	return nil
}

// DeleteSection removes every student whose stored section equals label
// exactly and returns how many were removed.
func (l *Ledger) DeleteSection(label string) int {
	kept := make([]models.Student, 0, len(l.data.Students))
	for _, s := range l.data.Students {
		if s.Section != label {
			kept = append(kept, s)
		}
	}
	removed := len(l.data.Students) - len(kept)
	l.data.Students = kept
	return removed
}

// BulkResult reports the outcome of BulkAddStudents.
type BulkResult struct {
	Added []models.Student

	// Skipped holds the input lines that could not be parsed as names.
	Skipped []string
}

// BulkAddStudents adds one student per non-blank line, all in the same
// section. Lines that do not parse as a name are skipped and reported. Nothing
// is added when no line parses.
func (l *Ledger) BulkAddStudents(section string, lines []string) (BulkResult, error) {
	section = strings.ToUpper(strings.TrimSpace(section))
	if section == "" {
		return BulkResult{}, fmt.Errorf("%w: section is required", models.ErrValidation)
	}

	var result BulkResult
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, ok := names.Parse(line)
		if !ok {
			result.Skipped = append(result.Skipped, line)
			continue
		}
		student, err := l.newStudent(StudentFields{
			FirstName:     name.FirstName,
			MiddleInitial: name.MiddleInitial,
			LastName:      name.LastName,
			Section:       section,
		})
		if err != nil {
			result.Skipped = append(result.Skipped, line)
			continue
		}
		result.Added = append(result.Added, student)
	}

	if len(result.Added) == 0 {
		return result, fmt.Errorf("%w: no valid student names found", models.ErrValidation)
	}
	l.data.Students = append(l.data.Students, result.Added...)
	return result, nil
}

func (l *Ledger) newStudent(fields StudentFields) (models.Student, error) {
	fields = fields.normalize()
	if err := validateStruct(fields); err != nil {
		return models.Student{}, err
	}
	student := models.Student{
		ID:            l.newID(),
		FirstName:     fields.FirstName,
		MiddleInitial: fields.MiddleInitial,
		LastName:      fields.LastName,
		Section:       fields.Section,
		Categories:    make(map[string]models.CategoryRecord, len(l.data.Categories)),
	}
	for _, c := range l.data.Categories {
		student.Categories[c.ID] = models.EmptyRecord()
	}
	return student, nil
}
