package ledger

import (
	"fmt"
	"log/slog"

	"github.com/mmynk/treasurer/internal/models"
)

// AddCategory creates a category and backfills a zero record onto every
// student. The first category ever added becomes the active one.
func (l *Ledger) AddCategory(fields CategoryFields) (models.Category, error) {
	fields = fields.normalize()
	if err := validateStruct(fields); err != nil {
		return models.Category{}, err
	}
	if err := l.checkColumnKey(fields.Name, ""); err != nil {
		return models.Category{}, err
	}

	category := models.Category{
		ID:           l.newID(),
		Name:         fields.Name,
		Description:  fields.Description,
		TargetAmount: fields.TargetAmount,
	}
	l.data.Categories = append(l.data.Categories, category)

	for i := range l.data.Students {
		s := &l.data.Students[i]
		if s.Categories == nil {
			s.Categories = make(map[string]models.CategoryRecord)
		}
		s.Categories[category.ID] = models.EmptyRecord()
	}

	if len(l.data.Categories) == 1 {
		l.data.ActiveCategory = category.ID
	}
	return category, nil
}

// EditCategory replaces a category's name, description and target. Its ID and
// the students' records are left untouched.
func (l *Ledger) EditCategory(id string, fields CategoryFields) (models.Category, error) {
	i := l.categoryIndex(id)
	if i < 0 {
		return models.Category{}, fmt.Errorf("%w: category %s", models.ErrNotFound, id)
	}
	fields = fields.normalize()
	if err := validateStruct(fields); err != nil {
		return models.Category{}, err
	}
	if err := l.checkColumnKey(fields.Name, id); err != nil {
		return models.Category{}, err
	}

	c := &l.data.Categories[i]
	c.Name = fields.Name
	c.Description = fields.Description
	c.TargetAmount = fields.TargetAmount
	return *c, nil
}

// DeleteCategory removes a category and every student's record for it.
//
// Deleting the sole remaining category while students exist replaces it with a
// fresh "Default Payments" category instead, carrying each student's record
// over unchanged, so no student is left without categories.
func (l *Ledger) DeleteCategory(id string) error {
	i := l.categoryIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: category %s", models.ErrNotFound, id)
	}
	deleted := l.data.Categories[i]

	if len(l.data.Categories) == 1 && len(l.data.Students) > 0 {
		replacement := models.Category{
			ID:           l.newID(),
			Name:         models.DefaultCategoryName,
			Description:  models.DefaultCategoryDescription,
			TargetAmount: deleted.TargetAmount,
		}
		for si := range l.data.Students {
			s := &l.data.Students[si]
			if s.Categories == nil {
				s.Categories = make(map[string]models.CategoryRecord)
			}
			rec, ok := s.Categories[id]
			if !ok {
				rec = models.EmptyRecord()
			}
			delete(s.Categories, id)
			s.Categories[replacement.ID] = rec
		}
		l.data.Categories = []models.Category{replacement}
		l.data.ActiveCategory = replacement.ID

		slog.Info("Replaced last category with default",
			"deleted_id", id,
			"replacement_id", replacement.ID,
			"students", len(l.data.Students),
		)
		return nil
	}

	l.data.Categories = append(l.data.Categories[:i:i], l.data.Categories[i+1:]...)
	for si := range l.data.Students {
		delete(l.data.Students[si].Categories, id)
	}
	if l.data.ActiveCategory == id {
		l.data.ActiveCategory = ""
		if len(l.data.Categories) > 0 {
			l.data.ActiveCategory = l.data.Categories[0].ID
		}
	}
	return nil
}

// SetActiveCategory selects the active category. An empty id clears it.
func (l *Ledger) SetActiveCategory(id string) error {
	if id != "" && l.categoryIndex(id) < 0 {
		return fmt.Errorf("%w: category %s", models.ErrNotFound, id)
	}
	l.data.ActiveCategory = id
	return nil
}

// checkColumnKey rejects a name whose spreadsheet column key is already used
// by another category than self, since export would write both under the
// same headers.
func (l *Ledger) checkColumnKey(name, self string) error {
	key := models.Category{Name: name}.ColumnKey()
	for _, c := range l.data.Categories {
		if c.ID != self && c.ColumnKey() == key {
			return fmt.Errorf("%w: category name %q clashes with %q", models.ErrValidation, name, c.Name)
		}
	}
	return nil
}
