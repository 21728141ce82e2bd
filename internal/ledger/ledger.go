// Package ledger implements the in-memory student payment ledger: categories,
// students and their per-category payment records.
//
// A Ledger is owned by its caller and is not safe for concurrent use. Every
// mutating method validates its input before touching state, so a returned
// error means nothing was changed.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/treasurer/internal/models"
)

// Ledger holds one user's students and categories.
type Ledger struct {
	data  models.LedgerData
	now   func() time.Time
	newID func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the clock used for "today" payment dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator sets the generator for student, category and transaction IDs.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// New wraps data in a Ledger. The ledger takes ownership of data; callers
// should not keep using it afterwards.
func New(data models.LedgerData, opts ...Option) *Ledger {
	l := &Ledger{
		data:  data,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.data.Students == nil {
		l.data.Students = []models.Student{}
	}
	if l.data.Categories == nil {
		l.data.Categories = []models.Category{}
	}
	return l
}

// Data returns a deep copy of the ledger state, suitable for persisting.
func (l *Ledger) Data() models.LedgerData {
	return l.data.Clone()
}

// Categories returns the categories in creation order.
func (l *Ledger) Categories() []models.Category {
	out := make([]models.Category, len(l.data.Categories))
	copy(out, l.data.Categories)
	return out
}

// Category returns the category with the given ID.
func (l *Ledger) Category(id string) (models.Category, error) {
	i := l.categoryIndex(id)
	if i < 0 {
		return models.Category{}, fmt.Errorf("%w: category %s", models.ErrNotFound, id)
	}
	return l.data.Categories[i], nil
}

// ActiveCategory returns the active category ID, or "" when none is selected.
func (l *Ledger) ActiveCategory() string {
	return l.data.ActiveCategory
}

// Students returns copies of all students in storage order.
func (l *Ledger) Students() []models.Student {
	out := make([]models.Student, len(l.data.Students))
	for i, s := range l.data.Students {
		out[i] = s.Clone()
	}
	return out
}

// Student returns a copy of the student with the given ID, with records
// backfilled for every defined category.
func (l *Ledger) Student(id string) (models.Student, error) {
	i := l.studentIndex(id)
	if i < 0 {
		return models.Student{}, fmt.Errorf("%w: student %s", models.ErrNotFound, id)
	}
	l.backfill(&l.data.Students[i])
	return l.data.Students[i].Clone(), nil
}

// Record returns the student's record for a category, creating a zero-valued
// record if the student predates the category.
func (l *Ledger) Record(studentID, categoryID string) (models.CategoryRecord, error) {
	_, rec, err := l.record(studentID, categoryID)
	if err != nil {
		return models.CategoryRecord{}, err
	}
	return rec.Clone(), nil
}

// record resolves a student and one of its category records, backfilling the
// record when it is missing. Writes go through s.Categories[categoryID].
func (l *Ledger) record(studentID, categoryID string) (*models.Student, models.CategoryRecord, error) {
	si := l.studentIndex(studentID)
	if si < 0 {
		return nil, models.CategoryRecord{}, fmt.Errorf("%w: student %s", models.ErrNotFound, studentID)
	}
	if l.categoryIndex(categoryID) < 0 {
		return nil, models.CategoryRecord{}, fmt.Errorf("%w: category %s", models.ErrNotFound, categoryID)
	}
	s := &l.data.Students[si]
	if s.Categories == nil {
		s.Categories = make(map[string]models.CategoryRecord)
	}
	rec, ok := s.Categories[categoryID]
	if !ok {
		rec = models.EmptyRecord()
		s.Categories[categoryID] = rec
	}
	return s, rec, nil
}

// backfill adds a zero record for every category the student is missing.
func (l *Ledger) backfill(s *models.Student) {
	if s.Categories == nil {
		s.Categories = make(map[string]models.CategoryRecord, len(l.data.Categories))
	}
	for _, c := range l.data.Categories {
		if _, ok := s.Categories[c.ID]; !ok {
			s.Categories[c.ID] = models.EmptyRecord()
		}
	}
}

func (l *Ledger) today() models.Date {
	return models.NewDate(l.now())
}

func (l *Ledger) studentIndex(id string) int {
	for i := range l.data.Students {
		if l.data.Students[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) categoryIndex(id string) int {
	for i := range l.data.Categories {
		if l.data.Categories[i].ID == id {
			return i
		}
	}
	return -1
}
