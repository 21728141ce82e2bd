package ledger

import (
	"sort"
	"strings"

	"github.com/mmynk/treasurer/internal/models"
)

// SectionGroup is one section's students in display order.
type SectionGroup struct {
	Section  string
	Students []models.Student
}

// Sections returns the distinct section labels, sorted.
func (l *Ledger) Sections() []string {
	seen := make(map[string]bool)
	var sections []string
	for _, s := range l.data.Students {
		if !seen[s.Section] {
			seen[s.Section] = true
			sections = append(sections, s.Section)
		}
	}
	sort.Strings(sections)
	return sections
}

// StudentsBySection groups students by section (sections sorted) with each
// group sorted by last name, then first name. Records are backfilled for
// every defined category.
func (l *Ledger) StudentsBySection() []SectionGroup {
	groups := make(map[string][]models.Student)
	for i := range l.data.Students {
		l.backfill(&l.data.Students[i])
		s := l.data.Students[i]
		groups[s.Section] = append(groups[s.Section], s.Clone())
	}

	sections := l.Sections()
	out := make([]SectionGroup, 0, len(sections))
	for _, section := range sections {
		students := groups[section]
		SortStudents(students)
		out = append(out, SectionGroup{Section: section, Students: students})
	}
	return out
}

// SortStudents orders students by last name, then first name, ignoring case.
// Ties fall back to ID so the order is stable across calls.
func SortStudents(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
			return c < 0
		}
		if c := strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}
