// Package calculator computes collection summaries over a ledger snapshot.
package calculator

import (
	"math"
	"sort"

	"github.com/mmynk/treasurer/internal/models"
)

// CategorySummary is the collection status of one category across all students.
type CategorySummary struct {
	CategoryID string
	Name       string
	Target     float64
	Collected  float64 // sum of every student's amount, paid or not
	Remaining  float64 // max(0, Target-Collected)
	Completion float64 // percent of Target collected, capped at 100; 0 without a target
	Paid       int
	Unpaid     int
}

// SectionSummary is one section's status for a single category.
type SectionSummary struct {
	Section       string
	Count         int
	Total         float64
	Paid          int
	Unpaid        int
	LatestPayment models.Date // most recent payment date among paid students, absent if none
}

// Totals are the overall figures for a single category.
type Totals struct {
	Students  int
	Collected float64
	Paid      int
	Unpaid    int
}

// SummarizeCategories returns one summary per category, in category order.
func SummarizeCategories(data models.LedgerData) []CategorySummary {
	out := make([]CategorySummary, 0, len(data.Categories))
	for _, c := range data.Categories {
		out = append(out, SummarizeCategory(c, data.Students))
	}
	return out
}

// SummarizeCategory computes the summary for one category. Students without a
// record for the category count as unpaid with amount 0.
func SummarizeCategory(c models.Category, students []models.Student) CategorySummary {
	s := CategorySummary{
		CategoryID: c.ID,
		Name:       c.Name,
		Target:     c.TargetAmount,
	}
	for _, st := range students {
		rec, ok := st.Categories[c.ID]
		if !ok {
			continue
		}
		s.Collected += rec.Amount
		if rec.IsPaid {
			s.Paid++
		}
	}
	s.Unpaid = len(students) - s.Paid
	s.Remaining = math.Max(0, s.Target-s.Collected)
	if s.Target > 0 {
		s.Completion = math.Min(100, s.Collected/s.Target*100)
	}
	return s
}

// SummarizeSections groups students by section, sorted by label, and
// summarizes each group for categoryID.
func SummarizeSections(students []models.Student, categoryID string) []SectionSummary {
	bySection := make(map[string]*SectionSummary)
	for _, st := range students {
		sum, ok := bySection[st.Section]
		if !ok {
			sum = &SectionSummary{Section: st.Section}
			bySection[st.Section] = sum
		}
		sum.Count++
		rec, ok := st.Categories[categoryID]
		if !ok {
			sum.Unpaid++
			continue
		}
		sum.Total += rec.Amount
		if !rec.IsPaid {
			sum.Unpaid++
			continue
		}
		sum.Paid++
		// yyyy-mm-dd compares correctly as a string
		if rec.PaymentDate > sum.LatestPayment {
			sum.LatestPayment = rec.PaymentDate
		}
	}

	out := make([]SectionSummary, 0, len(bySection))
	for _, sum := range bySection {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out
}

// Overall computes ledger-wide totals for categoryID.
func Overall(students []models.Student, categoryID string) Totals {
	t := Totals{Students: len(students)}
	for _, st := range students {
		rec, ok := st.Categories[categoryID]
		if !ok {
			continue
		}
		t.Collected += rec.Amount
		if rec.IsPaid {
			t.Paid++
		}
	}
	t.Unpaid = t.Students - t.Paid
	return t
}
