package api

import (
	"fmt"
	"net/http"

	"github.com/mmynk/treasurer/internal/calculator"
	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/models"
)

type categorySummaryJSON struct {
	CategoryID string  `json:"categoryId"`
	Name       string  `json:"name"`
	Target     float64 `json:"target"`
	Collected  float64 `json:"collected"`
	Remaining  float64 `json:"remaining"`
	Completion float64 `json:"completion"`
	Paid       int     `json:"paid"`
	Unpaid     int     `json:"unpaid"`
}

type sectionSummaryJSON struct {
	Section       string      `json:"section"`
	Count         int         `json:"count"`
	Total         float64     `json:"total"`
	Paid          int         `json:"paid"`
	Unpaid        int         `json:"unpaid"`
	LatestPayment models.Date `json:"latestPayment"`
}

type totalsJSON struct {
	Students  int     `json:"students"`
	Collected float64 `json:"collected"`
	Paid      int     `json:"paid"`
	Unpaid    int     `json:"unpaid"`
}

type summaryResponse struct {
	Category   categorySummaryJSON   `json:"category"`
	Totals     totalsJSON            `json:"totals"`
	Sections   []sectionSummaryJSON  `json:"sections"`
	Categories []categorySummaryJSON `json:"categories"`
}

func categorySummaryToJSON(s calculator.CategorySummary) categorySummaryJSON {
	return categorySummaryJSON{
		CategoryID: s.CategoryID,
		Name:       s.Name,
		Target:     s.Target,
		Collected:  s.Collected,
		Remaining:  s.Remaining,
		Completion: s.Completion,
		Paid:       s.Paid,
		Unpaid:     s.Unpaid,
	}
}

// GetSummary handles GET /api/summary?category=ID. Without a category the
// active one is summarized.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		fail(w, r, "GetSummary", err)
		return
	}

	var data models.LedgerData
	sess.View(func(l *ledger.Ledger) { data = l.Data() })

	categoryID := r.URL.Query().Get("category")
	if categoryID == "" {
		categoryID = data.ActiveCategory
	}
	var category *models.Category
	for i := range data.Categories {
		if data.Categories[i].ID == categoryID {
			category = &data.Categories[i]
			break
		}
	}
	if category == nil {
		fail(w, r, "GetSummary", fmt.Errorf("%w: category %q", models.ErrNotFound, categoryID))
		return
	}

	resp := summaryResponse{
		Category:   categorySummaryToJSON(calculator.SummarizeCategory(*category, data.Students)),
		Sections:   []sectionSummaryJSON{},
		Categories: []categorySummaryJSON{},
	}
	t := calculator.Overall(data.Students, category.ID)
	resp.Totals = totalsJSON{Students: t.Students, Collected: t.Collected, Paid: t.Paid, Unpaid: t.Unpaid}
	for _, s := range calculator.SummarizeSections(data.Students, category.ID) {
		resp.Sections = append(resp.Sections, sectionSummaryJSON{
			Section:       s.Section,
			Count:         s.Count,
			Total:         s.Total,
			Paid:          s.Paid,
			Unpaid:        s.Unpaid,
			LatestPayment: s.LatestPayment,
		})
	}
	for _, s := range calculator.SummarizeCategories(data) {
		resp.Categories = append(resp.Categories, categorySummaryToJSON(s))
	}
	writeJSON(w, http.StatusOK, resp)
}
