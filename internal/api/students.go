package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/models"
)

type studentRequest struct {
	FirstName     string `json:"firstName"`
	MiddleInitial string `json:"middleInitial"`
	LastName      string `json:"lastName"`
	Section       string `json:"section"`
}

func (s studentRequest) fields() ledger.StudentFields {
	return ledger.StudentFields{
		FirstName:     s.FirstName,
		MiddleInitial: s.MiddleInitial,
		LastName:      s.LastName,
		Section:       s.Section,
	}
}

type bulkRequest struct {
	Section string `json:"section"`
	// Names holds one name per line.
	Names string `json:"names"`
}

type bulkResponse struct {
	Added   []models.Student `json:"added"`
	Skipped []string         `json:"skipped"`
}

type paymentRequest struct {
	Amount      float64     `json:"amount"`
	IsPaid      bool        `json:"isPaid"`
	PaymentDate models.Date `json:"paymentDate"`
}

type sectionJSON struct {
	Section  string           `json:"section"`
	Students []models.Student `json:"students"`
}

type ledgerResponse struct {
	Categories     []models.Category `json:"categories"`
	ActiveCategory string            `json:"activeCategory"`
	Sections       []sectionJSON     `json:"sections"`
}

// GetLedger handles GET /api/ledger: categories plus students grouped by
// section in display order.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		fail(w, r, "GetLedger", err)
		return
	}

	resp := ledgerResponse{Sections: []sectionJSON{}}
	sess.View(func(l *ledger.Ledger) {
		resp.Categories = l.Categories()
		resp.ActiveCategory = l.ActiveCategory()
		for _, g := range l.StudentsBySection() {
			resp.Sections = append(resp.Sections, sectionJSON{Section: g.Section, Students: g.Students})
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

// AddStudent handles POST /api/students.
func (h *Handler) AddStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "AddStudent", err)
		return
	}
	h.update(w, r, "AddStudent", http.StatusCreated, func(l *ledger.Ledger) (any, error) {
		return l.AddStudent(req.fields())
	})
}

// BulkAddStudents handles POST /api/students/bulk.
func (h *Handler) BulkAddStudents(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "BulkAddStudents", err)
		return
	}
	lines := strings.Split(req.Names, "\n")
	h.update(w, r, "BulkAddStudents", http.StatusCreated, func(l *ledger.Ledger) (any, error) {
		res, err := l.BulkAddStudents(req.Section, lines)
		if err != nil {
			return nil, err
		}
		if res.Skipped == nil {
			res.Skipped = []string{}
		}
		return bulkResponse{Added: res.Added, Skipped: res.Skipped}, nil
	})
}

// EditStudent handles PUT /api/students/{id}.
func (h *Handler) EditStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "EditStudent", err)
		return
	}
	id := chi.URLParam(r, "id")
	h.update(w, r, "EditStudent", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		return l.EditStudent(id, req.fields())
	})
}

// DeleteStudent handles DELETE /api/students/{id}.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.update(w, r, "DeleteStudent", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		return map[string]string{"deleted": id}, l.DeleteStudent(id)
	})
}

// DeleteSection handles DELETE /api/sections/{section}.
func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	section, err := url.PathUnescape(chi.URLParam(r, "section"))
	if err != nil {
		section = chi.URLParam(r, "section")
	}
	h.update(w, r, "DeleteSection", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		return map[string]int{"removed": l.DeleteSection(section)}, nil
	})
}

// SetPayment handles PUT /api/students/{id}/payments/{categoryID}.
func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "SetPayment", err)
		return
	}
	id, categoryID := chi.URLParam(r, "id"), chi.URLParam(r, "categoryID")
	h.update(w, r, "SetPayment", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		return l.SetPayment(id, categoryID, ledger.Payment{
			Amount:      req.Amount,
			IsPaid:      req.IsPaid,
			PaymentDate: req.PaymentDate,
		})
	})
}

// TogglePayment handles POST /api/students/{id}/payments/{categoryID}/toggle.
func (h *Handler) TogglePayment(w http.ResponseWriter, r *http.Request) {
	id, categoryID := chi.URLParam(r, "id"), chi.URLParam(r, "categoryID")
	h.update(w, r, "TogglePayment", http.StatusOK, func(l *ledger.Ledger) (any, error) {
		return l.TogglePayment(id, categoryID)
	})
}
