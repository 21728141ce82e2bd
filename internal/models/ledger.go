package models

// Default category values used when a ledger is seeded or migrated.
const (
	DefaultCategoryID          = "default"
	DefaultCategoryName        = "Default Payments"
	DefaultCategoryDescription = "General student payments"
)

// LedgerData is the persisted per-user record.
type LedgerData struct {
	Students []Student `json:"students"`

	// Categories is kept in creation order; the first one is the default active category.
	Categories []Category `json:"categories"`

	// ActiveCategory is a category ID, or empty when no category is selected.
	ActiveCategory string `json:"activeCategory,omitempty"`
}

// NewLedgerData returns an empty ledger seeded with the default category.
func NewLedgerData() LedgerData {
	return LedgerData{
		Students: []Student{},
		Categories: []Category{{
			ID:          DefaultCategoryID,
			Name:        DefaultCategoryName,
			Description: DefaultCategoryDescription,
		}},
		ActiveCategory: DefaultCategoryID,
	}
}

// Clone returns a deep copy of the ledger data.
func (d LedgerData) Clone() LedgerData {
	c := LedgerData{
		Students:       make([]Student, len(d.Students)),
		Categories:     make([]Category, len(d.Categories)),
		ActiveCategory: d.ActiveCategory,
	}
	for i, s := range d.Students {
		c.Students[i] = s.Clone()
	}
	copy(c.Categories, d.Categories)
	return c
}

// HasCategory reports whether id names a defined category.
func (d LedgerData) HasCategory(id string) bool {
	for _, c := range d.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
