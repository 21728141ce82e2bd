package models

// Student is one person tracked in the ledger.
type Student struct {
	// ID is the opaque unique identifier (UUID for students created here, but
	// imported spreadsheets may carry any string).
	ID string `json:"id"`

	FirstName string `json:"firstName"`

	// MiddleInitial is empty or a single uppercase letter.
	MiddleInitial string `json:"middleInitial"`

	LastName string `json:"lastName"`

	// Section is the uppercase grouping label (e.g. "BSCS-1A").
	Section string `json:"section"`

	// Categories maps category ID to this student's payment state.
	// Entries for newly created categories are backfilled lazily.
	Categories map[string]CategoryRecord `json:"categories"`
}

// DisplayName renders the student as "Last, First M" the way exports and
// section lists show it.
func (s Student) DisplayName() string {
	name := s.LastName + ", " + s.FirstName
	if s.MiddleInitial != "" {
		name += " " + s.MiddleInitial
	}
	return name
}

// Clone returns a deep copy so callers can hand out students without sharing
// the record map or transaction slices.
func (s Student) Clone() Student {
	c := s
	c.Categories = make(map[string]CategoryRecord, len(s.Categories))
	for id, rec := range s.Categories {
		c.Categories[id] = rec.Clone()
	}
	return c
}
