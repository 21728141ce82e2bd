// Package migrate upgrades persisted ledger blobs to the current
// category-keyed shape.
//
// Three inputs are understood: the current shape ({students, categories,
// activeCategory} with per-category records), the legacy shape (students with
// flat amount/isPaid/paymentDate fields, stored under a separate key and
// without categories), and a current-shape blob whose category list is empty.
// Migrating already-migrated data is a no-op.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/treasurer/internal/models"
)

const (
	migratedNote        = "Migrated from old system"
	migratedDescription = "Migrated from old system"
)

// newID generates IDs for students stored without one and for transactions
// synthesized from legacy fields.
var newID = defaultNewID

func defaultNewID() string { return uuid.New().String() }

// Result is the outcome of a migration.
type Result struct {
	Data models.LedgerData

	// Seeded is set when there was nothing stored and a fresh ledger was created.
	Seeded bool

	// Changed is set when Data differs from the stored current blob and should be saved.
	Changed bool

	// LegacyConsumed is set when the legacy blob was merged into Data. The
	// caller deletes the legacy record once Data has been saved.
	LegacyConsumed bool
}

// rawStudent decodes both shapes: the flat legacy fields sit beside the
// current categories map.
type rawStudent struct {
	models.Student
	Amount      *flexFloat  `json:"amount"`
	IsPaid      *bool       `json:"isPaid"`
	PaymentDate models.Date `json:"paymentDate"`
}

func (s rawStudent) hasFlatFields() bool {
	return s.Amount != nil || s.IsPaid != nil || !s.PaymentDate.IsZero()
}

type rawLedger struct {
	Students       []rawStudent      `json:"students"`
	Categories     []models.Category `json:"categories"`
	ActiveCategory string            `json:"activeCategory"`
}

// Migrate loads a ledger from the current blob and, when the ledger has no
// categories yet, the legacy blob. Either may be empty. Undecodable input
// fails with models.ErrCorruptData; the caller falls back to
// models.NewLedgerData and leaves the stored blob alone.
func Migrate(current, legacy []byte) (Result, error) {
	current = bytes.TrimSpace(current)
	legacy = bytes.TrimSpace(legacy)

	if len(current) == 0 && len(legacy) == 0 {
		return Result{Data: models.NewLedgerData(), Seeded: true, Changed: true}, nil
	}

	var raw rawLedger
	if len(current) > 0 {
		if err := json.Unmarshal(current, &raw); err != nil {
			return Result{}, fmt.Errorf("%w: failed to decode ledger: %v", models.ErrCorruptData, err)
		}
	}

	var result Result
	if len(current) == 0 {
		result.Changed = true
	}

	if len(raw.Categories) == 0 {
		description := models.DefaultCategoryDescription
		if len(legacy) > 0 {
			legacyStudents, err := decodeLegacy(legacy)
			if err != nil {
				return Result{}, err
			}
			raw.Students = mergeStudents(raw.Students, legacyStudents)
			result.LegacyConsumed = true
			description = migratedDescription
		}
		raw.Categories = []models.Category{{
			ID:          models.DefaultCategoryID,
			Name:        models.DefaultCategoryName,
			Description: description,
		}}
		result.Changed = true
	}

	data := models.LedgerData{
		Students:       make([]models.Student, 0, len(raw.Students)),
		Categories:     raw.Categories,
		ActiveCategory: raw.ActiveCategory,
	}
	target := raw.Categories[0].ID
	ids := make(map[string]bool, len(raw.Students))
	for _, rs := range raw.Students {
		s := rs.Student
		// the oldest clients stored students without ids
		if s.ID == "" || ids[s.ID] {
			s.ID = newID()
			result.Changed = true
		}
		ids[s.ID] = true
		if section := strings.ToUpper(strings.TrimSpace(s.Section)); section != s.Section {
			s.Section = section
			result.Changed = true
		}
		if len(s.Categories) == 0 && rs.hasFlatFields() {
			s.Categories = map[string]models.CategoryRecord{target: flatRecord(rs)}
			result.Changed = true
		}
		if s.Categories == nil {
			s.Categories = map[string]models.CategoryRecord{}
		}
		data.Students = append(data.Students, s)
	}

	if !data.HasCategory(data.ActiveCategory) {
		data.ActiveCategory = data.Categories[0].ID
		result.Changed = true
	}

	result.Data = data
	return result, nil
}

// decodeLegacy accepts the legacy student array, or an object wrapping it.
func decodeLegacy(b []byte) ([]rawStudent, error) {
	var students []rawStudent
	if err := json.Unmarshal(b, &students); err == nil {
		return students, nil
	}
	var wrapped struct {
		Students []rawStudent `json:"students"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: failed to decode legacy students: %v", models.ErrCorruptData, err)
	}
	return wrapped.Students, nil
}

// mergeStudents appends legacy students whose ID is not already present.
// Students without an ID are always kept.
func mergeStudents(current, legacy []rawStudent) []rawStudent {
	seen := make(map[string]bool, len(current))
	for _, s := range current {
		seen[s.ID] = true
	}
	for _, s := range legacy {
		if s.ID != "" && seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		current = append(current, s)
	}
	return current
}

// flatRecord wraps legacy flat fields into a category record. A recorded
// payment date also becomes the first transaction.
func flatRecord(s rawStudent) models.CategoryRecord {
	rec := models.EmptyRecord()
	if s.Amount != nil {
		rec.Amount = float64(*s.Amount)
	}
	if s.IsPaid != nil {
		rec.IsPaid = *s.IsPaid
	}
	rec.PaymentDate = s.PaymentDate
	if !rec.PaymentDate.IsZero() {
		rec.Transactions = append(rec.Transactions, models.Transaction{
			ID:     newID(),
			Amount: rec.Amount,
			Date:   rec.PaymentDate,
			Notes:  migratedNote,
		})
	}
	return rec
}

// flexFloat decodes a JSON number or a numeric string. Anything else reads as 0,
// matching how older clients treated unparsable amounts.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*f = flexFloat(v)
			return nil
		}
	}
	*f = 0
	return nil
}
