package ledger

import (
	"fmt"

	"github.com/mmynk/treasurer/internal/models"
)

// ImportMode chooses how an import batch is merged into the ledger.
type ImportMode int

const (
	// ModeAppend keeps existing students and adds batch students whose ID is new.
	ModeAppend ImportMode = iota
	// ModeReplace swaps the whole student list for the batch.
	ModeReplace
)

// ParseImportMode maps "replace"/"append" to an ImportMode.
func ParseImportMode(s string) (ImportMode, error) {
	switch s {
	case "replace":
		return ModeReplace, nil
	case "append", "":
		return ModeAppend, nil
	default:
		return 0, fmt.Errorf("%w: unknown import mode %q", models.ErrValidation, s)
	}
}

func (m ImportMode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "append"
}

// ImportBatch is the validated output of an importer.
type ImportBatch struct {
	Students []models.Student

	// Categories found or created by the importer.
	Categories []models.Category

	// ReplaceCategories installs Categories as the full category set instead
	// of adding the ones not yet defined.
	ReplaceCategories bool
}

// ImportOutcome reports what ApplyImport changed.
type ImportOutcome struct {
	Mode     ImportMode
	Imported int // students in the batch
	Added    int // students actually added
	Skipped  int // append mode: students dropped because their ID already existed
}

// ApplyImport merges a batch into the ledger. Append mode deduplicates by
// student ID only. A batch without students changes nothing.
func (l *Ledger) ApplyImport(batch ImportBatch, mode ImportMode) (ImportOutcome, error) {
	if len(batch.Students) == 0 {
		return ImportOutcome{}, fmt.Errorf("%w: no valid student data found in the import", models.ErrValidation)
	}

	switch {
	case batch.ReplaceCategories && len(batch.Categories) > 0:
		cats := make([]models.Category, len(batch.Categories))
		copy(cats, batch.Categories)
		l.data.Categories = cats
	default:
		for _, c := range batch.Categories {
			if l.categoryIndex(c.ID) < 0 {
				l.data.Categories = append(l.data.Categories, c)
			}
		}
	}
	if l.data.ActiveCategory == "" || l.categoryIndex(l.data.ActiveCategory) < 0 {
		l.data.ActiveCategory = ""
		if len(l.data.Categories) > 0 {
			l.data.ActiveCategory = l.data.Categories[0].ID
		}
	}

	outcome := ImportOutcome{Mode: mode, Imported: len(batch.Students)}
	if mode == ModeReplace {
		students := make([]models.Student, len(batch.Students))
		for i, s := range batch.Students {
			students[i] = s.Clone()
		}
		l.data.Students = students
		outcome.Added = len(students)
		return outcome, nil
	}

	existing := make(map[string]bool, len(l.data.Students))
	for _, s := range l.data.Students {
		existing[s.ID] = true
	}
	for _, s := range batch.Students {
		if existing[s.ID] {
			outcome.Skipped++
			continue
		}
		l.data.Students = append(l.data.Students, s.Clone())
		outcome.Added++
	}
	return outcome, nil
}
