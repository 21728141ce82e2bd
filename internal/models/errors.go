package models

import "errors"

// Error taxonomy shared by the ledger, migrator and importers. Operations wrap
// these with context; callers test with errors.Is.
var (
	// ErrValidation marks a bad field value (empty name, negative amount, ...).
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a reference to a student or category that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorruptData marks a persisted blob that cannot be decoded.
	ErrCorruptData = errors.New("corrupt data")

	// ErrImportFormat marks an unreadable or unrecognized import file.
	ErrImportFormat = errors.New("import format error")

	// ErrNothingToExport is returned when exporting a ledger without students.
	ErrNothingToExport = errors.New("no student data to export")
)
