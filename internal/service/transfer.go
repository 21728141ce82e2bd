package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/metrics"
	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/spreadsheet"
)

// ImportFormat is the kind of file being imported.
type ImportFormat string

const (
	FormatXLSX ImportFormat = "xlsx"
	FormatCSV  ImportFormat = "csv"
)

// ParseImportFormat accepts "xlsx" (the default) or "csv".
func ParseImportFormat(s string) (ImportFormat, error) {
	switch s {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown import format %q", models.ErrValidation, s)
	}
}

// ImportReport describes an applied import.
type ImportReport struct {
	Layout          spreadsheet.Layout
	Outcome         ledger.ImportOutcome
	CategoriesAdded int
	Errors          []string
}

// Import reads r and merges the result into the ledger with mode. The file
// is parsed against a snapshot of the categories without holding the lock;
// nothing is applied when parsing fails or yields no students.
func (s *Session) Import(r io.Reader, format ImportFormat, mode ledger.ImportMode) (ImportReport, error) {
	var cats []models.Category
	var active string
	s.View(func(l *ledger.Ledger) {
		cats = l.Categories()
		active = l.ActiveCategory()
	})

	var res *spreadsheet.Result
	var err error
	switch format {
	case FormatCSV:
		res, err = s.importer.ImportCSV(r, cats)
	default:
		res, err = s.importer.ImportWorkbook(r, cats, active)
	}
	if err != nil {
		metrics.Imports.WithLabelValues(string(rejectedLayout(format)), mode.String(), "bad_file").Inc()
		slog.Warn("Import file rejected", "username", s.username, "format", format, "error", err)
		return ImportReport{}, err
	}
	metrics.ImportRowErrors.Add(float64(len(res.Errors)))

	report := ImportReport{Layout: res.Layout, Errors: res.Errors, CategoriesAdded: len(res.CategoriesAdded)}
	err = s.Update(func(l *ledger.Ledger) error {
		outcome, err := l.ApplyImport(res.Batch(), mode)
		report.Outcome = outcome
		return err
	})
	result := metrics.Result(err)
	if errors.Is(err, models.ErrValidation) {
		result = "empty"
	}
	metrics.Imports.WithLabelValues(string(res.Layout), mode.String(), result).Inc()
	if err != nil {
		return report, err
	}

	slog.Info("Import applied",
		"username", s.username,
		"layout", res.Layout,
		"mode", mode,
		"imported", report.Outcome.Imported,
		"added", report.Outcome.Added,
		"skipped", report.Outcome.Skipped,
		"row_errors", len(res.Errors),
	)
	return report, nil
}

// Import is Session.Import against the user's current session. The file is
// parsed again if the session is closed before the batch is applied.
func (m *Sessions) Import(ctx context.Context, username string, file []byte, format ImportFormat, mode ledger.ImportMode) (ImportReport, error) {
	var report ImportReport
	err := m.retry(ctx, username, func(s *Session) error {
		var err error
		report, err = s.Import(bytes.NewReader(file), format, mode)
		return err
	})
	return report, err
}

// rejectedLayout is the layout label of a file that could not be read. Only
// CSV is known from the format alone.
func rejectedLayout(format ImportFormat) spreadsheet.Layout {
	if format == FormatCSV {
		return spreadsheet.LayoutCSV
	}
	return spreadsheet.LayoutUnknown
}

// Export renders the current ledger as a workbook.
func (s *Session) Export() ([]byte, error) {
	var data models.LedgerData
	s.View(func(l *ledger.Ledger) { data = l.Data() })

	var buf bytes.Buffer
	err := spreadsheet.Export(&buf, data)
	metrics.Exports.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
