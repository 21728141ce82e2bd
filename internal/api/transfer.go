package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/middleware"
	"github.com/mmynk/treasurer/internal/service"
	"github.com/mmynk/treasurer/internal/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type importResponse struct {
	Layout          string   `json:"layout"`
	Mode            string   `json:"mode"`
	Imported        int      `json:"imported"`
	Added           int      `json:"added"`
	Skipped         int      `json:"skipped"`
	CategoriesAdded int      `json:"categoriesAdded"`
	Errors          []string `json:"errors"`
}

// Import handles POST /api/import?mode=replace|append&format=xlsx|csv. The
// request body is the raw file.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	mode, err := ledger.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		fail(w, r, "Import", err)
		return
	}
	format, err := service.ParseImportFormat(r.URL.Query().Get("format"))
	if err != nil {
		fail(w, r, "Import", err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("import file exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		fail(w, r, "Import", err)
		return
	}

	report, err := h.sessions.Import(r.Context(), middleware.GetUsername(r.Context()), body, format, mode)
	if err != nil {
		fail(w, r, "Import", err)
		return
	}

	errs := report.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, importResponse{
		Layout:          string(report.Layout),
		Mode:            report.Outcome.Mode.String(),
		Imported:        report.Outcome.Imported,
		Added:           report.Outcome.Added,
		Skipped:         report.Outcome.Skipped,
		CategoriesAdded: report.CategoriesAdded,
		Errors:          errs,
	})
}

// Export handles GET /api/export and returns the workbook as an attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		fail(w, r, "Export", err)
		return
	}
	data, err := sess.Export()
	if err != nil {
		fail(w, r, "Export", err)
		return
	}

	name := spreadsheet.Filename(middleware.GetUsername(r.Context()), h.opts.Now())
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
