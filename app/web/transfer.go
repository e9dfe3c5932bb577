package web

import (
	"fmt"
	"net/http"
)

// APIImportResponse reports the outcome of a CSV import
type APIImportResponse struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Message  string `json:"message"`
}

// handleExport streams the whole collection as a CSV attachment
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="job_applications.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.tracker.ExportCSV()))
}

// handleImport merges records from an uploaded CSV into the collection
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	res, err := s.tracker.ImportCSV(r.Context(), r.Body)
	if err != nil {
		s.writeMutationError(w, err)
		return
	}

	msg := fmt.Sprintf("imported %d applications, skipped %d rows", res.Imported, res.Skipped)
	if res.Imported == 0 {
		msg = "no valid applications found in the file"
	}
	s.writeJSON(w, http.StatusOK, APIImportResponse{Imported: res.Imported, Skipped: res.Skipped, Message: msg})
}
