package httpapi

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/halaqah-app/halaqah/internal/auth"
	"github.com/halaqah-app/halaqah/internal/dashboard"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) classSummaries(r *http.Request) ([]dashboard.StudentSummary, error) {
	p, _ := auth.FromContext(r.Context())
	students, err := s.accounts.StudentsOf(r.Context(), p.UserID)
	if err != nil {
		return nil, err
	}
	return s.dashboard.Class(r.Context(), students)
}

func (s *Server) handleTeacherStudents(w http.ResponseWriter, r *http.Request) {
	rows, err := s.classSummaries(r)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": rows})
}

func (s *Server) handleTeacherReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.classSummaries(r)
	if err != nil {
		internalError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := dashboard.WriteReport(&buf, rows); err != nil {
		internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="students.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
