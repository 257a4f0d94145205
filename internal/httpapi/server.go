// Package httpapi exposes the JSON API over net/http.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/halaqah-app/halaqah/internal/account"
	"github.com/halaqah-app/halaqah/internal/attendance"
	"github.com/halaqah-app/halaqah/internal/auth"
	"github.com/halaqah-app/halaqah/internal/curriculum"
	"github.com/halaqah-app/halaqah/internal/dashboard"
	"github.com/halaqah-app/halaqah/internal/progress"
)

const readyTimeout = 2 * time.Second

// Check is a named dependency probe used by /readyz.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Deps are the services the API is built on.
type Deps struct {
	Accounts   *account.Directory
	Lessons    *curriculum.Catalogue
	Ledger     *progress.Ledger
	Dashboard  *dashboard.Aggregator
	Attendance attendance.Recorder
	Gate       *auth.Gate
	Checks     []Check
}

// Server holds the handlers of the API.
type Server struct {
	accounts   *account.Directory
	lessons    *curriculum.Catalogue
	ledger     *progress.Ledger
	dashboard  *dashboard.Aggregator
	attendance attendance.Recorder
	gate       *auth.Gate
	checks     []Check
	now        func() time.Time
}

func New(d Deps) *Server {
	return &Server{
		accounts:   d.Accounts,
		lessons:    d.Lessons,
		ledger:     d.Ledger,
		dashboard:  d.Dashboard,
		attendance: d.Attendance,
		gate:       d.Gate,
		checks:     d.Checks,
		now:        time.Now,
	}
}

// Deny is an auth.DenyFunc writing a localized {"error": ...} body.
func Deny(w http.ResponseWriter, r *http.Request, status int, err error) {
	writeDenied(w, r, status, err)
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.Handle("POST /api/logout", s.gate.Require(http.HandlerFunc(s.handleLogout)))

	mux.Handle("GET /api/lessons", s.gate.Require(http.HandlerFunc(s.handleListLessons)))
	mux.Handle("GET /api/lessons/{id}", s.gate.Require(http.HandlerFunc(s.handleGetLesson)))
	mux.Handle("POST /api/lessons", s.gate.RequireTeacher(http.HandlerFunc(s.handleCreateLesson)))
	mux.Handle("POST /api/lessons/{id}/quiz", s.gate.Require(http.HandlerFunc(s.handleSubmitQuiz)))

	mux.Handle("POST /api/track_quran_progress", s.gate.Require(http.HandlerFunc(s.handleTrackQuran)))
	mux.Handle("GET /api/quran_progress", s.gate.Require(http.HandlerFunc(s.handleQuranPages)))
	mux.Handle("POST /api/save_quiz_results", s.gate.Require(http.HandlerFunc(s.handleSaveQuiz)))
	mux.Handle("POST /api/mark_lesson_completed", s.gate.Require(http.HandlerFunc(s.handleMarkCompleted)))
	mux.Handle("GET /api/dashboard_stats", s.gate.Require(http.HandlerFunc(s.handleDashboardStats)))

	mux.Handle("POST /api/connect_to_teacher", s.gate.RequireTeacher(http.HandlerFunc(s.handleConnectToTeacher)))
	mux.Handle("GET /api/teacher/students", s.gate.RequireTeacher(http.HandlerFunc(s.handleTeacherStudents)))
	mux.Handle("GET /api/teacher/report.xlsx", s.gate.RequireTeacher(http.HandlerFunc(s.handleTeacherReport)))

	return logRequests(mux)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := []string{}
	for _, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.Name, "error", err)
			failed = append(failed, c.Name)
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelDebug
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
