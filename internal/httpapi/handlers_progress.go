package httpapi

import (
	"errors"
	"net/http"

	"github.com/halaqah-app/halaqah/internal/auth"
	"github.com/halaqah-app/halaqah/internal/progress"
	"github.com/halaqah-app/halaqah/internal/validation"
)

type quranRequest struct {
	PageNumber int    `json:"page_number" validate:"required,min=1,max=604"`
	Action     string `json:"action" validate:"required"`
}

func (s *Server) handleTrackQuran(w http.ResponseWriter, r *http.Request) {
	var in quranRequest
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeValidation(w, r, err)
		return
	}
	action, err := progress.ParseAction(in.Action)
	if err != nil {
		writeValidation(w, r, validation.Field("action", "must be one of: read memorized"))
		return
	}

	p, _ := auth.FromContext(r.Context())
	err = s.ledger.RecordQuranActivity(r.Context(), p.UserID, in.PageNumber, action)
	if errors.Is(err, progress.ErrInvalidPage) {
		writeValidation(w, r, validation.Field("page_number", err.Error()))
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, msgQuranSaved)
}

func (s *Server) handleQuranPages(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	pages, err := s.ledger.QuranPages(r.Context(), p.UserID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

type quizScoreRequest struct {
	LessonID int64 `json:"lesson_id" validate:"required,gt=0"`
	Score    *int  `json:"score" validate:"required,min=0,max=100"`
}

func (s *Server) handleSaveQuiz(w http.ResponseWriter, r *http.Request) {
	var in quizScoreRequest
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeValidation(w, r, err)
		return
	}

	p, _ := auth.FromContext(r.Context())
	if s.recordScore(w, r, p.UserID, in.LessonID, *in.Score) {
		writeMessage(w, r, http.StatusOK, true, msgQuizSaved)
	}
}

// recordScore stores a quiz score. It writes the response only on failure.
func (s *Server) recordScore(w http.ResponseWriter, r *http.Request, studentID, lessonID int64, score int) bool {
	err := s.ledger.RecordQuizScore(r.Context(), studentID, lessonID, score)
	switch {
	case errors.Is(err, progress.ErrInvalidScore):
		writeValidation(w, r, validation.Field("score", err.Error()))
		return false
	case errors.Is(err, progress.ErrUnknownLesson):
		writeMessage(w, r, http.StatusNotFound, false, msgLessonNotFound)
		return false
	case err != nil:
		internalError(w, r, err)
		return false
	}
	return true
}

type lessonRef struct {
	LessonID int64 `json:"lesson_id" validate:"required,gt=0"`
}

func (s *Server) handleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	var in lessonRef
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeValidation(w, r, err)
		return
	}

	p, _ := auth.FromContext(r.Context())
	_, err := s.ledger.MarkLessonCompleted(r.Context(), p.UserID, in.LessonID)
	if errors.Is(err, progress.ErrUnknownLesson) {
		writeMessage(w, r, http.StatusNotFound, false, msgLessonNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, msgLessonCompleted)
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	sum, err := s.dashboard.Summarize(r.Context(), p.UserID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
