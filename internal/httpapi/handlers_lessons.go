package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/halaqah-app/halaqah/internal/auth"
	"github.com/halaqah-app/halaqah/internal/curriculum"
	"github.com/halaqah-app/halaqah/internal/validation"
)

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := s.lessons.ListLessons(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lessons": lessons})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonID(w, r)
	if !ok {
		return
	}

	detail, err := s.lessons.GetLesson(r.Context(), id)
	if errors.Is(err, curriculum.ErrLessonNotFound) {
		writeMessage(w, r, http.StatusNotFound, false, msgLessonNotFound)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var in curriculum.LessonInput
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}

	p, _ := auth.FromContext(r.Context())
	l, err := s.lessons.CreateLesson(r.Context(), p.UserID, in)
	if validation.IsValidation(err) {
		writeValidation(w, r, err)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": localize(r, msgLessonCreated),
		"lesson":  l,
	})
}

type quizSubmission struct {
	Answers map[int64]string `json:"answers" validate:"required"`
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonID(w, r)
	if !ok {
		return
	}
	var in quizSubmission
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeValidation(w, r, err)
		return
	}

	score, err := s.lessons.Grade(r.Context(), id, in.Answers)
	switch {
	case errors.Is(err, curriculum.ErrLessonNotFound):
		writeMessage(w, r, http.StatusNotFound, false, msgLessonNotFound)
		return
	case errors.Is(err, curriculum.ErrNoQuestions):
		writeMessage(w, r, http.StatusBadRequest, false, msgNoQuestions)
		return
	case err != nil:
		internalError(w, r, err)
		return
	}

	p, _ := auth.FromContext(r.Context())
	if !s.recordScore(w, r, p.UserID, id, score) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": localize(r, msgQuizSaved),
		"score":   score,
	})
}

func lessonID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeValidation(w, r, validation.Field("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}
