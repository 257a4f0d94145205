package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/halaqah-app/halaqah/internal/account"
	"github.com/halaqah-app/halaqah/internal/auth"
	"github.com/halaqah-app/halaqah/internal/role"
	"github.com/halaqah-app/halaqah/internal/validation"
)

type registerResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	UserID      int64     `json:"user_id"`
	Role        role.Role `json:"role"`
	StudentCode string    `json:"student_code,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}

	reg, err := s.accounts.Register(r.Context(), in)
	switch {
	case validation.IsValidation(err):
		writeValidation(w, r, err)
		return
	case errors.Is(err, account.ErrDuplicateUsername):
		writeMessage(w, r, http.StatusConflict, false, msgDuplicateUser)
		return
	case err != nil:
		internalError(w, r, err)
		return
	}

	msg := localize(r, msgRegistered)
	if reg.StudentCode != "" {
		msg = localize(r, msgRegisteredCode, reg.StudentCode)
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Success:     true,
		Message:     msg,
		UserID:      reg.UserID,
		Role:        reg.Role,
		StudentCode: reg.StudentCode,
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	Role      role.Role `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeValidation(w, r, err)
		return
	}

	u, err := s.accounts.Authenticate(r.Context(), in.Username, in.Password)
	if errors.Is(err, account.ErrInvalidCredentials) {
		writeMessage(w, r, http.StatusUnauthorized, false, msgBadCredentials)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}

	token, p, err := s.gate.Login(u.ID, u.Role)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if err := s.attendance.Record(r.Context(), u.ID, s.now()); err != nil {
		slog.Warn("record attendance failed", "user_id", u.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Token:     token,
		Role:      u.Role,
		ExpiresAt: p.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	if err := s.gate.Logout(r.Context(), p); err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, msgLoggedOut)
}

type connectRequest struct {
	StudentCode string `json:"student_code" validate:"required,max=64"`
}

func (s *Server) handleConnectToTeacher(w http.ResponseWriter, r *http.Request) {
	var in connectRequest
	if err := strictDecode(w, r, &in); err != nil {
		writeValidation(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeValidation(w, r, err)
		return
	}

	p, _ := auth.FromContext(r.Context())
	err := s.accounts.LinkStudentToTeacher(r.Context(), p.UserID, in.StudentCode)
	if errors.Is(err, account.ErrCodeNotFound) {
		writeMessage(w, r, http.StatusOK, false, msgStudentCodeWrong)
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeMessage(w, r, http.StatusOK, true, msgStudentLinked)
}
