// Package account owns user identity, role and the teacher–student link.
package account

import (
	"context"
	"errors"
	"time"

	"github.com/halaqah-app/halaqah/internal/role"
)

var (
	// ErrDuplicateUsername is returned by Register when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrCodeNotFound is returned when no student holds the given student code.
	ErrCodeNotFound = errors.New("student code not found")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserNotFound is returned by lookups by id or username.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateStudentCode is returned by a Store when a generated code collides.
	ErrDuplicateStudentCode = errors.New("student code already exists")
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Role         role.Role `json:"role"`
	StudentCode  string    `json:"-"`                    // set iff Role is student
	TeacherID    *int64    `json:"teacher_id,omitempty"` // only ever set on students
	CreatedAt    time.Time `json:"created_at"`
}

// IsStudent reports whether the user holds the student role.
func (u *User) IsStudent() bool {
	return u.Role == role.Student
}

// Store persists users.
type Store interface {
	// Create inserts u and fills u.ID and u.CreatedAt.
	// It returns ErrDuplicateUsername or ErrDuplicateStudentCode on conflicts.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// LinkTeacher sets the teacher of the student holding code. Last write wins.
	// It returns ErrCodeNotFound when no student holds code.
	LinkTeacher(ctx context.Context, studentCode string, teacherID int64) (studentID int64, err error)
	// ListStudents returns the students linked to teacherID ordered by username.
	ListStudents(ctx context.Context, teacherID int64) ([]User, error)
}
