package account

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/halaqah-app/halaqah/internal/role"
	"github.com/halaqah-app/halaqah/internal/validation"
)

const (
	studentCodeLength   = 8
	studentCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	studentCodeAttempts = 5
)

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Code     string `json:"special_code"`
}

// Registration is the result of a successful Register call.
// StudentCode is only returned here, once, for display to the new student.
type Registration struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Role        role.Role `json:"role"`
	StudentCode string    `json:"student_code,omitempty"`
}

// Directory registers, authenticates and links users.
type Directory struct {
	store    Store
	roles    *role.Resolver
	genCode  func() (string, error)
	hashCost int
	dummy    []byte
}

// Option configures a Directory.
type Option func(*Directory)

// WithCodeGenerator replaces the student code generator.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(d *Directory) { d.genCode = gen }
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(d *Directory) { d.hashCost = cost }
}

// NewDirectory creates a Directory over store using roles to resolve registration codes.
func NewDirectory(store Store, roles *role.Resolver, opts ...Option) *Directory {
	d := &Directory{
		store:    store,
		roles:    roles,
		genCode:  GenerateStudentCode,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(d)
	}
	// Compared against when the username is unknown so both failure paths cost one bcrypt check.
	d.dummy, _ = bcrypt.GenerateFromPassword([]byte("halaqah-dummy-password"), d.hashCost)
	return d
}

// Register creates a user. The role comes from in.Code; students also receive a student code.
func (d *Directory) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	in.Username = NormalizeUsername(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), d.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, validation.Field("password", "must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         d.roles.Resolve(in.Code),
	}

	for attempt := 1; ; attempt++ {
		if u.IsStudent() {
			if u.StudentCode, err = d.genCode(); err != nil {
				return nil, fmt.Errorf("generate student code: %w", err)
			}
		}

		err = d.store.Create(ctx, u)
		if errors.Is(err, ErrDuplicateStudentCode) && attempt < studentCodeAttempts {
			slog.Warn("student code collision, regenerating", "attempt", attempt)
			continue
		}
		break
	}
	if errors.Is(err, ErrDuplicateUsername) {
		return nil, ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	slog.Info("user registered", "user_id", u.ID, "role", u.Role)

	return &Registration{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		StudentCode: u.StudentCode,
	}, nil
}

// Authenticate returns the user when username exists and password matches.
// Any mismatch yields ErrInvalidCredentials; store failures are returned wrapped.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := d.store.GetByUsername(ctx, NormalizeUsername(username))
	if errors.Is(err, ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(d.dummy, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// LinkStudentToTeacher points the student holding studentCode at teacherID.
// Whether teacherID may teach is the caller's concern.
func (d *Directory) LinkStudentToTeacher(ctx context.Context, teacherID int64, studentCode string) error {
	code := NormalizeStudentCode(studentCode)
	if code == "" {
		return ErrCodeNotFound
	}

	studentID, err := d.store.LinkTeacher(ctx, code, teacherID)
	if errors.Is(err, ErrCodeNotFound) {
		slog.Warn("link by unknown student code", "teacher_id", teacherID)
		return ErrCodeNotFound
	}
	if err != nil {
		return fmt.Errorf("link student: %w", err)
	}

	slog.Info("student linked to teacher", "student_id", studentID, "teacher_id", teacherID)
	return nil
}

// Get returns the user with id.
func (d *Directory) Get(ctx context.Context, id int64) (*User, error) {
	return d.store.GetByID(ctx, id)
}

// StudentsOf returns the students linked to teacherID.
func (d *Directory) StudentsOf(ctx context.Context, teacherID int64) ([]User, error) {
	students, err := d.store.ListStudents(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("students of teacher: %w", err)
	}
	return students, nil
}

// NormalizeUsername trims whitespace and applies NFKC so visually identical
// Arabic and Latin usernames compare equal.
func NormalizeUsername(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}

// NormalizeStudentCode trims whitespace and upper-cases a code typed by a teacher.
func NormalizeStudentCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// GenerateStudentCode returns a random fixed-length upper-case alphanumeric code.
func GenerateStudentCode() (string, error) {
	max := big.NewInt(int64(len(studentCodeAlphabet)))
	b := make([]byte, studentCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = studentCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
