package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halaqah-app/halaqah/internal/platform/database"
	"github.com/halaqah-app/halaqah/internal/role"
)

const dbTimeout = 5 * time.Second

const userColumns = `id, username, password_hash, role, student_code, teacher_id, created_at`

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed user store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role, student_code)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Username,
		string(u.PasswordHash),
		string(u.Role),
		nullIfEmpty(u.StudentCode),
	).Scan(&u.ID, &u.CreatedAt)
	switch {
	case database.IsViolation(err, database.CodeUniqueViolation, "users_username_key"):
		return ErrDuplicateUsername
	case database.IsViolation(err, database.CodeUniqueViolation, "users_student_code_key"):
		return ErrDuplicateStudentCode
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) LinkTeacher(ctx context.Context, studentCode string, teacherID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var studentID int64
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET teacher_id = $1
		 WHERE student_code = $2 AND role = 'student'
		 RETURNING id`,
		teacherID,
		studentCode,
	).Scan(&studentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrCodeNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("link teacher: %w", err)
	}
	return studentID, nil
}

func (s *PostgresStore) ListStudents(ctx context.Context, teacherID int64) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE teacher_id = $1 AND role = 'student'
		 ORDER BY username`,
		teacherID,
	)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u           User
		hash        string
		roleName    string
		studentCode *string
	)
	err := row.Scan(&u.ID, &u.Username, &hash, &roleName, &studentCode, &u.TeacherID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u.PasswordHash = []byte(hash)
	u.Role, err = role.Parse(roleName)
	if err != nil {
		return nil, err
	}
	if studentCode != nil {
		u.StudentCode = *studentCode
	}
	return &u, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}
