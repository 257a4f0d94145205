package curriculum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout   = 5 * time.Second
	seedTimeout = 30 * time.Second
)

const lessonColumns = `id, title, description, content, video_url, topic, created_by, created_at`

var questionColumns = []string{
	"lesson_id", "question", "option_a", "option_b", "option_c", "option_d", "correct_answer",
}

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed lesson store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ListLessons(ctx context.Context) ([]Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+lessonColumns+` FROM lessons ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := []Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return lessons, nil
}

func (s *PostgresStore) GetLesson(ctx context.Context, id int64) (*Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	l, err := scanLesson(s.pool.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLessonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Questions(ctx context.Context, lessonID int64) ([]QuizQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, lesson_id, question, option_a, option_b, option_c, option_d, correct_answer
		 FROM quiz_questions
		 WHERE lesson_id = $1
		 ORDER BY id`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	qs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[QuizQuestion])
	if err != nil {
		return nil, fmt.Errorf("collect questions: %w", err)
	}
	return qs, nil
}

// CreateLesson inserts the lesson and bulk-copies its questions in one transaction.
func (s *PostgresStore) CreateLesson(ctx context.Context, l *Lesson, qs []QuizQuestion) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return insertLesson(ctx, tx, l, qs)
	})
}

// SeedLessons writes the whole catalogue in one transaction. The table lock
// serializes concurrent seeders so only the first one finds lessons empty.
func (s *PostgresStore) SeedLessons(ctx context.Context, lessons []SeedLesson) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, seedTimeout)
	defer cancel()

	var n int
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE lessons IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock lessons: %w", err)
		}

		var existing int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&existing); err != nil {
			return fmt.Errorf("count lessons: %w", err)
		}
		if existing > 0 {
			return nil
		}

		for _, sl := range lessons {
			l := sl.Lesson
			if err := insertLesson(ctx, tx, &l, sl.Questions); err != nil {
				return fmt.Errorf("lesson %q: %w", l.Title, err)
			}
		}
		n = len(lessons)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func insertLesson(ctx context.Context, tx pgx.Tx, l *Lesson, qs []QuizQuestion) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO lessons (title, description, content, video_url, topic, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		l.Title, l.Description, l.Content, l.VideoURL, l.Topic, l.CreatedBy,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	if len(qs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(qs))
	for _, q := range qs {
		rows = append(rows, []any{l.ID, q.Question, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectAnswer})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"quiz_questions"}, questionColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy questions: %w", err)
	}
	return nil
}

func scanLesson(row pgx.Row) (*Lesson, error) {
	var l Lesson
	err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Content, &l.VideoURL, &l.Topic, &l.CreatedBy, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
