package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halaqah-app/halaqah/internal/platform/database"
)

const dbTimeout = 5 * time.Second

const lessonFKey = "student_progress_lesson_id_fkey"

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// UpsertQuranPage runs as one statement against the (student_id, page_number)
// unique key, so concurrent first reads of a page still produce a single row.
func (s *PostgresStore) UpsertQuranPage(ctx context.Context, studentID int64, page int, action Action, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	reads := 0
	if action == ActionRead {
		reads = 1
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO quran_progress (student_id, page_number, memorized, read_count, last_read)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, page_number) DO UPDATE SET
		   read_count = quran_progress.read_count + EXCLUDED.read_count,
		   memorized  = quran_progress.memorized OR EXCLUDED.memorized,
		   last_read  = CASE WHEN EXCLUDED.read_count > 0
		                     THEN EXCLUDED.last_read
		                     ELSE quran_progress.last_read END`,
		studentID,
		page,
		action == ActionMemorized,
		reads,
		at,
	)
	if err != nil {
		return fmt.Errorf("upsert quran page: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertLessonRecord(ctx context.Context, studentID, lessonID int64, score int, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO student_progress (student_id, lesson_id, quiz_score, completed_at)
		 VALUES ($1, $2, $3, $4)`,
		studentID, lessonID, score, at,
	)
	if database.IsViolation(err, database.CodeForeignKeyViolation, lessonFKey) {
		return ErrUnknownLesson
	}
	if err != nil {
		return fmt.Errorf("insert lesson record: %w", err)
	}
	return nil
}

// InsertLessonRecordIfAbsent locks the student's users row for the length of
// the check-and-insert, serialising concurrent completions for that student.
func (s *PostgresStore) InsertLessonRecordIfAbsent(ctx context.Context, studentID, lessonID int64, score int, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var inserted bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, studentID); err != nil {
			return fmt.Errorf("lock student: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO student_progress (student_id, lesson_id, quiz_score, completed_at)
			 SELECT $1, $2, $3, $4
			 WHERE NOT EXISTS (
			   SELECT 1 FROM student_progress WHERE student_id = $1 AND lesson_id = $2
			 )`,
			studentID, lessonID, score, at,
		)
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected() == 1
		return nil
	})
	if database.IsViolation(err, database.CodeForeignKeyViolation, lessonFKey) {
		return false, ErrUnknownLesson
	}
	if err != nil {
		return false, fmt.Errorf("insert lesson record if absent: %w", err)
	}
	return inserted, nil
}

func (s *PostgresStore) QuranPages(ctx context.Context, studentID int64) ([]QuranPage, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT student_id, page_number, memorized, read_count, last_read
		 FROM quran_progress
		 WHERE student_id = $1
		 ORDER BY page_number`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list quran pages: %w", err)
	}
	defer rows.Close()

	pages := []QuranPage{}
	for rows.Next() {
		var p QuranPage
		if err := rows.Scan(&p.StudentID, &p.PageNumber, &p.Memorized, &p.ReadCount, &p.LastRead); err != nil {
			return nil, fmt.Errorf("scan quran page: %w", err)
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quran pages: %w", err)
	}
	return pages, nil
}

func (s *PostgresStore) LessonRecords(ctx context.Context, studentID int64) ([]LessonRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, student_id, lesson_id, quiz_score, completed_at
		 FROM student_progress
		 WHERE student_id = $1
		 ORDER BY completed_at, id`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lesson records: %w", err)
	}
	defer rows.Close()

	records := []LessonRecord{}
	for rows.Next() {
		var r LessonRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.LessonID, &r.Score, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan lesson record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Stats(ctx context.Context, studentID int64) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM student_progress WHERE student_id = $1),
		   (SELECT COUNT(DISTINCT lesson_id) FROM student_progress WHERE student_id = $1),
		   (SELECT COUNT(quiz_score) FROM student_progress WHERE student_id = $1),
		   (SELECT COALESCE(AVG(quiz_score), 0)::float8 FROM student_progress WHERE student_id = $1),
		   (SELECT COUNT(*) FROM quran_progress WHERE student_id = $1 AND read_count > 0),
		   (SELECT COUNT(*) FROM quran_progress WHERE student_id = $1 AND memorized)`,
		studentID,
	).Scan(&st.LessonRows, &st.DistinctLessons, &st.ScoredRows, &st.ScoreAverage, &st.PagesRead, &st.PagesMemorized)
	if err != nil {
		return Stats{}, fmt.Errorf("query progress stats: %w", err)
	}
	return st, nil
}
