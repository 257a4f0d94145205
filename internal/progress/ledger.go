package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Ledger is the entry point for recording progress.
type Ledger struct {
	store Store
	now   func() time.Time
}

// NewLedger creates a Ledger over store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// RecordQuranActivity applies action to the student's page.
// A first read creates the row with count 1; a first memorize creates it with count 0.
func (l *Ledger) RecordQuranActivity(ctx context.Context, studentID int64, page int, action Action) error {
	if _, err := ParseAction(string(action)); err != nil {
		return err
	}
	if page < FirstPage || page > LastPage {
		return ErrInvalidPage
	}

	if err := l.store.UpsertQuranPage(ctx, studentID, page, action, l.now()); err != nil {
		return fmt.Errorf("record quran activity: %w", err)
	}
	slog.Debug("quran activity recorded", "student_id", studentID, "page", page, "action", action)
	return nil
}

// RecordQuizScore stores one quiz attempt. Attempts are never deduplicated.
func (l *Ledger) RecordQuizScore(ctx context.Context, studentID, lessonID int64, score int) error {
	if score < 0 || score > 100 {
		return ErrInvalidScore
	}

	err := l.store.InsertLessonRecord(ctx, studentID, lessonID, score, l.now())
	if errors.Is(err, ErrUnknownLesson) {
		return ErrUnknownLesson
	}
	if err != nil {
		return fmt.Errorf("record quiz score: %w", err)
	}
	slog.Info("quiz score recorded", "student_id", studentID, "lesson_id", lessonID, "score", score)
	return nil
}

// MarkLessonCompleted records a completion with score 100 unless the student
// already has any row for the lesson. It reports whether a row was written.
func (l *Ledger) MarkLessonCompleted(ctx context.Context, studentID, lessonID int64) (bool, error) {
	inserted, err := l.store.InsertLessonRecordIfAbsent(ctx, studentID, lessonID, CompletionScore, l.now())
	if errors.Is(err, ErrUnknownLesson) {
		return false, ErrUnknownLesson
	}
	if err != nil {
		return false, fmt.Errorf("mark lesson completed: %w", err)
	}
	if inserted {
		slog.Info("lesson completed", "student_id", studentID, "lesson_id", lessonID)
	}
	return inserted, nil
}

// QuranPages lists the student's page progress ordered by page.
func (l *Ledger) QuranPages(ctx context.Context, studentID int64) ([]QuranPage, error) {
	return l.store.QuranPages(ctx, studentID)
}

// LessonRecords lists the student's progress rows, oldest first.
func (l *Ledger) LessonRecords(ctx context.Context, studentID int64) ([]LessonRecord, error) {
	return l.store.LessonRecords(ctx, studentID)
}

// Stats returns the student's aggregates.
func (l *Ledger) Stats(ctx context.Context, studentID int64) (Stats, error) {
	st, err := l.store.Stats(ctx, studentID)
	if err != nil {
		return Stats{}, fmt.Errorf("progress stats: %w", err)
	}
	return st, nil
}
