// Package progress records per-student lesson and Quran progress.
//
// Quiz scores accumulate one row per attempt. Manual lesson completion is
// idempotent per (student, lesson). Quran pages are upserted per
// (student, page): reads count up, memorisation is sticky.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Quran page bounds (Madani mushaf).
const (
	FirstPage = 1
	LastPage  = 604
)

// CompletionScore is stored when a lesson is marked completed without a quiz.
const CompletionScore = 100

var (
	ErrInvalidAction = errors.New("invalid quran action")
	ErrInvalidScore  = errors.New("score must be between 0 and 100")
	ErrInvalidPage   = fmt.Errorf("page number must be between %d and %d", FirstPage, LastPage)
	ErrUnknownLesson = errors.New("lesson does not exist")
)

// Action is something a student did with a Quran page.
type Action string

const (
	ActionRead      Action = "read"
	ActionMemorized Action = "memorized"
)

// ParseAction converts s into an Action, rejecting anything else.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionRead, ActionMemorized:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// QuranPage is the progress of one student on one page.
type QuranPage struct {
	StudentID  int64     `json:"student_id"`
	PageNumber int       `json:"page_number"`
	Memorized  bool      `json:"memorized"`
	ReadCount  int       `json:"read_count"`
	LastRead   time.Time `json:"last_read"`
}

// LessonRecord is one progress row: a quiz attempt or a manual completion.
type LessonRecord struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	LessonID    int64     `json:"lesson_id"`
	Score       *int      `json:"score,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// Stats are the raw aggregates the dashboard is built from.
type Stats struct {
	LessonRows      int     // every progress row, quiz attempts included
	DistinctLessons int     // lessons with at least one row
	PagesRead       int     // pages with read count > 0
	PagesMemorized  int     // pages flagged memorized
	ScoredRows      int     // rows with a non-null score
	ScoreAverage    float64 // mean of non-null scores, 0 when none
}

// Store persists progress.
type Store interface {
	// UpsertQuranPage applies action to (studentID, page) atomically.
	UpsertQuranPage(ctx context.Context, studentID int64, page int, action Action, at time.Time) error
	// InsertLessonRecord always inserts a row.
	InsertLessonRecord(ctx context.Context, studentID, lessonID int64, score int, at time.Time) error
	// InsertLessonRecordIfAbsent inserts a row only when the pair has none.
	InsertLessonRecordIfAbsent(ctx context.Context, studentID, lessonID int64, score int, at time.Time) (bool, error)
	QuranPages(ctx context.Context, studentID int64) ([]QuranPage, error)
	LessonRecords(ctx context.Context, studentID int64) ([]LessonRecord, error)
	Stats(ctx context.Context, studentID int64) (Stats, error)
}
