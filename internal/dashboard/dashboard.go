// Package dashboard derives per-student summaries from recorded progress.
package dashboard

import (
	"context"
	"fmt"
	"math"

	"github.com/halaqah-app/halaqah/internal/account"
	"github.com/halaqah-app/halaqah/internal/progress"
)

// ProgressSource supplies the raw progress aggregates for a student.
type ProgressSource interface {
	Stats(ctx context.Context, studentID int64) (progress.Stats, error)
}

// AttendanceSource supplies the number of days a user attended.
type AttendanceSource interface {
	Days(ctx context.Context, userID int64) (int, error)
}

// Summary is what a student sees on the dashboard.
// LessonsCompleted counts every progress row, quiz attempts included.
type Summary struct {
	LessonsCompleted int     `json:"lessons_completed"`
	DistinctLessons  int     `json:"distinct_lessons"`
	QuranPagesRead   int     `json:"quran_pages_read"`
	QuranPagesMemo   int     `json:"quran_pages_memorized"`
	QuizAverage      float64 `json:"quiz_average"`
	AttendanceDays   int     `json:"attendance_days"`
}

// StudentSummary is a Summary labelled with the student it belongs to.
type StudentSummary struct {
	StudentID int64  `json:"student_id"`
	Username  string `json:"username"`
	Summary
}

// Aggregator merges ledger aggregates with attendance.
type Aggregator struct {
	progress   ProgressSource
	attendance AttendanceSource
}

func NewAggregator(progress ProgressSource, attendance AttendanceSource) *Aggregator {
	return &Aggregator{progress: progress, attendance: attendance}
}

// Summarize builds the dashboard summary for one student.
func (a *Aggregator) Summarize(ctx context.Context, studentID int64) (Summary, error) {
	st, err := a.progress.Stats(ctx, studentID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	days, err := a.attendance.Days(ctx, studentID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize attendance: %w", err)
	}

	return Summary{
		LessonsCompleted: st.LessonRows,
		DistinctLessons:  st.DistinctLessons,
		QuranPagesRead:   st.PagesRead,
		QuranPagesMemo:   st.PagesMemorized,
		QuizAverage:      roundTenth(st.ScoreAverage),
		AttendanceDays:   days,
	}, nil
}

// Class summarizes each of the given students in order.
func (a *Aggregator) Class(ctx context.Context, students []account.User) ([]StudentSummary, error) {
	out := make([]StudentSummary, 0, len(students))
	for _, s := range students {
		sum, err := a.Summarize(ctx, s.ID)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", s.ID, err)
		}
		out = append(out, StudentSummary{StudentID: s.ID, Username: s.Username, Summary: sum})
	}
	return out, nil
}

// roundTenth rounds to one decimal place, halves to even.
func roundTenth(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
