package progress_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqah-app/halaqah/internal/progress"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    progress.Action
		wantErr bool
	}{
		{"read", progress.ActionRead, false},
		{"memorized", progress.ActionMemorized, false},
		{"Read", "", true},
		{"", "", true},
		{"deleted", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := progress.ParseAction(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, progress.ErrInvalidAction)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedger_ReadThreeTimes(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	for range 3 {
		require.NoError(t, l.RecordQuranActivity(ctx, 1, 5, progress.ActionRead))
	}

	pages, err := l.QuranPages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 5, pages[0].PageNumber)
	assert.Equal(t, 3, pages[0].ReadCount)
	assert.False(t, pages[0].Memorized)
}

func TestLedger_MemorizedThenRead(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	require.NoError(t, l.RecordQuranActivity(ctx, 1, 10, progress.ActionMemorized))

	pages, err := l.QuranPages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.True(t, pages[0].Memorized)
	assert.Equal(t, 0, pages[0].ReadCount)

	require.NoError(t, l.RecordQuranActivity(ctx, 1, 10, progress.ActionRead))

	pages, err = l.QuranPages(ctx, 1)
	require.NoError(t, err)
	assert.True(t, pages[0].Memorized)
	assert.Equal(t, 1, pages[0].ReadCount)
}

func TestLedger_RecordQuranActivity_Invalid(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	tests := []struct {
		name   string
		page   int
		action progress.Action
		want   error
	}{
		{"unknown action", 1, progress.Action("skimmed"), progress.ErrInvalidAction},
		{"page zero", 0, progress.ActionRead, progress.ErrInvalidPage},
		{"page past end", progress.LastPage + 1, progress.ActionRead, progress.ErrInvalidPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.RecordQuranActivity(ctx, 1, tt.page, tt.action)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	pages, err := l.QuranPages(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestLedger_QuizAttemptsAccumulate(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	require.NoError(t, l.RecordQuizScore(ctx, 1, 7, 60))
	require.NoError(t, l.RecordQuizScore(ctx, 1, 7, 80))

	records, err := l.LessonRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 60, *records[0].Score)
	assert.Equal(t, 80, *records[1].Score)
}

func TestLedger_RecordQuizScore_OutOfRange(t *testing.T) {
	l := progress.NewLedger(progress.NewMemoryStore())

	for _, score := range []int{-1, 101} {
		err := l.RecordQuizScore(context.Background(), 1, 7, score)
		assert.ErrorIs(t, err, progress.ErrInvalidScore)
	}
}

func TestLedger_MarkLessonCompletedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	inserted, err := l.MarkLessonCompleted(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = l.MarkLessonCompleted(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, inserted)

	records, err := l.LessonRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, progress.CompletionScore, *records[0].Score)
}

func TestLedger_MarkLessonCompletedAfterQuiz(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	require.NoError(t, l.RecordQuizScore(ctx, 1, 3, 40))

	inserted, err := l.MarkLessonCompleted(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, inserted)

	records, err := l.LessonRecords(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 40, *records[0].Score)
}

func TestLedger_ConcurrentCompletion(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.MarkLessonCompleted(ctx, 1, 9)
		}()
	}
	wg.Wait()

	records, err := l.LessonRecords(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLedger_Stats(t *testing.T) {
	ctx := context.Background()
	l := progress.NewLedger(progress.NewMemoryStore())

	require.NoError(t, l.RecordQuizScore(ctx, 1, 1, 80))
	require.NoError(t, l.RecordQuizScore(ctx, 1, 1, 100))
	_, err := l.MarkLessonCompleted(ctx, 1, 2)
	require.NoError(t, err)
	require.NoError(t, l.RecordQuranActivity(ctx, 1, 1, progress.ActionRead))
	require.NoError(t, l.RecordQuranActivity(ctx, 1, 2, progress.ActionMemorized))
	// Another student's rows must not leak in.
	require.NoError(t, l.RecordQuizScore(ctx, 2, 1, 0))

	st, err := l.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, st.LessonRows)
	assert.Equal(t, 2, st.DistinctLessons)
	assert.Equal(t, 3, st.ScoredRows)
	assert.InDelta(t, 93.33, st.ScoreAverage, 0.01)
	assert.Equal(t, 1, st.PagesRead)
	assert.Equal(t, 1, st.PagesMemorized)
}

func TestLedger_StatsEmpty(t *testing.T) {
	l := progress.NewLedger(progress.NewMemoryStore())

	st, err := l.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, progress.Stats{}, st)
}

type failingStore struct {
	progress.Store
	err error
}

func (f failingStore) InsertLessonRecord(context.Context, int64, int64, int, time.Time) error {
	return f.err
}

func TestLedger_UnknownLessonPassesThrough(t *testing.T) {
	l := progress.NewLedger(failingStore{err: progress.ErrUnknownLesson})

	err := l.RecordQuizScore(context.Background(), 1, 99, 50)
	assert.ErrorIs(t, err, progress.ErrUnknownLesson)

	l = progress.NewLedger(failingStore{err: errors.New("boom")})
	err = l.RecordQuizScore(context.Background(), 1, 99, 50)
	require.Error(t, err)
	assert.NotErrorIs(t, err, progress.ErrUnknownLesson)
}
