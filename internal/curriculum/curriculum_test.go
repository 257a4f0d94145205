package curriculum_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqah-app/halaqah/internal/curriculum"
	"github.com/halaqah-app/halaqah/internal/validation"
)

func TestCatalogue_SeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	c := curriculum.NewCatalogue(curriculum.NewMemoryStore())

	cat, err := curriculum.LoadCatalog("")
	require.NoError(t, err)

	n, err := c.Seed(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = c.Seed(ctx, cat)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	lessons, err := c.ListLessons(ctx)
	require.NoError(t, err)
	require.Len(t, lessons, 5)
	// Newest first: the last seeded lesson leads.
	assert.Equal(t, "التفسير", lessons[0].Title)

	for _, l := range lessons {
		detail, err := c.GetLesson(ctx, l.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Questions, 50, l.Title)
	}
}

func TestCatalogue_SeedConcurrent(t *testing.T) {
	ctx := context.Background()
	c := curriculum.NewCatalogue(curriculum.NewMemoryStore())

	cat, err := curriculum.LoadCatalog("")
	require.NoError(t, err)

	var wg sync.WaitGroup
	written := make([]int, 4)
	for i := range written {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.Seed(ctx, cat)
			assert.NoError(t, err)
			written[i] = n
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range written {
		total += n
	}
	assert.Equal(t, 5, total)

	lessons, err := c.ListLessons(ctx)
	require.NoError(t, err)
	assert.Len(t, lessons, 5)
}

func TestCatalogue_GetLesson_NotFound(t *testing.T) {
	c := curriculum.NewCatalogue(curriculum.NewMemoryStore())

	_, err := c.GetLesson(context.Background(), 99)
	assert.ErrorIs(t, err, curriculum.ErrLessonNotFound)
}

func TestCatalogue_CreateLesson(t *testing.T) {
	ctx := context.Background()
	c := curriculum.NewCatalogue(curriculum.NewMemoryStore())

	l, err := c.CreateLesson(ctx, 7, curriculum.LessonInput{
		Title:   "  آداب طالب العلم ",
		Content: "**الإخلاص** أولاً",
		Topic:   "آداب",
		Questions: []curriculum.QuestionInput{
			{Question: "q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "b"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "آداب طالب العلم", l.Title)
	require.NotNil(t, l.CreatedBy)
	assert.Equal(t, int64(7), *l.CreatedBy)

	detail, err := c.GetLesson(ctx, l.ID)
	require.NoError(t, err)
	assert.Contains(t, detail.ContentHTML, "<strong>الإخلاص</strong>")
	require.Len(t, detail.Questions, 1)
	assert.Equal(t, l.ID, detail.Questions[0].LessonID)
}

func TestCatalogue_CreateLesson_Validation(t *testing.T) {
	c := curriculum.NewCatalogue(curriculum.NewMemoryStore())

	_, err := c.CreateLesson(context.Background(), 1, curriculum.LessonInput{
		Title:    " ",
		VideoURL: "not a url",
		Questions: []curriculum.QuestionInput{
			{Question: "q", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "z"},
		},
	})
	require.Error(t, err)

	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "video_url")
	assert.Contains(t, ve.Fields, "correct_answer")
}

func TestQuizQuestion_HidesAnswerKey(t *testing.T) {
	data, err := json.Marshal(curriculum.QuizQuestion{ID: 1, Question: "q", CorrectAnswer: "c"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correct_answer")
}

func TestGrade(t *testing.T) {
	qs := []curriculum.QuizQuestion{
		{ID: 1, CorrectAnswer: "a"},
		{ID: 2, CorrectAnswer: "b"},
		{ID: 3, CorrectAnswer: "c"},
	}

	tests := []struct {
		name    string
		answers map[int64]string
		want    int
	}{
		{"all correct", map[int64]string{1: "a", 2: "b", 3: "c"}, 100},
		{"two of three", map[int64]string{1: "a", 2: "b", 3: "d"}, 67},
		{"one of three", map[int64]string{1: "a"}, 33},
		{"none", map[int64]string{}, 0},
		{"case and space", map[int64]string{1: " A ", 2: "B", 3: "c"}, 100},
		{"unknown question ignored", map[int64]string{1: "a", 2: "b", 3: "c", 99: "a"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := curriculum.Grade(qs, tt.answers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrade_NoQuestions(t *testing.T) {
	_, err := curriculum.Grade(nil, map[int64]string{1: "a"})
	assert.ErrorIs(t, err, curriculum.ErrNoQuestions)
}

func TestCatalogue_Grade(t *testing.T) {
	ctx := context.Background()
	c := curriculum.NewCatalogue(curriculum.NewMemoryStore())

	_, err := c.Grade(ctx, 1, nil)
	assert.ErrorIs(t, err, curriculum.ErrLessonNotFound)

	l, err := c.CreateLesson(ctx, 1, curriculum.LessonInput{
		Title: "t",
		Questions: []curriculum.QuestionInput{
			{Question: "q1", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "a"},
			{Question: "q2", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "d"},
		},
	})
	require.NoError(t, err)

	detail, err := c.GetLesson(ctx, l.ID)
	require.NoError(t, err)

	score, err := c.Grade(ctx, l.ID, map[int64]string{detail.Questions[0].ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 50, score)
}

func TestRenderContent_EscapesRawHTML(t *testing.T) {
	html, err := curriculum.RenderContent("# عنوان\n\n<script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>عنوان</h1>")
	assert.False(t, strings.Contains(html, "<script>"), "raw html should not be rendered: %s", html)
}
