// Package curriculum serves lessons and their quizzes.
package curriculum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/halaqah-app/halaqah/internal/validation"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrNoQuestions    = errors.New("lesson has no quiz questions")
)

// Store persists lessons and questions.
type Store interface {
	// ListLessons returns lessons newest first.
	ListLessons(ctx context.Context) ([]Lesson, error)
	GetLesson(ctx context.Context, id int64) (*Lesson, error)
	Questions(ctx context.Context, lessonID int64) ([]QuizQuestion, error)
	// CreateLesson stores l and qs together, filling in the generated IDs.
	CreateLesson(ctx context.Context, l *Lesson, qs []QuizQuestion) error
	// SeedLessons stores every lesson in one step, and only when none exist yet.
	// It returns the number of lessons written; a failure writes nothing.
	SeedLessons(ctx context.Context, lessons []SeedLesson) (int, error)
}

// Raw HTML in lesson bodies is escaped since WithUnsafe is not set.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Catalogue is the lesson service.
type Catalogue struct {
	store Store
}

func NewCatalogue(store Store) *Catalogue {
	return &Catalogue{store: store}
}

// ListLessons returns every lesson, newest first.
func (c *Catalogue) ListLessons(ctx context.Context) ([]Lesson, error) {
	lessons, err := c.store.ListLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// GetLesson returns a lesson with its questions and rendered body.
func (c *Catalogue) GetLesson(ctx context.Context, id int64) (*LessonDetail, error) {
	l, err := c.store.GetLesson(ctx, id)
	if err != nil {
		return nil, err
	}
	qs, err := c.store.Questions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lesson questions: %w", err)
	}

	html, err := RenderContent(l.Content)
	if err != nil {
		return nil, err
	}
	return &LessonDetail{Lesson: *l, ContentHTML: html, Questions: qs}, nil
}

// CreateLesson stores a new lesson authored by creatorID.
// Callers are responsible for checking that the creator may teach.
func (c *Catalogue) CreateLesson(ctx context.Context, creatorID int64, in LessonInput) (*Lesson, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Topic = strings.TrimSpace(in.Topic)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	l := &Lesson{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		VideoURL:    in.VideoURL,
		Topic:       in.Topic,
		CreatedBy:   &creatorID,
	}
	qs := make([]QuizQuestion, 0, len(in.Questions))
	for _, q := range in.Questions {
		qs = append(qs, QuizQuestion{
			Question:      q.Question,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	if err := c.store.CreateLesson(ctx, l, qs); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	slog.Info("lesson created", "lesson_id", l.ID, "created_by", creatorID, "questions", len(qs))
	return l, nil
}

// Seed stores every lesson in cat when no lessons exist yet.
// It returns the number of lessons written. The catalogue is written whole or not at all.
func (c *Catalogue) Seed(ctx context.Context, cat *Catalog) (int, error) {
	lessons := make([]SeedLesson, 0, len(cat.Lessons))
	for _, cl := range cat.Lessons {
		lessons = append(lessons, SeedLesson{Lesson: cl.Lesson, Questions: cl.questions()})
	}

	n, err := c.store.SeedLessons(ctx, lessons)
	if err != nil {
		return 0, fmt.Errorf("seed lessons: %w", err)
	}
	if n == 0 {
		slog.Debug("lesson seed skipped, catalogue not empty")
		return 0, nil
	}
	slog.Info("lessons seeded", "count", n)
	return n, nil
}

// Grade scores answers (question ID to option label) against the lesson's questions.
// Unanswered questions count as wrong. The score is a rounded percentage.
func (c *Catalogue) Grade(ctx context.Context, lessonID int64, answers map[int64]string) (int, error) {
	if _, err := c.store.GetLesson(ctx, lessonID); err != nil {
		return 0, err
	}
	qs, err := c.store.Questions(ctx, lessonID)
	if err != nil {
		return 0, fmt.Errorf("lesson questions: %w", err)
	}
	return Grade(qs, answers)
}

// Grade scores answers against qs.
func Grade(qs []QuizQuestion, answers map[int64]string) (int, error) {
	if len(qs) == 0 {
		return 0, ErrNoQuestions
	}

	correct := 0
	for _, q := range qs {
		if strings.EqualFold(strings.TrimSpace(answers[q.ID]), q.CorrectAnswer) {
			correct++
		}
	}
	return int(math.Round(float64(correct) * 100 / float64(len(qs)))), nil
}

// RenderContent converts a markdown lesson body to HTML.
func RenderContent(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render lesson content: %w", err)
	}
	return buf.String(), nil
}
