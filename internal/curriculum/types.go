package curriculum

import "time"

// Answer labels a quiz option.
const (
	AnswerA = "a"
	AnswerB = "b"
	AnswerC = "c"
	AnswerD = "d"
)

// Lesson is a unit of teaching content.
type Lesson struct {
	ID          int64     `json:"id" yaml:"-"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Content     string    `json:"content" yaml:"content"`
	VideoURL    string    `json:"video_url,omitempty" yaml:"video_url"`
	Topic       string    `json:"topic" yaml:"topic"`
	CreatedBy   *int64    `json:"created_by,omitempty" yaml:"-"`
	CreatedAt   time.Time `json:"created_at" yaml:"-"`
}

// QuizQuestion is a four-option question attached to a lesson.
// CorrectAnswer is never serialised to clients.
type QuizQuestion struct {
	ID            int64  `json:"id" yaml:"-"`
	LessonID      int64  `json:"lesson_id" yaml:"-"`
	Question      string `json:"question" yaml:"question"`
	OptionA       string `json:"option_a" yaml:"option_a"`
	OptionB       string `json:"option_b" yaml:"option_b"`
	OptionC       string `json:"option_c" yaml:"option_c"`
	OptionD       string `json:"option_d" yaml:"option_d"`
	CorrectAnswer string `json:"-" yaml:"correct_answer"`
}

// LessonDetail is a lesson with its questions and rendered body.
type LessonDetail struct {
	Lesson
	ContentHTML string         `json:"content_html"`
	Questions   []QuizQuestion `json:"questions"`
}

// Catalog is a seed document: lessons plus their questions.
type Catalog struct {
	Lessons []CatalogLesson `yaml:"lessons"`
}

// CatalogLesson is one lesson in a Catalog. PlaceholderQuestions appends that
// many generated questions after the listed ones.
type CatalogLesson struct {
	Lesson               `yaml:",inline"`
	Questions            []QuizQuestion `yaml:"questions"`
	PlaceholderQuestions int            `yaml:"placeholder_questions"`
}

// LessonInput is what a teacher submits to create a lesson.
type LessonInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Content     string          `json:"content" validate:"max=100000"`
	VideoURL    string          `json:"video_url" validate:"omitempty,url"`
	Topic       string          `json:"topic" validate:"max=100"`
	Questions   []QuestionInput `json:"questions" validate:"max=200,dive"`
}

// QuestionInput is one question inside a LessonInput.
type QuestionInput struct {
	Question      string `json:"question" validate:"required,max=1000"`
	OptionA       string `json:"option_a" validate:"required,max=500"`
	OptionB       string `json:"option_b" validate:"required,max=500"`
	OptionC       string `json:"option_c" validate:"required,max=500"`
	OptionD       string `json:"option_d" validate:"required,max=500"`
	CorrectAnswer string `json:"correct_answer" validate:"required,oneof=a b c d"`
}

// SeedLesson is a lesson and its questions as written by a catalogue seed.
type SeedLesson struct {
	Lesson    Lesson
	Questions []QuizQuestion
}
