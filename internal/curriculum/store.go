package curriculum

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu        sync.RWMutex
	lessonSeq int64
	qSeq      int64
	lessons   map[int64]Lesson
	questions map[int64][]QuizQuestion
	now       func() time.Time
}

// NewMemoryStore creates a new in-memory lesson store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lessons:   make(map[int64]Lesson),
		questions: make(map[int64][]QuizQuestion),
		now:       time.Now,
	}
}

func (s *MemoryStore) ListLessons(_ context.Context) ([]Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lessons := make([]Lesson, 0, len(s.lessons))
	for _, l := range s.lessons {
		lessons = append(lessons, l)
	}
	sort.Slice(lessons, func(i, j int) bool {
		if !lessons[i].CreatedAt.Equal(lessons[j].CreatedAt) {
			return lessons[i].CreatedAt.After(lessons[j].CreatedAt)
		}
		return lessons[i].ID > lessons[j].ID
	})
	return lessons, nil
}

func (s *MemoryStore) GetLesson(_ context.Context, id int64) (*Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[id]
	if !ok {
		return nil, ErrLessonNotFound
	}
	return &l, nil
}

func (s *MemoryStore) Questions(_ context.Context, lessonID int64) ([]QuizQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]QuizQuestion{}, s.questions[lessonID]...), nil
}

func (s *MemoryStore) CreateLesson(_ context.Context, l *Lesson, qs []QuizQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createLocked(l, qs)
	return nil
}

func (s *MemoryStore) SeedLessons(_ context.Context, lessons []SeedLesson) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lessons) > 0 {
		return 0, nil
	}
	for _, sl := range lessons {
		l := sl.Lesson
		s.createLocked(&l, sl.Questions)
	}
	return len(lessons), nil
}

func (s *MemoryStore) createLocked(l *Lesson, qs []QuizQuestion) {
	s.lessonSeq++
	l.ID = s.lessonSeq
	l.CreatedAt = s.now()
	s.lessons[l.ID] = *l

	stored := make([]QuizQuestion, 0, len(qs))
	for _, q := range qs {
		s.qSeq++
		q.ID = s.qSeq
		q.LessonID = l.ID
		stored = append(stored, q)
	}
	s.questions[l.ID] = stored
}
