package progress

import (
	"context"
	"sort"
	"sync"
	"time"
)

type pageKey struct {
	studentID int64
	page      int
}

// MemoryStore is an in-memory implementation of Store.
// A single mutex serialises every write, so check-then-act sequences are safe.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	pages   map[pageKey]*QuranPage
	records []LessonRecord
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pages: make(map[pageKey]*QuranPage),
	}
}

func (s *MemoryStore) UpsertQuranPage(_ context.Context, studentID int64, page int, action Action, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pageKey{studentID, page}
	p, ok := s.pages[key]
	if !ok {
		p = &QuranPage{StudentID: studentID, PageNumber: page, LastRead: at}
		s.pages[key] = p
		switch action {
		case ActionRead:
			p.ReadCount = 1
		case ActionMemorized:
			p.Memorized = true
		}
		return nil
	}

	switch action {
	case ActionRead:
		p.ReadCount++
		p.LastRead = at
	case ActionMemorized:
		p.Memorized = true
	}
	return nil
}

func (s *MemoryStore) InsertLessonRecord(_ context.Context, studentID, lessonID int64, score int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertLocked(studentID, lessonID, score, at)
	return nil
}

func (s *MemoryStore) InsertLessonRecordIfAbsent(_ context.Context, studentID, lessonID int64, score int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.StudentID == studentID && r.LessonID == lessonID {
			return false, nil
		}
	}
	s.insertLocked(studentID, lessonID, score, at)
	return true, nil
}

func (s *MemoryStore) insertLocked(studentID, lessonID int64, score int, at time.Time) {
	s.nextID++
	sc := score
	s.records = append(s.records, LessonRecord{
		ID:          s.nextID,
		StudentID:   studentID,
		LessonID:    lessonID,
		Score:       &sc,
		CompletedAt: at,
	})
}

func (s *MemoryStore) QuranPages(_ context.Context, studentID int64) ([]QuranPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages := []QuranPage{}
	for key, p := range s.pages {
		if key.studentID == studentID {
			pages = append(pages, *p)
		}
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func (s *MemoryStore) LessonRecords(_ context.Context, studentID int64) ([]LessonRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []LessonRecord{}
	for _, r := range s.records {
		if r.StudentID == studentID {
			records = append(records, r)
		}
	}
	return records, nil
}

func (s *MemoryStore) Stats(_ context.Context, studentID int64) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	lessons := map[int64]bool{}
	sum := 0
	for _, r := range s.records {
		if r.StudentID != studentID {
			continue
		}
		st.LessonRows++
		lessons[r.LessonID] = true
		if r.Score != nil {
			st.ScoredRows++
			sum += *r.Score
		}
	}
	st.DistinctLessons = len(lessons)
	if st.ScoredRows > 0 {
		st.ScoreAverage = float64(sum) / float64(st.ScoredRows)
	}

	for key, p := range s.pages {
		if key.studentID != studentID {
			continue
		}
		if p.ReadCount > 0 {
			st.PagesRead++
		}
		if p.Memorized {
			st.PagesMemorized++
		}
	}
	return st, nil
}
