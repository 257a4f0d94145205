package account

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]*User
	byUsername map[string]int64
	byCode     map[string]int64
}

// NewMemoryStore creates a new in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[int64]*User),
		byUsername: make(map[string]int64),
		byCode:     make(map[string]int64),
	}
}

func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[u.Username]; ok {
		return ErrDuplicateUsername
	}
	if u.StudentCode != "" {
		if _, ok := s.byCode[u.StudentCode]; ok {
			return ErrDuplicateStudentCode
		}
	}

	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()

	stored := *u
	s.users[u.ID] = &stored
	s.byUsername[u.Username] = u.ID
	if u.StudentCode != "" {
		s.byCode[u.StudentCode] = u.ID
	}
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(s.users[id]), nil
}

func (s *MemoryStore) LinkTeacher(_ context.Context, studentCode string, teacherID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCode[studentCode]
	if !ok {
		return 0, ErrCodeNotFound
	}
	u := s.users[id]
	if !u.IsStudent() {
		return 0, ErrCodeNotFound
	}
	tid := teacherID
	u.TeacherID = &tid
	return id, nil
}

func (s *MemoryStore) ListStudents(_ context.Context, teacherID int64) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := []User{}
	for _, u := range s.users {
		if u.IsStudent() && u.TeacherID != nil && *u.TeacherID == teacherID {
			students = append(students, *copyUser(u))
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Username < students[j].Username })
	return students, nil
}

func copyUser(u *User) *User {
	c := *u
	if u.TeacherID != nil {
		tid := *u.TeacherID
		c.TeacherID = &tid
	}
	return &c
}
