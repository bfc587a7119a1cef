package db

import (
	"sync"

	"github.com/pkarolak/gradeboard/internal/services"
)

// MemStore is an in-memory Store with the same semantics as SQLiteStore.
// Router-level tests run against it instead of a database file.
type MemStore struct {
	mu           sync.Mutex
	users        map[int64]*services.User
	surveys      map[int64]*services.Survey
	grades       []*services.Grade
	nextUserID   int64
	nextSurveyID int64
	nextGradeID  int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:        map[int64]*services.User{},
		surveys:      map[int64]*services.Survey{},
		nextUserID:   1,
		nextSurveyID: 1,
		nextGradeID:  1,
	}
}

func (s *MemStore) FindUserByUsername(username string) (*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetUser(id int64) (*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *MemStore) ListUsers() ([]*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*services.User, 0, len(s.users))
	for id := int64(1); id < s.nextUserID; id++ {
		if u, ok := s.users[id]; ok {
			copy := *u
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *MemStore) InsertUser(u *services.User) (*services.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return nil, services.NewConflictError("user with the provided username already exists")
		}
	}
	copy := *u
	copy.ID = s.nextUserID
	s.nextUserID++
	s.users[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (s *MemStore) UpdateUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.ID != u.ID && existing.Username == u.Username {
			return services.NewConflictError("user with this username already exists")
		}
	}
	copy := *u
	s.users[u.ID] = &copy
	return nil
}

func (s *MemStore) DeleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *MemStore) CountAdmins() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.IsAdmin {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) InsertSurvey(sv *services.Survey) (*services.Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *sv
	copy.ID = s.nextSurveyID
	s.nextSurveyID++
	s.surveys[copy.ID] = &copy
	out := copy
	return &out, nil
}

func (s *MemStore) GetSurvey(id int64) (*services.Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sv, ok := s.surveys[id]; ok {
		copy := *sv
		return &copy, nil
	}
	return nil, nil
}

func (s *MemStore) ListSurveys() ([]*services.Survey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*services.Survey, 0, len(s.surveys))
	for id := int64(1); id < s.nextSurveyID; id++ {
		if sv, ok := s.surveys[id]; ok {
			copy := *sv
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *MemStore) InsertGrade(g *services.Grade) (*services.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *g
	copy.ID = s.nextGradeID
	s.nextGradeID++
	s.grades = append(s.grades, &copy)
	out := copy
	return &out, nil
}

func (s *MemStore) ListGradesBySurvey(surveyID int64) ([]*services.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*services.Grade
	for _, g := range s.grades {
		if g.SurveyID == surveyID {
			copy := *g
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (s *MemStore) GetGradeForSurvey(userID, surveyID int64) (*services.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.grades {
		if g.UserID == userID && g.SurveyID == surveyID {
			copy := *g
			return &copy, nil
		}
	}
	return nil, nil
}
