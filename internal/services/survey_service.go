package services

import (
	"strings"
	"time"
)

type SurveyStore interface {
	InsertSurvey(sv *Survey) (*Survey, error)
	GetSurvey(id int64) (*Survey, error)
	ListSurveys() ([]*Survey, error)
}

type SurveyService struct {
	store SurveyStore
	now   func() time.Time
}

func NewSurveyService(store SurveyStore) *SurveyService {
	return &SurveyService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *SurveyService) Create(in *Survey) (*Survey, error) {
	if in == nil || strings.TrimSpace(in.Title) == "" {
		return nil, NewInvalidError("title required")
	}
	if in.StartAt.IsZero() || in.FinishesAt.IsZero() {
		return nil, NewInvalidError("start_at/finishes_at required")
	}
	if in.StartAt.After(in.FinishesAt) {
		return nil, NewInvalidError("start_at must not be after finishes_at")
	}
	return s.store.InsertSurvey(in)
}

func (s *SurveyService) Get(id int64) (*Survey, error) {
	sv, err := s.store.GetSurvey(id)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("no survey found")
	}
	return sv, nil
}

func (s *SurveyService) List() ([]*Survey, error) {
	return s.store.ListSurveys()
}

// ListCurrent returns the surveys whose window contains the current
// instant, both bounds inclusive. Filtering the full list is fine at the
// survey counts this system sees; an indexed range query is the upgrade
// path if that ever changes.
func (s *SurveyService) ListCurrent() ([]*Survey, error) {
	all, err := s.store.ListSurveys()
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*Survey, 0, len(all))
	for _, sv := range all {
		if !now.Before(sv.StartAt) && !now.After(sv.FinishesAt) {
			out = append(out, sv)
		}
	}
	return out, nil
}
