package services

import "time"

// Accepted grade values. The upstream clients submit school-style marks;
// anything outside this range is a client error.
const (
	GradeMin = 1
	GradeMax = 10
)

type GradeStore interface {
	GetSurvey(id int64) (*Survey, error)
	InsertGrade(g *Grade) (*Grade, error)
	ListGradesBySurvey(surveyID int64) ([]*Grade, error)
	GetGradeForSurvey(userID, surveyID int64) (*Grade, error)
}

type GradeService struct {
	store GradeStore
	now   func() time.Time
}

func NewGradeService(store GradeStore) *GradeService {
	return &GradeService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Add persists a grade attributed to the acting user. The user id always
// comes from the caller's identity claim and the timestamp from the server
// clock; neither is ever taken from the request body.
func (s *GradeService) Add(surveyID int64, value int, actorID int64) (*Grade, error) {
	if value < GradeMin || value > GradeMax {
		return nil, NewInvalidError("grade out of range")
	}
	sv, err := s.store.GetSurvey(surveyID)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, NewNotFoundError("no survey found")
	}
	return s.store.InsertGrade(&Grade{
		Grade:     value,
		SurveyID:  surveyID,
		UserID:    actorID,
		CreatedAt: s.now(),
	})
}

func (s *GradeService) BySurvey(surveyID int64) ([]*Grade, error) {
	return s.store.ListGradesBySurvey(surveyID)
}

// ForSurvey fetches one user's grade for one survey as a genuine two-field
// equality match.
func (s *GradeService) ForSurvey(userID, surveyID int64) (*Grade, error) {
	g, err := s.store.GetGradeForSurvey(userID, surveyID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, NewNotFoundError("no grade found")
	}
	return g, nil
}
