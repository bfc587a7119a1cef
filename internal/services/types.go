package services

import "time"

// User is an identity record. The password hash is never serialized.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash []byte `json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsAdmin      bool   `json:"is_admin"`
}

// Survey is a timed questionnaire. Grades may only be meaningfully
// submitted while now lies inside [StartAt, FinishesAt].
type Survey struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	StartAt    time.Time `json:"start_at"`
	FinishesAt time.Time `json:"finishes_at"`
}

// Grade is one user's numeric submission against one survey. UserID is
// always the authenticated caller, CreatedAt is always the server clock.
type Grade struct {
	ID        int64     `json:"id"`
	Grade     int       `json:"grade"`
	SurveyID  int64     `json:"survey_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
