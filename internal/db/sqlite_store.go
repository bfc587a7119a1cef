package db

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/pkarolak/gradeboard/internal/services"
)

// SQLiteStore backs every service store interface with one SQLite database.
// Each mutating call is its own transaction; nothing is cached across
// requests.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

const userCols = "id, username, password_hash, first_name, last_name, is_admin"

func scanUser(row interface{ Scan(...any) error }) (*services.User, error) {
	var u services.User
	var admin int64
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &admin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsAdmin = admin != 0
	return &u, nil
}

func (s *SQLiteStore) FindUserByUsername(username string) (*services.User, error) {
	row := s.db.QueryRow("SELECT "+userCols+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

func (s *SQLiteStore) GetUser(id int64) (*services.User, error) {
	row := s.db.QueryRow("SELECT "+userCols+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *SQLiteStore) ListUsers() ([]*services.User, error) {
	rows, err := s.db.Query("SELECT " + userCols + " FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []*services.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertUser(u *services.User) (*services.User, error) {
	res, err := s.db.Exec(
		"INSERT INTO users (username, password_hash, first_name, last_name, is_admin) VALUES (?, ?, ?, ?, ?)",
		u.Username, u.PasswordHash, u.FirstName, u.LastName, boolToInt64(u.IsAdmin),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, services.NewConflictError("user with the provided username already exists")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user id: %w", err)
	}
	out := *u
	out.ID = id
	return &out, nil
}

// UpdateUser writes all editable fields in one transaction so a constraint
// failure never leaves a partial update behind.
func (s *SQLiteStore) UpdateUser(u *services.User) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin update user: %w", err)
	}
	_, err = tx.Exec(
		"UPDATE users SET username = ?, password_hash = ?, first_name = ?, last_name = ?, is_admin = ? WHERE id = ?",
		u.Username, u.PasswordHash, u.FirstName, u.LastName, boolToInt64(u.IsAdmin), u.ID,
	)
	if err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return services.NewConflictError("user with this username already exists")
		}
		return fmt.Errorf("update user: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteUser(id int64) error {
	if _, err := s.db.Exec("DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountAdmins() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE is_admin = 1").Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) InsertSurvey(sv *services.Survey) (*services.Survey, error) {
	res, err := s.db.Exec(
		"INSERT INTO surveys (title, body, start_at, finishes_at) VALUES (?, ?, ?, ?)",
		sv.Title, sv.Body, sv.StartAt, sv.FinishesAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert survey: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert survey id: %w", err)
	}
	out := *sv
	out.ID = id
	return &out, nil
}

func (s *SQLiteStore) GetSurvey(id int64) (*services.Survey, error) {
	var sv services.Survey
	err := s.db.QueryRow(
		"SELECT id, title, body, start_at, finishes_at FROM surveys WHERE id = ?", id,
	).Scan(&sv.ID, &sv.Title, &sv.Body, &sv.StartAt, &sv.FinishesAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return &sv, nil
}

func (s *SQLiteStore) ListSurveys() ([]*services.Survey, error) {
	rows, err := s.db.Query("SELECT id, title, body, start_at, finishes_at FROM surveys ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()
	var out []*services.Survey
	for rows.Next() {
		var sv services.Survey
		if err := rows.Scan(&sv.ID, &sv.Title, &sv.Body, &sv.StartAt, &sv.FinishesAt); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, &sv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertGrade(g *services.Grade) (*services.Grade, error) {
	res, err := s.db.Exec(
		"INSERT INTO grades (grade, survey_id, user_id, created_at) VALUES (?, ?, ?, ?)",
		g.Grade, g.SurveyID, g.UserID, g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert grade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert grade id: %w", err)
	}
	out := *g
	out.ID = id
	return &out, nil
}

func (s *SQLiteStore) ListGradesBySurvey(surveyID int64) ([]*services.Grade, error) {
	rows, err := s.db.Query(
		"SELECT id, grade, survey_id, user_id, created_at FROM grades WHERE survey_id = ? ORDER BY id", surveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	defer rows.Close()
	var out []*services.Grade
	for rows.Next() {
		var g services.Grade
		if err := rows.Scan(&g.ID, &g.Grade, &g.SurveyID, &g.UserID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetGradeForSurvey(userID, surveyID int64) (*services.Grade, error) {
	var g services.Grade
	err := s.db.QueryRow(
		"SELECT id, grade, survey_id, user_id, created_at FROM grades WHERE user_id = ? AND survey_id = ?",
		userID, surveyID,
	).Scan(&g.ID, &g.Grade, &g.SurveyID, &g.UserID, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get grade: %w", err)
	}
	return &g, nil
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
