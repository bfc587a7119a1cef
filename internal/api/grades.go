package api

import (
	"net/http"

	"github.com/pkarolak/gradeboard/internal/middleware"
)

// POST /grades — the grade is attributed to the authenticated caller; a
// user id in the body is never read.
func (rt *Router) handleCreateGrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req struct {
		Grade    int   `json:"grade"`
		SurveyID int64 `json:"survey_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	g, err := rt.grades.Add(req.SurveyID, req.Grade, claims.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}
