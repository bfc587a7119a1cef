package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/pkarolak/gradeboard/internal/services"
)

// POST /surveys (create) and GET /surveys (list), both admin only.
func (rt *Router) handleSurveysRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := adminClaims(w, r); !ok {
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Title      string    `json:"title"`
			Body       string    `json:"body"`
			StartAt    time.Time `json:"start_at"`
			FinishesAt time.Time `json:"finishes_at"`
		}
		if err := readJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		sv, err := rt.surveys.Create(&services.Survey{Title: req.Title, Body: req.Body, StartAt: req.StartAt, FinishesAt: req.FinishesAt})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sv)
	case http.MethodGet:
		surveys, err := rt.surveys.List()
		if err != nil {
			writeErr(w, err)
			return
		}
		if surveys == nil {
			surveys = []*services.Survey{}
		}
		writeJSON(w, http.StatusOK, surveys)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /surveys/current
func (rt *Router) handleCurrentSurveys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	surveys, err := rt.surveys.ListCurrent()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surveys)
}

// /surveys/{id} and /surveys/{id}/report
func (rt *Router) handleSurveyScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/surveys/")
	if rest == "" {
		rt.handleSurveysRoot(w, r)
		return
	}
	parts := strings.Split(rest, "/")
	id, err := parseID(parts[0])
	if err != nil {
		writeErr(w, err)
		return
	}

	if len(parts) == 2 && parts[1] == "report" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := adminClaims(w, r); !ok {
			return
		}
		rt.serveSurveyReport(w, r, id)
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sv, err := rt.surveys.Get(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

// serveSurveyReport renders the survey's PDF report and streams it back.
// The artifact directory is removed once the response has been written.
func (rt *Router) serveSurveyReport(w http.ResponseWriter, r *http.Request, surveyID int64) {
	sv, err := rt.surveys.Get(surveyID)
	if err != nil {
		writeErr(w, err)
		return
	}
	grades, err := rt.grades.BySurvey(surveyID)
	if err != nil {
		writeErr(w, err)
		return
	}
	art, err := rt.reports.Generate(sv, grades)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer art.Cleanup()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="report.pdf"`)
	http.ServeFile(w, r, art.PDFPath)
}
