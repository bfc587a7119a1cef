package api

import (
	"net/http"
	"strings"

	"github.com/pkarolak/gradeboard/internal/middleware"
	"github.com/pkarolak/gradeboard/internal/services"
)

// POST /users/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	res, err := rt.auth.Login(req.Username, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token})
}

// POST /users/signup
func (rt *Router) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req services.SignUp
	if err := readJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	u, err := rt.users.Create(req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GET /users/current
func (rt *Router) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, _ := middleware.ClaimsFromContext(r.Context())
	u, err := rt.users.Get(claims.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GET /users/all — admin only, guarded at registration.
func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	users, err := rt.users.List()
	if err != nil {
		writeErr(w, err)
		return
	}
	if users == nil {
		users = []*services.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// /users/{id} and /users/{id}/report
func (rt *Router) handleUserScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	parts := strings.Split(rest, "/")
	id, err := parseID(parts[0])
	if err != nil {
		writeErr(w, err)
		return
	}

	// GET /users/{id}/report — historical alias for the survey report; the
	// id names a survey.
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

	switch r.Method {
	case http.MethodGet:
		u, err := rt.users.Get(id)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPut:
		claims, ok := adminClaims(w, r)
		if !ok {
			return
		}
		var patch services.UserPatch
		if err := readJSON(r, &patch); err != nil {
			writeErr(w, err)
			return
		}
		u, err := rt.users.Update(id, claims.UserID, patch)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodDelete:
		if _, ok := adminClaims(w, r); !ok {
			return
		}
		if err := rt.users.Delete(id); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
