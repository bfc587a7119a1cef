package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/pkarolak/gradeboard/internal/middleware"
	"github.com/pkarolak/gradeboard/internal/report"
	"github.com/pkarolak/gradeboard/internal/services"
)

// Store is the union of persistence operations the routed services need.
// Both the SQLite store and the in-memory store satisfy it.
type Store interface {
	services.AuthStore
	services.UserStore
	services.SurveyStore
	services.GradeStore
}

type Config struct {
	ReportDir string
}

type Router struct {
	auth    *services.AuthService
	users   *services.UserService
	surveys *services.SurveyService
	grades  *services.GradeService
	reports *report.Generator
}

func NewRouter(store Store, cfg Config) *Router {
	return &Router{
		auth:    services.NewAuthService(store, middleware.SignToken),
		users:   services.NewUserService(store),
		surveys: services.NewSurveyService(store),
		grades:  services.NewGradeService(store),
		reports: report.NewGenerator(cfg.ReportDir),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/users/login", rt.handleLogin)   // POST
	mux.HandleFunc("/users/signup", rt.handleSignup) // POST
	mux.Handle("/users/current", middleware.RequireAuth(http.HandlerFunc(rt.handleCurrentUser)))
	mux.Handle("/users/all", middleware.RequireAdmin(http.HandlerFunc(rt.handleListUsers)))
	mux.Handle("/users/", middleware.RequireAuth(http.HandlerFunc(rt.handleUserScoped)))

	mux.Handle("/surveys", middleware.RequireAuth(http.HandlerFunc(rt.handleSurveysRoot)))
	mux.Handle("/surveys/current", middleware.RequireAuth(http.HandlerFunc(rt.handleCurrentSurveys)))
	mux.Handle("/surveys/", middleware.RequireAuth(http.HandlerFunc(rt.handleSurveyScoped)))

	mux.Handle("/grades", middleware.RequireAuth(http.HandlerFunc(rt.handleCreateGrade)))
	mux.Handle("/grades/", middleware.RequireAuth(http.HandlerFunc(rt.handleCreateGrade)))
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("encode response")
	}
}

func writeErr(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), errorBody{Error: se.Message})
		return
	}
	logrus.WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return services.NewInvalidError("invalid request body")
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewInvalidError("invalid id")
	}
	return id, nil
}

// adminClaims enforces the administrator role on scoped routes where the
// guard cannot be applied per-path. RequireAuth has already run.
func adminClaims(w http.ResponseWriter, r *http.Request) (*middleware.Claims, bool) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return nil, false
	}
	if !c.IsAdmin {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return nil, false
	}
	return c, true
}
