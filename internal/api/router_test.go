package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pkarolak/gradeboard/internal/db"
	"github.com/pkarolak/gradeboard/internal/middleware"
	"github.com/pkarolak/gradeboard/internal/services"
)

func newTestRouter(t *testing.T) (http.Handler, *db.MemStore) {
	t.Helper()
	store := db.NewMemStore()
	mux := http.NewServeMux()
	NewRouter(store, Config{ReportDir: t.TempDir()}).Register(mux)
	return middleware.WithAuth(mux), store
}

func seedUser(t *testing.T, store *db.MemStore, username, password string, admin bool) (*services.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := store.InsertUser(&services.User{Username: username, PasswordHash: hash, IsAdmin: admin})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	token, err := middleware.SignToken(u.ID, u.IsAdmin, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return u, token
}

func doReq(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSignupAndDuplicate(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doReq(t, h, http.MethodPost, "/users/signup", "", map[string]string{
		"username": "alice", "password": "Secret123", "first_name": "Alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status %d: %s", rec.Code, rec.Body.String())
	}
	var created services.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	if created.ID == 0 || created.Username != "alice" {
		t.Fatalf("unexpected created user: %+v", created)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("Secret123")) || bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("response leaks password material: %s", rec.Body.String())
	}

	rec = doReq(t, h, http.MethodPost, "/users/signup", "", map[string]string{
		"username": "alice", "password": "Another123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status %d, want 409", rec.Code)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	h, store := newTestRouter(t)
	seedUser(t, store, "alice", "Secret123", false)

	ok := doReq(t, h, http.MethodPost, "/users/login", "", map[string]string{"username": "alice", "password": "Secret123"})
	if ok.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", ok.Code, ok.Body.String())
	}
	var res struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(ok.Body.Bytes(), &res); err != nil || res.Token == "" {
		t.Fatalf("expected token in response: %s", ok.Body.String())
	}

	wrongPass := doReq(t, h, http.MethodPost, "/users/login", "", map[string]string{"username": "alice", "password": "nope-nope"})
	noUser := doReq(t, h, http.MethodPost, "/users/login", "", map[string]string{"username": "nobody", "password": "Secret123"})
	if wrongPass.Code != http.StatusUnauthorized || noUser.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPass.Code, noUser.Code)
	}
	if wrongPass.Body.String() != noUser.Body.String() {
		t.Fatalf("failure bodies differ: %q vs %q", wrongPass.Body.String(), noUser.Body.String())
	}
}

func TestAdminGuards(t *testing.T) {
	h, store := newTestRouter(t)
	_, userToken := seedUser(t, store, "bob", "Secret123", false)
	_, adminToken := seedUser(t, store, "root", "Secret123", true)

	if rec := doReq(t, h, http.MethodGet, "/users/all", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", rec.Code)
	}
	if rec := doReq(t, h, http.MethodGet, "/users/all", userToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status %d, want 403", rec.Code)
	}
	if rec := doReq(t, h, http.MethodGet, "/users/all", adminToken, nil); rec.Code != http.StatusOK {
		t.Fatalf("admin: status %d, want 200", rec.Code)
	}

	// Body content must not matter for the guard outcome.
	rec := doReq(t, h, http.MethodPost, "/surveys", userToken, map[string]any{"title": "X", "is_admin": true})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin survey create: status %d, want 403", rec.Code)
	}
}

func TestCurrentUser(t *testing.T) {
	h, store := newTestRouter(t)
	u, token := seedUser(t, store, "carol", "Secret123", false)

	rec := doReq(t, h, http.MethodGet, "/users/current", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var got services.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != u.ID || got.Username != "carol" {
		t.Fatalf("unexpected current user: %+v", got)
	}
}

func TestGradeAttributionIgnoresBodyUserID(t *testing.T) {
	h, store := newTestRouter(t)
	actor, token := seedUser(t, store, "dave", "Secret123", false)
	now := time.Now().UTC()
	sv, err := store.InsertSurvey(&services.Survey{Title: "T", StartAt: now.Add(-time.Hour), FinishesAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("insert survey: %v", err)
	}

	rec := doReq(t, h, http.MethodPost, "/grades", token, map[string]any{
		"grade": 7, "survey_id": sv.ID, "user_id": 999,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	g, err := store.GetGradeForSurvey(actor.ID, sv.ID)
	if err != nil || g == nil {
		t.Fatalf("grade not stored for actor: %v", err)
	}
	if forged, _ := store.GetGradeForSurvey(999, sv.ID); forged != nil {
		t.Fatalf("client-supplied user id was honored: %+v", forged)
	}
	if g.CreatedAt.IsZero() {
		t.Fatalf("grade missing server timestamp")
	}
}

func TestGradeRequiresAuthAndExistingSurvey(t *testing.T) {
	h, store := newTestRouter(t)
	_, token := seedUser(t, store, "erin", "Secret123", false)

	if rec := doReq(t, h, http.MethodPost, "/grades", "", map[string]any{"grade": 5, "survey_id": 1}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", rec.Code)
	}
	if rec := doReq(t, h, http.MethodPost, "/grades", token, map[string]any{"grade": 5, "survey_id": 42}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown survey: status %d, want 404", rec.Code)
	}
}

func TestSurveyCreateValidatesWindow(t *testing.T) {
	h, store := newTestRouter(t)
	_, adminToken := seedUser(t, store, "root", "Secret123", true)
	now := time.Now().UTC()

	rec := doReq(t, h, http.MethodPost, "/surveys", adminToken, map[string]any{
		"title": "Backwards", "start_at": now.Add(time.Hour), "finishes_at": now,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted window: status %d, want 400", rec.Code)
	}

	rec = doReq(t, h, http.MethodPost, "/surveys", adminToken, map[string]any{
		"title": "Feedback", "body": "B", "start_at": now.Add(-time.Hour), "finishes_at": now.Add(time.Hour),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid create: status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCurrentSurveysEndpoint(t *testing.T) {
	h, store := newTestRouter(t)
	_, token := seedUser(t, store, "frank", "Secret123", false)
	now := time.Now().UTC()

	mustInsert := func(title string, start, finish time.Time) {
		if _, err := store.InsertSurvey(&services.Survey{Title: title, StartAt: start, FinishesAt: finish}); err != nil {
			t.Fatalf("insert survey %s: %v", title, err)
		}
	}
	mustInsert("past", now.Add(-3*time.Hour), now.Add(-2*time.Hour))
	mustInsert("open", now.Add(-time.Hour), now.Add(time.Hour))
	mustInsert("future", now.Add(2*time.Hour), now.Add(3*time.Hour))

	rec := doReq(t, h, http.MethodGet, "/surveys/current", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var got []*services.Survey
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Title != "open" {
		t.Fatalf("unexpected current surveys: %+v", got)
	}
}

func TestUserUpdateRules(t *testing.T) {
	h, store := newTestRouter(t)
	target, _ := seedUser(t, store, "gina", "Secret123", true)
	_, otherAdmin := seedUser(t, store, "root", "Secret123", true)
	targetToken, err := middleware.SignToken(target.ID, true, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	// Password change by a different admin fails.
	rec := doReq(t, h, http.MethodPut, "/users/"+itoa(target.ID), otherAdmin, map[string]any{"password": "NewSecret1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("other-actor password change: status %d, want 400", rec.Code)
	}
	// Self change with a long enough password succeeds.
	rec = doReq(t, h, http.MethodPut, "/users/"+itoa(target.ID), targetToken, map[string]any{"password": "NewSecret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("self password change: status %d: %s", rec.Code, rec.Body.String())
	}
	// Short password fails.
	rec = doReq(t, h, http.MethodPut, "/users/"+itoa(target.ID), targetToken, map[string]any{"password": "short"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: status %d, want 400", rec.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	h, store := newTestRouter(t)
	victim, _ := seedUser(t, store, "henry", "Secret123", false)
	_, adminToken := seedUser(t, store, "root", "Secret123", true)

	if rec := doReq(t, h, http.MethodDelete, "/users/4242", adminToken, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown id: status %d, want 400", rec.Code)
	}
	if rec := doReq(t, h, http.MethodDelete, "/users/"+itoa(victim.ID), adminToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d, want 204", rec.Code)
	}
	if u, _ := store.GetUser(victim.ID); u != nil {
		t.Fatalf("user still present after delete")
	}
}

func TestSurveyReportEndpoint(t *testing.T) {
	h, store := newTestRouter(t)
	actor, userToken := seedUser(t, store, "ivy", "Secret123", false)
	_, adminToken := seedUser(t, store, "root", "Secret123", true)
	now := time.Now().UTC()
	sv, err := store.InsertSurvey(&services.Survey{Title: "T", StartAt: now.Add(-time.Hour), FinishesAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("insert survey: %v", err)
	}
	if _, err := store.InsertGrade(&services.Grade{Grade: 6, SurveyID: sv.ID, UserID: actor.ID, CreatedAt: now}); err != nil {
		t.Fatalf("insert grade: %v", err)
	}

	if rec := doReq(t, h, http.MethodGet, "/surveys/99/report", adminToken, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("absent survey: status %d, want 404", rec.Code)
	}
	if rec := doReq(t, h, http.MethodGet, "/surveys/"+itoa(sv.ID)+"/report", userToken, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin report: status %d, want 403", rec.Code)
	}

	rec := doReq(t, h, http.MethodGet, "/surveys/"+itoa(sv.ID)+"/report", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type %q, want application/pdf", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("empty report body")
	}

	// The historical alias serves the same document.
	alias := doReq(t, h, http.MethodGet, "/users/"+itoa(sv.ID)+"/report", adminToken, nil)
	if alias.Code != http.StatusOK {
		t.Fatalf("alias report: status %d", alias.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	h, store := newTestRouter(t)
	_, token := seedUser(t, store, "jack", "Secret123", false)
	if rec := doReq(t, h, http.MethodGet, "/users/777", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
