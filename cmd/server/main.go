package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/pkarolak/gradeboard/internal/api"
	"github.com/pkarolak/gradeboard/internal/config"
	"github.com/pkarolak/gradeboard/internal/db"
	"github.com/pkarolak/gradeboard/internal/middleware"
	"github.com/pkarolak/gradeboard/internal/services"
)

func main() {
	cfg := config.Load()

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	sqlDB, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("open database")
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(sqlDB, cfg.MigrationsDir); err != nil {
		logrus.WithError(err).Fatal("run migrations")
	}
	store, err := db.NewSQLiteStore(sqlDB)
	if err != nil {
		logrus.WithError(err).Fatal("init store")
	}

	if err := bootstrapAdmin(store); err != nil {
		logrus.WithError(err).Fatal("bootstrap admin")
	}

	mux := http.NewServeMux()
	api.NewRouter(store, api.Config{ReportDir: cfg.ReportDir}).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "Gradeboard API"})
	})

	handler := middleware.CORS(middleware.RequestLogger(middleware.WithAuth(mux)))

	logrus.WithField("addr", cfg.Addr).Info("gradeboard server listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}

// bootstrapAdmin creates an administrator account on first start when
// GRADEBOARD_BOOTSTRAP_ADMIN is set to "username:password". Without it a
// fresh database has no admin and admin-only routes are unreachable.
func bootstrapAdmin(store *db.SQLiteStore) error {
	cred := os.Getenv("GRADEBOARD_BOOTSTRAP_ADMIN")
	if cred == "" {
		return nil
	}
	username, password, ok := strings.Cut(cred, ":")
	if !ok || username == "" || password == "" {
		logrus.Warn("GRADEBOARD_BOOTSTRAP_ADMIN is not in username:password form, skipping")
		return nil
	}
	existing, err := store.FindUserByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	users := services.NewUserService(store)
	u, err := users.Create(services.SignUp{Username: username, Password: password})
	if err != nil {
		return err
	}
	admin := true
	if _, err := users.Update(u.ID, u.ID, services.UserPatch{IsAdmin: &admin}); err != nil {
		return err
	}
	logrus.WithField("username", username).Info("bootstrap admin created")
	return nil
}
