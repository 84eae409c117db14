package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/slascicarna/internal/auth"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/store"
)

// LoginPage handles GET /login/.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &struct {
		PageData
		Next string
	}{
		PageData: page(w, r, "Log in"),
		Next:     safeNext(r.URL.Query().Get("next")),
	})
}

// LoginSubmit handles POST /login/.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	fail := func(msg string) {
		s.Templates.Render(w, "login.html", &struct {
			PageData
			Next string
		}{
			PageData: PageData{Title: "Log in", Error: msg},
			Next:     next,
		})
	}

	if username == "" || password == "" {
		fail("Please enter your username and password.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		fail("Login failed. Please try again.")
		return
	}
	if user == nil || user.DeletedAt != nil || !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("login failed", "username", username, "remote", r.RemoteAddr)
		fail("Please enter a correct username and password.")
		return
	}

	if err := s.startSession(w, user); err != nil {
		slog.Error("failed to start session", "error", err)
		fail("Login failed. Please try again.")
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	http.Redirect(w, r, next, http.StatusFound)
}

// Logout handles POST /logout/. The session token is revoked server-side.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(authCookie); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil && claims.ID != "" {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
				slog.Error("failed to revoke token", "error", err)
			} else {
				slog.Info("user logged out", "user", claims.Username)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, loginURL, http.StatusFound)
}

// RegisterPage handles GET /register/.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &struct {
		PageData
		Username string
	}{
		PageData: page(w, r, "Register"),
	})
}

// RegisterSubmit handles POST /register/. A new customer account is created
// and logged in straight away.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password1 := r.FormValue("password1")
	password2 := r.FormValue("password2")

	fail := func(msg string) {
		s.Templates.RenderStatus(w, http.StatusBadRequest, "register.html", &struct {
			PageData
			Username string
		}{
			PageData: PageData{Title: "Register", Error: msg},
			Username: username,
		})
	}

	if err := model.ValidateUsername(username); err != nil {
		fail(capitalize(err.Error()) + ".")
		return
	}
	if password1 != password2 {
		fail("The two password fields didn't match.")
		return
	}
	if err := model.ValidatePassword(password1); err != nil {
		fail(capitalize(err.Error()) + ".")
		return
	}

	hash, err := auth.HashPassword(password1)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		fail("Registration failed. Please try again.")
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, username, hash, model.RoleCustomer)
	if errors.Is(err, store.ErrUsernameTaken) {
		fail("A user with that username already exists.")
		return
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		fail("Registration failed. Please try again.")
		return
	}

	if err := s.startSession(w, user); err != nil {
		slog.Error("failed to start session", "error", err)
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}

	slog.Info("user registered", "user", user.Username)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) startSession(w http.ResponseWriter, user *model.User) error {
	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		return err
	}
	setAuthCookie(w, token)
	return nil
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
