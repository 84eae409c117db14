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

const usersURL = "/users/"

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims := GetWebClaims(r.Context())
	if claims == nil || !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// UsersPage handles GET /users/ (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	pd := page(w, r, "Users")
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		pd.Error = "Failed to load users."
	}

	s.Templates.Render(w, "users.html", &struct {
		PageData
		Users []model.User
		Roles []string
	}{
		PageData: pd,
		Users:    users,
		Roles:    []string{model.RoleCustomer, model.RoleManager, model.RoleAdmin},
	})
}

// UserCreateSubmit handles POST /users/ (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if err := model.ValidateUsername(username); err != nil {
		s.usersRedirect(w, r, flashError, capitalize(err.Error())+".")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.usersRedirect(w, r, flashError, capitalize(err.Error())+".")
		return
	}
	if !model.ValidRole(role) {
		s.usersRedirect(w, r, flashError, "Unknown role.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		s.usersRedirect(w, r, flashError, "Failed to create user.")
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, username, hash, role); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			s.usersRedirect(w, r, flashError, "A user with that username already exists.")
			return
		}
		slog.Error("failed to create user", "error", err)
		s.usersRedirect(w, r, flashError, "Failed to create user.")
		return
	}

	slog.Info("user created", "admin", claims.Username, "user", username, "role", role)
	s.usersRedirect(w, r, flashSuccess, "Created "+username+".")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role/ (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		s.usersRedirect(w, r, flashError, "Unknown role.")
		return
	}
	if id == claims.UserID && role != model.RoleAdmin {
		s.usersRedirect(w, r, flashError, "You cannot demote yourself.")
		return
	}

	if err := store.UpdateUser(r.Context(), s.DB, id, role); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.usersRedirect(w, r, flashError, "That user no longer exists.")
			return
		}
		slog.Error("failed to update user role", "error", err)
		s.usersRedirect(w, r, flashError, "Failed to update role.")
		return
	}

	slog.Info("user role changed", "admin", claims.Username, "user", id, "role", role)
	s.usersRedirect(w, r, flashSuccess, "Role updated.")
}

// UserResetPasswordSubmit handles POST /users/{id}/password/ (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	claims := GetWebClaims(r.Context())

	id, ok := pathID(w, r)
	if !ok {
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		s.usersRedirect(w, r, flashError, capitalize(err.Error())+".")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		s.usersRedirect(w, r, flashError, "Failed to reset password.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, hash); err != nil {
		slog.Error("failed to reset password", "error", err)
		s.usersRedirect(w, r, flashError, "Failed to reset password.")
		return
	}

	slog.Info("password reset", "admin", claims.Username, "user", id)
	s.usersRedirect(w, r, flashSuccess, "Password reset.")
}

func (s *Server) usersRedirect(w http.ResponseWriter, r *http.Request, kind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, usersURL, http.StatusSeeOther)
}

// SettingsPage handles GET /settings/.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	pd := page(w, r, "Settings")
	s.Templates.Render(w, "settings.html", &pd)
}

// SettingsSubmit handles POST /settings/ (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	render := func(errMsg, okMsg string) {
		status := http.StatusOK
		if errMsg != "" {
			status = http.StatusBadRequest
		}
		s.Templates.RenderStatus(w, status, "settings.html", &PageData{
			Title:   "Settings",
			User:    claims,
			Error:   errMsg,
			Success: okMsg,
		})
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		render("Please enter your current and new password.", "")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		render(capitalize(err.Error())+".", "")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		slog.Error("failed to load user", "user", claims.Username, "error", err)
		render("Failed to load your account.", "")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		render("Your current password is incorrect.", "")
		return
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		render("Failed to save the new password.", "")
		return
	}
	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, hash); err != nil {
		slog.Error("failed to update password", "error", err)
		render("Failed to save the new password.", "")
		return
	}

	slog.Info("password changed", "user", claims.Username)
	render("", "Password changed.")
}
