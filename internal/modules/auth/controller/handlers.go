package controller

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"humidity-server/internal/modules/auth/repository"
	"humidity-server/internal/modules/auth/service"
	"humidity-server/internal/modules/auth/types"
	"humidity-server/internal/utils"
)

func (c *authControllerImpl) handleLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")
	password := q.Get("password")
	if username == "" || password == "" {
		utils.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := c.service.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("login failed", "username", username, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (c *authControllerImpl) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		utils.WriteError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := c.service.Logout(r.Context(), body.Token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			utils.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}
		slog.Error("logout failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Logged out successfully",
	})
}

func (c *authControllerImpl) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.repository.List(r.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(users) == 0 {
		utils.WriteError(w, http.StatusNotFound, "no users found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (c *authControllerImpl) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	u := types.User{
		UserID:   q.Get("user_ID"),
		Username: q.Get("username"),
		Role:     q.Get("role"),
		EmailID:  q.Get("emailId"),
		PhoneNo:  q.Get("phoneNo"),
	}
	password := q.Get("password")

	if password == "" {
		utils.WriteError(w, http.StatusBadRequest, "password is required")
		return
	}
	if u.UserID == "" || u.Username == "" || u.Role == "" || u.EmailID == "" || u.PhoneNo == "" {
		utils.WriteError(w, http.StatusBadRequest, "all fields are required")
		return
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		slog.Error("hash password failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	u.PasswordHash = hash

	if err := c.repository.Create(r.Context(), u); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			utils.WriteError(w, http.StatusBadRequest, "user ID already exists")
			return
		}
		slog.Error("create user failed", "user_ID", u.UserID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"msg": "User registered successfully"})
}

func (c *authControllerImpl) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_ID")
	if userID == "" {
		utils.WriteError(w, http.StatusBadRequest, "user_ID is required")
		return
	}

	var in types.UserInput
	for _, f := range []struct {
		name string
		dst  **string
	}{
		{"username", &in.Username},
		{"role", &in.Role},
		{"emailId", &in.EmailID},
		{"phoneNo", &in.PhoneNo},
	} {
		if s := q.Get(f.name); s != "" {
			v := s
			*f.dst = &v
		}
	}

	var passwordHash *string
	if password := q.Get("password"); password != "" {
		hash, err := service.HashPassword(password)
		if err != nil {
			slog.Error("hash password failed", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}
		passwordHash = &hash
	}

	if err := c.repository.Update(r.Context(), userID, in, passwordHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.Error("update user failed", "user_ID", userID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"msg": "User updated successfully"})
}

func (c *authControllerImpl) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_ID")
	if userID == "" {
		utils.WriteError(w, http.StatusBadRequest, "user_ID is required")
		return
	}

	if err := c.repository.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.Error("delete user failed", "user_ID", userID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"msg": "User deleted successfully"})
}
