package controller

import (
	"net/http"

	"humidity-server/internal/modules/auth/repository"
	"humidity-server/internal/modules/auth/service"
)

type AuthController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type authControllerImpl struct {
	repository repository.UserRepository
	service    *service.Service
}

func NewAuthController(repo repository.UserRepository, svc *service.Service) AuthController {
	return &authControllerImpl{repository: repo, service: svc}
}

func (c *authControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/login", c.handleLogin)
	mux.HandleFunc("POST /api/v1/logout", c.handleLogout)
	mux.Handle("GET /api/v1/users", c.service.JWTMiddleware(http.HandlerFunc(c.handleListUsers)))
	mux.HandleFunc("POST /api/v1/users/create", c.handleCreateUser)
	mux.Handle("PUT /api/v1/users/update", c.service.JWTMiddleware(http.HandlerFunc(c.handleUpdateUser)))
	mux.Handle("DELETE /api/v1/users/delete/{user_ID}", c.service.JWTMiddleware(http.HandlerFunc(c.handleDeleteUser)))
}
