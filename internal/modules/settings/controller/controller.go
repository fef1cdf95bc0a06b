package controller

import (
	"context"
	"net/http"

	"humidity-server/internal/modules/settings/repository"
)

// boardProvisioner is the slice of the board service the settings module
// needs: adding a server provisions its board row, deleting removes the
// board's current state (history is retained).
type boardProvisioner interface {
	Provision(ctx context.Context, unitID int) error
	Decommission(ctx context.Context, unitID int) error
}

type SettingsController interface {
	RegisterRoutes(mux *http.ServeMux, middleware func(http.Handler) http.Handler)
}

type settingsControllerImpl struct {
	repository repository.SettingsRepository
	boards     boardProvisioner
}

func NewSettingsController(repo repository.SettingsRepository, boards boardProvisioner) SettingsController {
	return &settingsControllerImpl{repository: repo, boards: boards}
}

func (c *settingsControllerImpl) RegisterRoutes(mux *http.ServeMux, middleware func(http.Handler) http.Handler) {
	if middleware == nil {
		middleware = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("GET /api/v1/settings", middleware(http.HandlerFunc(c.handleList)))
	mux.Handle("POST /api/v1/settings/add_server", middleware(http.HandlerFunc(c.handleAdd)))
	mux.Handle("PUT /api/v1/settings/update_server", middleware(http.HandlerFunc(c.handleUpdate)))
	mux.Handle("DELETE /api/v1/settings/delete_server", middleware(http.HandlerFunc(c.handleDelete)))
}
