package settings

import (
	"context"
	"database/sql"
	"net/http"

	"humidity-server/internal/modules/settings/controller"
	"humidity-server/internal/modules/settings/repository"
)

type boardProvisioner interface {
	Provision(ctx context.Context, unitID int) error
	Decommission(ctx context.Context, unitID int) error
}

func RegisterFeature(mux *http.ServeMux, db *sql.DB, boards boardProvisioner, middleware func(http.Handler) http.Handler) {
	settingsRepository := repository.NewRepository(db)
	settingsController := controller.NewSettingsController(settingsRepository, boards)
	settingsController.RegisterRoutes(mux, middleware)
}
