package auth

import (
	"database/sql"
	"net/http"

	"humidity-server/internal/config"
	"humidity-server/internal/modules/auth/controller"
	"humidity-server/internal/modules/auth/repository"
	"humidity-server/internal/modules/auth/service"
)

// RegisterFeature wires the auth module and returns the JWT middleware so
// other modules can guard their routes with it.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, cfg config.Config) func(http.Handler) http.Handler {
	var denylist service.TokenDenylist
	if cfg.RedisAddr != "" {
		denylist = service.NewRedisDenylist(cfg.RedisAddr)
	} else {
		denylist = service.NewMemoryDenylist()
	}

	userRepository := repository.NewRepository(db)
	authService := service.NewService(userRepository, denylist, cfg.JWTSecret)
	authController := controller.NewAuthController(userRepository, authService)
	authController.RegisterRoutes(mux)
	return authService.JWTMiddleware
}
