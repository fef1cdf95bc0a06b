package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/cors"

	"humidity-server/internal/config"
)

// NewServer wraps the mux with CORS for the configured dashboard origins.
// With no origins configured the handler is permissive, which suits a
// deployment behind a trusted gateway.
func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	var handler http.Handler = mux
	if len(cfg.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		})
		handler = c.Handler(mux)
	}

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
