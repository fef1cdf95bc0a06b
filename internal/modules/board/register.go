package board

import (
	"database/sql"
	"log/slog"
	"net/http"

	"humidity-server/internal/modules/board/controller"
	"humidity-server/internal/modules/board/repository"
	"humidity-server/internal/modules/board/service"
	"humidity-server/internal/mqtt"
	"humidity-server/internal/observability"
)

// RegisterFeature wires the board module: store, ingest/aggregation service,
// HTTP routes and the MQTT ingest path. The returned service is shared with
// the settings module for provisioning.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, broadcaster service.Broadcaster, subscriber mqtt.MQTTSubscriber, metrics *observability.Metrics) *service.Service {
	boardRepository := repository.NewRepository(db)
	boardService := service.NewService(boardRepository, broadcaster, metrics)
	boardController := controller.NewBoardController(boardService)
	boardController.RegisterRoutes(mux)
	if subscriber != nil {
		registerMQTTHandler(subscriber, boardService, slog.Default())
	}
	return boardService
}
