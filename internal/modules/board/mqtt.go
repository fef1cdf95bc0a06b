package board

import (
	"context"
	"log/slog"

	"humidity-server/internal/modules/board/service"
	"humidity-server/internal/modules/board/types"
	"humidity-server/internal/mqtt"
)

// registerMQTTHandler feeds board readings arriving over MQTT into the same
// ingest pipeline the HTTP endpoint uses.
func registerMQTTHandler(subscriber mqtt.MQTTSubscriber, svc *service.Service, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(reading mqtt.Reading) error {
		logger.Debug("processing board reading", "unit_ID", reading.UnitID)

		_, err := svc.Ingest(context.Background(), reading.UnitID, types.ReadingInput{
			Temperature:   reading.Temperature,
			Humidity:      reading.Humidity,
			WaterLevel:    reading.WaterLevel,
			ExternalPower: reading.ExternalPower,
			UPSState:      reading.UPSState,
			X:             reading.X,
			Y:             reading.Y,
		})
		if err != nil {
			logger.Error("failed to ingest board reading",
				"unit_ID", reading.UnitID,
				"error", err,
			)
			return err
		}
		return nil
	})
}
