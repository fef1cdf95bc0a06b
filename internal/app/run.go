package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"humidity-server/internal/config"
	"humidity-server/internal/db"
	"humidity-server/internal/db/migrate"
	"humidity-server/internal/httpapi"
	"humidity-server/internal/modules/auth"
	"humidity-server/internal/modules/board"
	"humidity-server/internal/modules/settings"
	"humidity-server/internal/mqtt"
	"humidity-server/internal/observability"
	"humidity-server/internal/ws"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"corsOrigins", cfg.CORSOrigins,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"redisAddr", cfg.RedisAddr,
	)
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRow(`SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	metrics := observability.NewMetrics()
	hub := ws.NewHub(metrics)

	// Handlers must be attached before Connect so queued messages arriving
	// right after CONNACK are not dropped.
	var mqttSubscriber *mqtt.Subscriber
	var ingestSubscriber mqtt.MQTTSubscriber
	if cfg.MQTTBroker != "" {
		mqttSubscriber, err = mqtt.NewSubscriber(cfg, slog.Default())
		if err != nil {
			return err
		}
		ingestSubscriber = mqttSubscriber
	}

	mux := httpapi.NewMux(dbConn)
	hub.RegisterRoutes(mux)
	boardService := board.RegisterFeature(mux, dbConn, hub, ingestSubscriber, metrics)
	jwtMiddleware := auth.RegisterFeature(mux, dbConn, cfg)
	settings.RegisterFeature(mux, dbConn, boardService, jwtMiddleware)

	if mqttSubscriber != nil {
		// Short timeout on the initial connect so startup is not blocked when
		// the broker is down; the client keeps retrying in the background.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = mqttSubscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttSubscriber != nil {
		slog.Info("mqtt disconnecting")
		mqttSubscriber.Disconnect()
	}

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
