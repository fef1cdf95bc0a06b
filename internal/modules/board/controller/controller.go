package controller

import (
	"context"
	"net/http"
	"time"

	"humidity-server/internal/modules/board/types"
)

// boardService is the slice of the board service the HTTP layer uses.
type boardService interface {
	Ingest(ctx context.Context, unitID int, in types.ReadingInput) (types.BoardState, error)
	Provision(ctx context.Context, unitID int) error
	ChartSeries(ctx context.Context, unitID int, from, to time.Time) (types.ChartSeries, error)
	LiveSeries(ctx context.Context, unitID int) (types.ChartSeries, error)
	ReportSeries(ctx context.Context, unitID int) (types.ChartSeries, error)
	MonthlyAverage(ctx context.Context, unitID int, month time.Month, year int) (types.MonthlyAverage, error)
}

type BoardController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type boardControllerImpl struct {
	service boardService
}

func NewBoardController(service boardService) BoardController {
	return &boardControllerImpl{service: service}
}

func (c *boardControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/dashboard/{unit_ID}", c.handleIngest)
	mux.HandleFunc("POST /api/v1/dashboard/create", c.handleCreate)
	mux.HandleFunc("GET /api/v1/graphdata/{unit_ID}", c.handleGraphData)
	mux.HandleFunc("GET /api/v1/report/{unit_ID}", c.handleReport)
	mux.HandleFunc("GET /download/csv/{unit_ID}", c.handleDownloadCSV)
	mux.HandleFunc("GET /average/{unit_ID}", c.handleMonthlyAverage)
}
