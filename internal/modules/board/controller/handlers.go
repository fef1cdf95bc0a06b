package controller

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"humidity-server/internal/modules/board/service"
	"humidity-server/internal/modules/board/types"
	"humidity-server/internal/utils"
)

type ingestResponse struct {
	types.BoardState
	Status string `json:"status"`
}

// handleIngest accepts one board reading as query parameters. Boards report
// over plain GET, so the route shape is kept as the firmware expects it.
func (c *boardControllerImpl) handleIngest(w http.ResponseWriter, r *http.Request) {
	unitID, err := parseUnitID(r.PathValue("unit_ID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
		return
	}

	in, err := parseReadingInput(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resolved, err := c.service.Ingest(r.Context(), unitID, in)
	if err != nil {
		writeServiceError(w, unitID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ingestResponse{
		BoardState: resolved,
		Status:     "Data updated successfully",
	})
}

func (c *boardControllerImpl) handleCreate(w http.ResponseWriter, r *http.Request) {
	unitID, err := parseUnitID(r.URL.Query().Get("unit_ID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
		return
	}

	if err := c.service.Provision(r.Context(), unitID); err != nil {
		if errors.Is(err, service.ErrAlreadyExists) {
			utils.WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("unit_ID %d already exists", unitID))
			return
		}
		writeServiceError(w, unitID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"unit_ID": unitID,
		"status":  "Board created successfully",
	})
}

func (c *boardControllerImpl) handleGraphData(w http.ResponseWriter, r *http.Request) {
	unitID, err := parseUnitID(r.PathValue("unit_ID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
		return
	}

	// Without an explicit range the dashboard gets the live window.
	var series types.ChartSeries
	if r.URL.Query().Get("start_time") == "" && r.URL.Query().Get("end_time") == "" {
		series, err = c.service.LiveSeries(r.Context(), unitID)
	} else {
		var from, to time.Time
		from, to, err = parseTimeRange(r)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		series, err = c.service.ChartSeries(r.Context(), unitID, from, to)
	}
	if err != nil {
		writeServiceError(w, unitID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": series})
}

func (c *boardControllerImpl) handleReport(w http.ResponseWriter, r *http.Request) {
	unitID, err := parseUnitID(r.PathValue("unit_ID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
		return
	}

	series, err := c.service.ReportSeries(r.Context(), unitID)
	if err != nil {
		writeServiceError(w, unitID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"data": series})
}

// handleDownloadCSV renders the report-window series as a CSV attachment.
// Richer formats (PDF, chart images) belong to the downstream formatter.
func (c *boardControllerImpl) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	unitID, err := parseUnitID(r.PathValue("unit_ID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
		return
	}

	series, err := c.service.ReportSeries(r.Context(), unitID)
	if err != nil {
		writeServiceError(w, unitID, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="graph_data_unit_%d.csv"`, unitID))

	cw := csv.NewWriter(w)
	for _, row := range series {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprint(cell)
		}
		if err := cw.Write(record); err != nil {
			slog.Error("write csv row", "unit_ID", unitID, "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("flush csv", "unit_ID", unitID, "error", err)
	}
}

func (c *boardControllerImpl) handleMonthlyAverage(w http.ResponseWriter, r *http.Request) {
	unitID, err := parseUnitID(r.PathValue("unit_ID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
		return
	}

	month, year, err := parseMonthYear(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	avg, err := c.service.MonthlyAverage(r.Context(), unitID, month, year)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		writeServiceError(w, unitID, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, avg)
}

func writeServiceError(w http.ResponseWriter, unitID int, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUnit):
		utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
	case errors.Is(err, service.ErrUnitNotFound):
		utils.WriteError(w, http.StatusNotFound,
			fmt.Sprintf("unit_ID %d not found", unitID))
	case errors.Is(err, service.ErrPartialPersist):
		slog.Error("dual write left inconsistent state", "unit_ID", unitID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "partial persist failure")
	default:
		slog.Error("board request failed", "unit_ID", unitID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
