package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"humidity-server/internal/modules/settings/repository"
	"humidity-server/internal/modules/settings/types"
	"humidity-server/internal/utils"
)

func (c *settingsControllerImpl) handleList(w http.ResponseWriter, r *http.Request) {
	servers, err := c.repository.List(r.Context())
	if err != nil {
		slog.Error("list settings failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"servers": servers})
}

// handleAdd creates the threshold settings for a unit and provisions the
// corresponding board row. When unit_ID is omitted the next free one is
// assigned.
func (c *settingsControllerImpl) handleAdd(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var unitID int
	if s := q.Get("unit_ID"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			utils.WriteError(w, http.StatusBadRequest, "invalid unit_ID")
			return
		}
		unitID = n
	} else {
		n, err := c.repository.NextUnitID(r.Context())
		if err != nil {
			slog.Error("assign unit_ID failed", "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to assign unit_ID")
			return
		}
		unitID = n
	}

	in, err := parseSettingsInput(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := types.Settings{UnitID: unitID}
	applyInput(&s, in)

	if err := c.repository.Create(r.Context(), s); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			utils.WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("server with unit_ID %d already exists", unitID))
			return
		}
		slog.Error("create settings failed", "unit_ID", unitID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to create settings")
		return
	}

	if err := c.boards.Provision(r.Context(), unitID); err != nil {
		slog.Error("provision board failed", "unit_ID", unitID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to provision board")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Server and corresponding board entry added successfully",
		"unit_ID": unitID,
	})
}

func (c *settingsControllerImpl) handleUpdate(w http.ResponseWriter, r *http.Request) {
	unitID, err := strconv.Atoi(r.URL.Query().Get("unit_ID"))
	if err != nil || unitID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "unit_ID is required")
		return
	}

	in, err := parseSettingsInput(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.repository.Update(r.Context(), unitID, in); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "server not found")
			return
		}
		slog.Error("update settings failed", "unit_ID", unitID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Server updated successfully"})
}

// handleDelete removes the settings row and the board's current state.
// Board history is deliberately retained.
func (c *settingsControllerImpl) handleDelete(w http.ResponseWriter, r *http.Request) {
	unitID, err := strconv.Atoi(r.URL.Query().Get("unit_ID"))
	if err != nil || unitID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "unit_ID is required")
		return
	}

	if err := c.repository.Delete(r.Context(), unitID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "server not found in settings")
			return
		}
		slog.Error("delete settings failed", "unit_ID", unitID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to delete settings")
		return
	}

	if err := c.boards.Decommission(r.Context(), unitID); err != nil {
		slog.Error("decommission board failed", "unit_ID", unitID, "error", err)
		utils.WriteError(w, http.StatusNotFound, "board entry not found for the given unit_ID")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Server and corresponding board entry deleted successfully",
	})
}

func parseSettingsInput(r *http.Request) (types.SettingsInput, error) {
	q := r.URL.Query()
	var in types.SettingsInput

	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"humidity_high", &in.HumidityHigh},
		{"humidity_low", &in.HumidityLow},
		{"temp_high", &in.TempHigh},
		{"temp_low", &in.TempLow},
		{"water_level_high", &in.WaterLevelHigh},
		{"water_level_low", &in.WaterLevelLow},
	} {
		if s := q.Get(f.name); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return types.SettingsInput{}, fmt.Errorf("invalid %q (expected number)", f.name)
			}
			*f.dst = &v
		}
	}
	return in, nil
}

func applyInput(s *types.Settings, in types.SettingsInput) {
	if in.HumidityHigh != nil {
		s.HumidityHigh = *in.HumidityHigh
	}
	if in.HumidityLow != nil {
		s.HumidityLow = *in.HumidityLow
	}
	if in.TempHigh != nil {
		s.TempHigh = *in.TempHigh
	}
	if in.TempLow != nil {
		s.TempLow = *in.TempLow
	}
	if in.WaterLevelHigh != nil {
		s.WaterLevelHigh = *in.WaterLevelHigh
	}
	if in.WaterLevelLow != nil {
		s.WaterLevelLow = *in.WaterLevelLow
	}
}
