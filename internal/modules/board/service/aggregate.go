package service

import (
	"context"
	"time"

	"humidity-server/internal/clock"
	"humidity-server/internal/modules/board/types"
)

// ChartSeries maps the unit's history in [from, to) to the dashboard chart
// payload: the fixed header row followed by one [ISO time in IST, humidity,
// temperature] row per entry, ascending by timestamp. Side-effect-free.
func (s *Service) ChartSeries(ctx context.Context, unitID int, from, to time.Time) (types.ChartSeries, error) {
	entries, err := s.repository.QueryHistory(ctx, unitID, from, to)
	if err != nil {
		return nil, err
	}
	series := make(types.ChartSeries, 0, len(entries)+1)
	series = append(series, types.SeriesHeader())
	for _, e := range entries {
		series = append(series, [3]any{
			e.CreatedAt.In(clock.IST).Format(time.RFC3339),
			e.Humidity,
			e.Temperature,
		})
	}
	return series, nil
}

// LiveSeries returns the chart series for the canonical live window.
func (s *Service) LiveSeries(ctx context.Context, unitID int) (types.ChartSeries, error) {
	from, to := clock.LiveWindow(s.now())
	return s.ChartSeries(ctx, unitID, from, to)
}

// ReportSeries returns the chart series for the canonical report window.
func (s *Service) ReportSeries(ctx context.Context, unitID int) (types.ChartSeries, error) {
	from, to := clock.ReportWindow(s.now())
	return s.ChartSeries(ctx, unitID, from, to)
}

// MonthlyAverage computes the arithmetic mean of temperature and humidity over
// the unit's history within the month window. An empty window is ErrNoData.
func (s *Service) MonthlyAverage(ctx context.Context, unitID int, month time.Month, year int) (types.MonthlyAverage, error) {
	from, to := clock.MonthWindow(month, year)
	entries, err := s.repository.QueryHistory(ctx, unitID, from, to)
	if err != nil {
		return types.MonthlyAverage{}, err
	}
	if len(entries) == 0 {
		return types.MonthlyAverage{}, ErrNoData
	}

	var sumTemp, sumHumidity float64
	for _, e := range entries {
		sumTemp += e.Temperature
		sumHumidity += e.Humidity
	}
	n := float64(len(entries))
	return types.MonthlyAverage{
		UnitID:      unitID,
		Month:       int(month),
		Year:        year,
		AvgTemp:     sumTemp / n,
		AvgHumidity: sumHumidity / n,
	}, nil
}
