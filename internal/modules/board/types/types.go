package types

import "time"

// BoardState is the latest known reading snapshot for one unit. Exactly one
// row per unit; overwritten in place on every ingest.
type BoardState struct {
	UnitID        int       `json:"unit_ID"`
	Temperature   float64   `json:"t"`
	Humidity      float64   `json:"h"`
	WaterLevel    float64   `json:"w"`
	ExternalPower int       `json:"eb"`
	UPSState      int       `json:"ups"`
	X             int       `json:"x"`
	Y             int       `json:"y"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HistoryEntry is one immutable timestamped reading record, ordered by
// CreatedAt with insertion order breaking ties.
type HistoryEntry struct {
	UnitID        int       `json:"unit_ID"`
	Temperature   float64   `json:"t"`
	Humidity      float64   `json:"h"`
	WaterLevel    float64   `json:"w"`
	ExternalPower int       `json:"eb"`
	UPSState      int       `json:"ups"`
	X             int       `json:"x"`
	Y             int       `json:"y"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReadingInput carries the optional fields of an incoming reading. A nil
// field means "absent": sensor values fall back to the unit's current stored
// value, X and Y fall back to 1.
type ReadingInput struct {
	Temperature   *float64
	Humidity      *float64
	WaterLevel    *float64
	ExternalPower *int
	UPSState      *int
	X             *int
	Y             *int
}

// ChartSeries is the presentation-ready chart payload: a fixed header row
// followed by [time, humidity, temperature] rows. It marshals to the nested
// JSON arrays the dashboard chart consumes.
type ChartSeries [][3]any

// SeriesHeader is the fixed first row of every ChartSeries.
func SeriesHeader() [3]any {
	return [3]any{"Time", "Humidity", "Temperature"}
}

// MonthlyAverage is the scalar aggregate for one unit over one month.
type MonthlyAverage struct {
	UnitID      int     `json:"unit_ID"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
	AvgTemp     float64 `json:"avgTemp"`
	AvgHumidity float64 `json:"avgHumidity"`
}
