package types

// Settings holds the alerting thresholds configured for one unit.
type Settings struct {
	UnitID         int     `json:"unit_ID"`
	HumidityHigh   float64 `json:"humidity_high"`
	HumidityLow    float64 `json:"humidity_low"`
	TempHigh       float64 `json:"temp_high"`
	TempLow        float64 `json:"temp_low"`
	WaterLevelHigh float64 `json:"water_level_high"`
	WaterLevelLow  float64 `json:"water_level_low"`
}

// SettingsInput carries a partial threshold update; nil fields are left
// unchanged.
type SettingsInput struct {
	HumidityHigh   *float64
	HumidityLow    *float64
	TempHigh       *float64
	TempLow        *float64
	WaterLevelHigh *float64
	WaterLevelLow  *float64
}
