package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"humidity-server/internal/modules/settings/types"
)

//go:embed sql/list-settings.sql
var listSettingsSQL string

//go:embed sql/get-settings.sql
var getSettingsSQL string

//go:embed sql/insert-settings.sql
var insertSettingsSQL string

//go:embed sql/update-settings.sql
var updateSettingsSQL string

//go:embed sql/delete-settings.sql
var deleteSettingsSQL string

//go:embed sql/max-unit-id.sql
var maxUnitIDSQL string

var ErrNotFound = errors.New("settings not found")

var ErrAlreadyExists = errors.New("settings already exist")

type SettingsRepository interface {
	List(ctx context.Context) ([]types.Settings, error)
	Get(ctx context.Context, unitID int) (types.Settings, error)
	Create(ctx context.Context, s types.Settings) error
	Update(ctx context.Context, unitID int, in types.SettingsInput) error
	Delete(ctx context.Context, unitID int) error
	NextUnitID(ctx context.Context) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SettingsRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) List(ctx context.Context) ([]types.Settings, error) {
	rows, err := r.db.QueryContext(ctx, listSettingsSQL)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close settings rows", "error", err)
		}
	}()

	out := []types.Settings{}
	for rows.Next() {
		s, err := scanSettings(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Get(ctx context.Context, unitID int) (types.Settings, error) {
	s, err := scanSettings(r.db.QueryRowContext(ctx, getSettingsSQL, unitID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Settings{}, ErrNotFound
	}
	if err != nil {
		return types.Settings{}, fmt.Errorf("get settings unit %d: %w", unitID, err)
	}
	return s, nil
}

func (r *repositoryImpl) Create(ctx context.Context, s types.Settings) error {
	_, err := r.db.ExecContext(ctx, insertSettingsSQL,
		s.UnitID, s.HumidityHigh, s.HumidityLow, s.TempHigh, s.TempLow,
		s.WaterLevelHigh, s.WaterLevelLow,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create settings unit %d: %w", s.UnitID, err)
	}
	return nil
}

func (r *repositoryImpl) Update(ctx context.Context, unitID int, in types.SettingsInput) error {
	res, err := r.db.ExecContext(ctx, updateSettingsSQL,
		in.HumidityHigh, in.HumidityLow, in.TempHigh, in.TempLow,
		in.WaterLevelHigh, in.WaterLevelLow, unitID,
	)
	if err != nil {
		return fmt.Errorf("update settings unit %d: %w", unitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update settings unit %d: rows affected: %w", unitID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) Delete(ctx context.Context, unitID int) error {
	res, err := r.db.ExecContext(ctx, deleteSettingsSQL, unitID)
	if err != nil {
		return fmt.Errorf("delete settings unit %d: %w", unitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete settings unit %d: rows affected: %w", unitID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) NextUnitID(ctx context.Context) (int, error) {
	var maxID int
	if err := r.db.QueryRowContext(ctx, maxUnitIDSQL).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("next unit_ID: %w", err)
	}
	return maxID + 1, nil
}

func scanSettings(scan func(dest ...any) error) (types.Settings, error) {
	var (
		s  types.Settings
		hh sql.NullFloat64
		hl sql.NullFloat64
		th sql.NullFloat64
		tl sql.NullFloat64
		wh sql.NullFloat64
		wl sql.NullFloat64
	)
	if err := scan(&s.UnitID, &hh, &hl, &th, &tl, &wh, &wl); err != nil {
		return types.Settings{}, err
	}
	s.HumidityHigh = hh.Float64
	s.HumidityLow = hl.Float64
	s.TempHigh = th.Float64
	s.TempLow = tl.Float64
	s.WaterLevelHigh = wh.Float64
	s.WaterLevelLow = wl.Float64
	return s, nil
}
