package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"humidity-server/internal/modules/board/types"
)

//go:embed sql/get-current.sql
var getCurrentSQL string

//go:embed sql/upsert-current.sql
var upsertCurrentSQL string

//go:embed sql/append-history.sql
var appendHistorySQL string

//go:embed sql/query-history.sql
var queryHistorySQL string

//go:embed sql/create-board.sql
var createBoardSQL string

//go:embed sql/count-history.sql
var countHistorySQL string

//go:embed sql/delete-board.sql
var deleteBoardSQL string

// ErrNotFound is returned when a unit has no current-state row.
var ErrNotFound = errors.New("board not found")

// ErrAlreadyExists is returned when provisioning a unit that already exists.
var ErrAlreadyExists = errors.New("board already exists")

// BoardRepository is the sole writer of board current-state and history rows.
// Current state and history are independent: deleting a board keeps its
// history.
type BoardRepository interface {
	GetCurrent(ctx context.Context, unitID int) (types.BoardState, error)
	UpsertCurrent(ctx context.Context, state types.BoardState, now time.Time) error
	AppendHistory(ctx context.Context, state types.BoardState, now time.Time) error
	QueryHistory(ctx context.Context, unitID int, from, to time.Time) ([]types.HistoryEntry, error)
	CreateBoard(ctx context.Context, unitID int, now time.Time) error
	DeleteBoard(ctx context.Context, unitID int) error
	CountHistory(ctx context.Context, unitID int) (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) BoardRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetCurrent(ctx context.Context, unitID int) (types.BoardState, error) {
	var (
		s       types.BoardState
		created string
		updated string
	)
	err := r.db.QueryRowContext(ctx, getCurrentSQL, unitID).Scan(
		&s.UnitID, &s.Temperature, &s.Humidity, &s.WaterLevel,
		&s.ExternalPower, &s.UPSState, &s.X, &s.Y, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.BoardState{}, ErrNotFound
	}
	if err != nil {
		return types.BoardState{}, fmt.Errorf("get current unit %d: %w", unitID, err)
	}
	if s.CreatedAt, err = parseTimestamp(created); err != nil {
		return types.BoardState{}, err
	}
	if s.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return types.BoardState{}, err
	}
	return s, nil
}

func (r *repositoryImpl) UpsertCurrent(ctx context.Context, state types.BoardState, now time.Time) error {
	res, err := r.db.ExecContext(ctx, upsertCurrentSQL,
		state.Temperature, state.Humidity, state.WaterLevel,
		state.ExternalPower, state.UPSState, state.X, state.Y,
		formatTimestamp(now), state.UnitID,
	)
	if err != nil {
		return fmt.Errorf("upsert current unit %d: %w", state.UnitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert current unit %d: rows affected: %w", state.UnitID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) AppendHistory(ctx context.Context, state types.BoardState, now time.Time) error {
	_, err := r.db.ExecContext(ctx, appendHistorySQL,
		state.UnitID, state.Temperature, state.Humidity, state.WaterLevel,
		state.ExternalPower, state.UPSState, state.X, state.Y,
		formatTimestamp(now),
	)
	if err != nil {
		return fmt.Errorf("append history unit %d: %w", state.UnitID, err)
	}
	return nil
}

func (r *repositoryImpl) QueryHistory(ctx context.Context, unitID int, from, to time.Time) ([]types.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, queryHistorySQL, unitID, formatTimestamp(from), formatTimestamp(to))
	if err != nil {
		return nil, fmt.Errorf("query history unit %d: %w", unitID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close history rows", "error", err)
		}
	}()

	out := []types.HistoryEntry{}
	for rows.Next() {
		var (
			e  types.HistoryEntry
			t  sql.NullFloat64
			h  sql.NullFloat64
			w  sql.NullFloat64
			eb sql.NullInt64
			up sql.NullInt64
			x  sql.NullInt64
			y  sql.NullInt64
			ts string
		)
		if err := rows.Scan(&e.UnitID, &t, &h, &w, &eb, &up, &x, &y, &ts); err != nil {
			return nil, err
		}
		e.Temperature = t.Float64
		e.Humidity = h.Float64
		e.WaterLevel = w.Float64
		e.ExternalPower = int(eb.Int64)
		e.UPSState = int(up.Int64)
		e.X = int(x.Int64)
		e.Y = int(y.Int64)
		if e.CreatedAt, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) CreateBoard(ctx context.Context, unitID int, now time.Time) error {
	ts := formatTimestamp(now)
	_, err := r.db.ExecContext(ctx, createBoardSQL, unitID, ts, ts)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create board %d: %w", unitID, err)
	}
	return nil
}

func (r *repositoryImpl) DeleteBoard(ctx context.Context, unitID int) error {
	res, err := r.db.ExecContext(ctx, deleteBoardSQL, unitID)
	if err != nil {
		return fmt.Errorf("delete board %d: %w", unitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete board %d: rows affected: %w", unitID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repositoryImpl) CountHistory(ctx context.Context, unitID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countHistorySQL, unitID).Scan(&n)
	return n, err
}

// timestampLayout is fixed-width: RFC3339Nano drops trailing fraction zeros,
// which breaks lexicographic TEXT comparison in the history window query
// (".5Z" sorts after ".52Z", and ".5Z" sorts before "Z" on the same second).
// With every digit always present, text order equals chronological order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var err2 error
		t, err2 = time.Parse(time.RFC3339, s)
		if err2 != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", s, err, err2)
		}
	}
	return t, nil
}
