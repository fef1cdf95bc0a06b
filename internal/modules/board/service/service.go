package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"humidity-server/internal/clock"
	"humidity-server/internal/modules/board/repository"
	"humidity-server/internal/modules/board/types"
	"humidity-server/internal/observability"
)

// Broadcaster delivers a freshly computed chart series to every live
// subscriber of a unit. Implemented by the websocket hub.
type Broadcaster interface {
	HasSubscribers(unitID int) bool
	Broadcast(unitID int, series types.ChartSeries)
}

type Service struct {
	repository  repository.BoardRepository
	broadcaster Broadcaster
	metrics     *observability.Metrics
	now         func() time.Time

	// locks serializes ingests per unit so current state always reflects the
	// most recently completed ingest and history preserves submission order.
	// Different units proceed in parallel.
	locksMu sync.Mutex
	locks   map[int]*sync.Mutex
}

func NewService(repo repository.BoardRepository, broadcaster Broadcaster, metrics *observability.Metrics) *Service {
	return &Service{
		repository:  repo,
		broadcaster: broadcaster,
		metrics:     metrics,
		now:         time.Now,
		locks:       make(map[int]*sync.Mutex),
	}
}

// SetNow overrides the wall clock for tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

func (s *Service) unitLock(unitID int) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[unitID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[unitID] = mu
	}
	return mu
}

// Ingest validates and persists one board reading, then fans the refreshed
// live chart out to the unit's subscribers. Absent sensor fields keep the
// unit's current stored value; absent X and Y default to 1. The reading is
// stamped with the server clock; client timestamps are not trusted.
//
// The dual write is two calls against the store: when the history append
// fails after the current-state update succeeded, the inconsistency is
// surfaced as ErrPartialPersist. A broadcast failure never fails the ingest.
func (s *Service) Ingest(ctx context.Context, unitID int, in types.ReadingInput) (types.BoardState, error) {
	if unitID <= 0 {
		s.metrics.IngestsTotal.WithLabelValues("invalid_unit").Inc()
		return types.BoardState{}, ErrInvalidUnit
	}

	mu := s.unitLock(unitID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.repository.GetCurrent(ctx, unitID)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.IngestsTotal.WithLabelValues("unit_not_found").Inc()
		return types.BoardState{}, ErrUnitNotFound
	}
	if err != nil {
		s.metrics.IngestsTotal.WithLabelValues("storage_error").Inc()
		return types.BoardState{}, err
	}

	resolved := resolve(current, in)
	now := s.now()

	if err := s.repository.UpsertCurrent(ctx, resolved, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IngestsTotal.WithLabelValues("unit_not_found").Inc()
			return types.BoardState{}, ErrUnitNotFound
		}
		s.metrics.IngestsTotal.WithLabelValues("storage_error").Inc()
		return types.BoardState{}, err
	}
	if err := s.repository.AppendHistory(ctx, resolved, now); err != nil {
		s.metrics.IngestsTotal.WithLabelValues("partial_persist").Inc()
		return types.BoardState{}, fmt.Errorf("%w: unit %d: %v", ErrPartialPersist, unitID, err)
	}
	resolved.UpdatedAt = now

	s.broadcastLive(ctx, unitID, now)

	s.metrics.IngestsTotal.WithLabelValues("ok").Inc()
	return resolved, nil
}

// broadcastLive recomputes the live-window series and hands it to the hub.
// The series is only computed when at least one subscriber exists.
func (s *Service) broadcastLive(ctx context.Context, unitID int, now time.Time) {
	if s.broadcaster == nil || !s.broadcaster.HasSubscribers(unitID) {
		return
	}
	from, to := clock.LiveWindow(now)
	series, err := s.ChartSeries(ctx, unitID, from, to)
	if err != nil {
		slog.Error("live series recompute failed", "unit_ID", unitID, "error", err)
		return
	}
	s.broadcaster.Broadcast(unitID, series)
	s.metrics.BroadcastsTotal.Inc()
}

func resolve(current types.BoardState, in types.ReadingInput) types.BoardState {
	out := current
	if in.Temperature != nil {
		out.Temperature = *in.Temperature
	}
	if in.Humidity != nil {
		out.Humidity = *in.Humidity
	}
	if in.WaterLevel != nil {
		out.WaterLevel = *in.WaterLevel
	}
	if in.ExternalPower != nil {
		out.ExternalPower = *in.ExternalPower
	}
	if in.UPSState != nil {
		out.UPSState = *in.UPSState
	}
	out.X, out.Y = 1, 1
	if in.X != nil {
		out.X = *in.X
	}
	if in.Y != nil {
		out.Y = *in.Y
	}
	return out
}

// Provision creates the current-state row for a new unit with zero defaults.
func (s *Service) Provision(ctx context.Context, unitID int) error {
	if unitID <= 0 {
		return ErrInvalidUnit
	}
	err := s.repository.CreateBoard(ctx, unitID, s.now())
	if errors.Is(err, repository.ErrAlreadyExists) {
		return ErrAlreadyExists
	}
	return err
}

// Decommission removes a unit's current-state row. History is retained.
func (s *Service) Decommission(ctx context.Context, unitID int) error {
	err := s.repository.DeleteBoard(ctx, unitID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnitNotFound
	}
	return err
}

// Current returns the unit's latest known reading.
func (s *Service) Current(ctx context.Context, unitID int) (types.BoardState, error) {
	state, err := s.repository.GetCurrent(ctx, unitID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.BoardState{}, ErrUnitNotFound
	}
	return state, err
}
