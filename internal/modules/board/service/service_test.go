package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"humidity-server/internal/clock"
	"humidity-server/internal/modules/board/repository"
	"humidity-server/internal/modules/board/types"
	"humidity-server/internal/observability"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

type mockRepository struct {
	current map[int]types.BoardState
	history []types.HistoryEntry

	getCurrentErr    error
	upsertCurrentErr error
	appendHistoryErr error
	queryHistoryErr  error
	queryCalls       int
}

func newMockRepository() *mockRepository {
	return &mockRepository{current: make(map[int]types.BoardState)}
}

func (m *mockRepository) GetCurrent(_ context.Context, unitID int) (types.BoardState, error) {
	if m.getCurrentErr != nil {
		return types.BoardState{}, m.getCurrentErr
	}
	state, ok := m.current[unitID]
	if !ok {
		return types.BoardState{}, repository.ErrNotFound
	}
	return state, nil
}

func (m *mockRepository) UpsertCurrent(_ context.Context, state types.BoardState, now time.Time) error {
	if m.upsertCurrentErr != nil {
		return m.upsertCurrentErr
	}
	if _, ok := m.current[state.UnitID]; !ok {
		return repository.ErrNotFound
	}
	state.UpdatedAt = now
	m.current[state.UnitID] = state
	return nil
}

func (m *mockRepository) AppendHistory(_ context.Context, state types.BoardState, now time.Time) error {
	if m.appendHistoryErr != nil {
		return m.appendHistoryErr
	}
	m.history = append(m.history, types.HistoryEntry{
		UnitID:        state.UnitID,
		Temperature:   state.Temperature,
		Humidity:      state.Humidity,
		WaterLevel:    state.WaterLevel,
		ExternalPower: state.ExternalPower,
		UPSState:      state.UPSState,
		X:             state.X,
		Y:             state.Y,
		CreatedAt:     now,
	})
	return nil
}

func (m *mockRepository) QueryHistory(_ context.Context, unitID int, from, to time.Time) ([]types.HistoryEntry, error) {
	m.queryCalls++
	if m.queryHistoryErr != nil {
		return nil, m.queryHistoryErr
	}
	var out []types.HistoryEntry
	for _, e := range m.history {
		if e.UnitID != unitID {
			continue
		}
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockRepository) CreateBoard(_ context.Context, unitID int, now time.Time) error {
	if _, ok := m.current[unitID]; ok {
		return repository.ErrAlreadyExists
	}
	m.current[unitID] = types.BoardState{UnitID: unitID, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (m *mockRepository) DeleteBoard(_ context.Context, unitID int) error {
	if _, ok := m.current[unitID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.current, unitID)
	return nil
}

func (m *mockRepository) CountHistory(_ context.Context, unitID int) (int, error) {
	n := 0
	for _, e := range m.history {
		if e.UnitID == unitID {
			n++
		}
	}
	return n, nil
}

type mockBroadcaster struct {
	hasSubscribers bool
	broadcasts     []types.ChartSeries
}

func (m *mockBroadcaster) HasSubscribers(int) bool { return m.hasSubscribers }

func (m *mockBroadcaster) Broadcast(_ int, series types.ChartSeries) {
	m.broadcasts = append(m.broadcasts, series)
}

func newTestService(repo repository.BoardRepository, b Broadcaster) *Service {
	return NewService(repo, b, observability.NopMetrics())
}

func TestIngestRejectsInvalidUnit(t *testing.T) {
	svc := newTestService(newMockRepository(), nil)

	for _, unitID := range []int{0, -1} {
		_, err := svc.Ingest(context.Background(), unitID, types.ReadingInput{})
		if !errors.Is(err, ErrInvalidUnit) {
			t.Errorf("unit %d: got %v, want ErrInvalidUnit", unitID, err)
		}
	}
}

func TestIngestUnknownUnitLeavesNoHistory(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)

	_, err := svc.Ingest(context.Background(), 42, types.ReadingInput{Temperature: f64(21)})
	if !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("got %v, want ErrUnitNotFound", err)
	}
	if len(repo.history) != 0 {
		t.Errorf("history has %d rows, want 0", len(repo.history))
	}
}

func TestIngestDefaultsFromCurrentState(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{
		UnitID: 7, Temperature: 24.5, Humidity: 61, WaterLevel: 3,
		ExternalPower: 1, UPSState: 1, X: 5, Y: 9,
	}
	svc := newTestService(repo, nil)

	state, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Humidity: f64(70)})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if state.Humidity != 70 {
		t.Errorf("humidity = %v, want 70", state.Humidity)
	}
	if state.Temperature != 24.5 || state.WaterLevel != 3 || state.ExternalPower != 1 || state.UPSState != 1 {
		t.Errorf("sensor defaults not carried from current state: %+v", state)
	}
	// X and Y do not inherit the stored value; absent means 1.
	if state.X != 1 || state.Y != 1 {
		t.Errorf("x/y = %d/%d, want 1/1", state.X, state.Y)
	}
}

func TestIngestKeepsExplicitXY(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	svc := newTestService(repo, nil)

	state, err := svc.Ingest(context.Background(), 7, types.ReadingInput{X: i(3), Y: i(4)})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if state.X != 3 || state.Y != 4 {
		t.Errorf("x/y = %d/%d, want 3/4", state.X, state.Y)
	}
}

func TestIngestAppendsOneHistoryRowPerCall(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	svc := newTestService(repo, nil)

	for n := 1; n <= 3; n++ {
		if _, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(float64(n))}); err != nil {
			t.Fatalf("ingest %d: %v", n, err)
		}
		if len(repo.history) != n {
			t.Fatalf("after ingest %d: history has %d rows", n, len(repo.history))
		}
	}
}

func TestIngestPartialPersist(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	repo.appendHistoryErr = errors.New("disk full")
	svc := newTestService(repo, nil)

	_, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(30)})
	if !errors.Is(err, ErrPartialPersist) {
		t.Fatalf("got %v, want ErrPartialPersist", err)
	}
	// The current-state write went through before the history append failed.
	if repo.current[7].Temperature != 30 {
		t.Errorf("current temperature = %v, want 30", repo.current[7].Temperature)
	}
}

func TestIngestSkipsSeriesWithoutSubscribers(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	b := &mockBroadcaster{hasSubscribers: false}
	svc := newTestService(repo, b)

	if _, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(20)}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(b.broadcasts) != 0 {
		t.Errorf("broadcasts = %d, want 0", len(b.broadcasts))
	}
	// One QueryHistory call would mean the series was computed anyway.
	if repo.queryCalls != 0 {
		t.Errorf("history queried %d times with no subscribers, want 0", repo.queryCalls)
	}
}

func TestIngestBroadcastsToSubscribers(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	b := &mockBroadcaster{hasSubscribers: true}
	svc := newTestService(repo, b)
	svc.SetNow(func() time.Time {
		return time.Date(2025, 6, 10, 16, 0, 0, 0, clock.IST)
	})

	if _, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(22), Humidity: f64(55)}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(b.broadcasts) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(b.broadcasts))
	}
	series := b.broadcasts[0]
	if len(series) != 2 {
		t.Fatalf("series has %d rows, want header + 1", len(series))
	}
	if series[0] != types.SeriesHeader() {
		t.Errorf("header = %v", series[0])
	}
	if series[1][1] != 55.0 || series[1][2] != 22.0 {
		t.Errorf("data row = %v, want [_, 55, 22]", series[1])
	}
}

func TestIngestSeriesFailureDoesNotFailIngest(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	repo.queryHistoryErr = errors.New("query failed")
	b := &mockBroadcaster{hasSubscribers: true}
	svc := newTestService(repo, b)

	if _, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(22)}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(b.broadcasts) != 0 {
		t.Errorf("broadcasts = %d, want 0", len(b.broadcasts))
	}
}

func TestChartSeriesIdempotent(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	svc := newTestService(repo, nil)
	now := time.Date(2025, 6, 10, 16, 0, 0, 0, clock.IST)
	svc.SetNow(func() time.Time { return now })

	for _, temp := range []float64{20, 21, 22} {
		if _, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(temp)}); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	first, err := svc.LiveSeries(context.Background(), 7)
	if err != nil {
		t.Fatalf("first series: %v", err)
	}
	second, err := svc.LiveSeries(context.Background(), 7)
	if err != nil {
		t.Fatalf("second series: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for r := range first {
		if first[r] != second[r] {
			t.Errorf("row %d differs: %v vs %v", r, first[r], second[r])
		}
	}
}

func TestChartSeriesTimeFormat(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	svc := newTestService(repo, nil)
	now := time.Date(2025, 6, 10, 10, 30, 0, 0, time.UTC)
	svc.SetNow(func() time.Time { return now })

	if _, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(22)}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	series, err := svc.LiveSeries(context.Background(), 7)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("series has %d rows, want 2", len(series))
	}
	got, ok := series[1][0].(string)
	if !ok {
		t.Fatalf("timestamp cell is %T, want string", series[1][0])
	}
	// 10:30 UTC is 16:00 IST.
	want := "2025-06-10T16:00:00+05:30"
	if got != want {
		t.Errorf("timestamp = %q, want %q", got, want)
	}
}

func TestMonthlyAverage(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	svc := newTestService(repo, nil)

	base := time.Date(2025, 6, 5, 12, 0, 0, 0, clock.IST)
	for n, r := range []struct{ temp, hum float64 }{{20, 50}, {30, 70}} {
		svc.SetNow(func() time.Time { return base.Add(time.Duration(n) * time.Hour) })
		if _, err := svc.Ingest(context.Background(), 7, types.ReadingInput{Temperature: f64(r.temp), Humidity: f64(r.hum)}); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}

	avg, err := svc.MonthlyAverage(context.Background(), 7, time.June, 2025)
	if err != nil {
		t.Fatalf("monthly average: %v", err)
	}
	if avg.AvgTemp != 25 || avg.AvgHumidity != 60 {
		t.Errorf("avg = %v/%v, want 25/60", avg.AvgTemp, avg.AvgHumidity)
	}
	if avg.Month != 6 || avg.Year != 2025 || avg.UnitID != 7 {
		t.Errorf("identity fields wrong: %+v", avg)
	}
}

func TestMonthlyAverageNoData(t *testing.T) {
	repo := newMockRepository()
	repo.current[7] = types.BoardState{UnitID: 7}
	svc := newTestService(repo, nil)

	_, err := svc.MonthlyAverage(context.Background(), 7, time.January, 2025)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}

func TestProvisionAndDecommission(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if err := svc.Provision(ctx, 9); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if err := svc.Provision(ctx, 9); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second provision: got %v, want ErrAlreadyExists", err)
	}
	if err := svc.Provision(ctx, 0); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("provision unit 0: got %v, want ErrInvalidUnit", err)
	}

	if _, err := svc.Ingest(ctx, 9, types.ReadingInput{Temperature: f64(25)}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if err := svc.Decommission(ctx, 9); err != nil {
		t.Fatalf("decommission: %v", err)
	}
	if err := svc.Decommission(ctx, 9); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("second decommission: got %v, want ErrUnitNotFound", err)
	}
	// History outlives the unit.
	if n, _ := repo.CountHistory(ctx, 9); n != 1 {
		t.Errorf("history rows after decommission = %d, want 1", n)
	}
}
