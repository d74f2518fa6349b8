package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-stride/internal/engine"

	"github.com/pashagolub/pgxmock/v3"
)

func floatPtr(v float64) *float64 { return &v }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestSaveWorkoutInserts(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	started := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	completed := started.Add(30 * time.Minute)
	metrics := engine.FinalMetrics{
		ActualDurationSeconds: 1800,
		ActualDistanceMeters:  5000,
		AveragePaceSecPerKm:   floatPtr(360),
		AverageSpeedKmH:       floatPtr(10),
		AverageHeartRate:      floatPtr(150),
		MaxHeartRate:          floatPtr(172),
		MinHeartRate:          floatPtr(121),
		DataSource:            engine.LiveTracking(),
		StartedAt:             started,
		CompletedAt:           completed,
	}

	mock.ExpectQuery(`INSERT INTO workouts`).
		WithArgs(pgxmock.AnyArg(), "morning-run", "running", started, completed,
			int64(1800), 5000.0, metrics.AveragePaceSecPerKm, metrics.AverageSpeedKmH,
			metrics.AverageHeartRate, metrics.MaxHeartRate, metrics.MinHeartRate,
			(*float64)(nil), (*float64)(nil), (*float64)(nil), (*float64)(nil),
			"live_tracking", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(completed))

	if err := svc.SaveWorkout(context.Background(), "morning-run", "running", metrics); err != nil {
		t.Fatalf("SaveWorkout: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveWorkoutPropagatesDBError(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`INSERT INTO workouts`).
		WillReturnError(errors.New("connection reset"))

	err := svc.SaveWorkout(context.Background(), "morning-run", "running", engine.FinalMetrics{})
	if err == nil {
		t.Fatalf("expected error from failed insert")
	}
}

func TestImportValidates(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	if _, err := svc.Import(context.Background(), ImportRequest{DurationSeconds: 60}); err == nil {
		t.Fatalf("expected session_ref validation error")
	}
	if _, err := svc.Import(context.Background(), ImportRequest{SessionRef: "ref"}); err == nil {
		t.Fatalf("expected duration validation error")
	}
}

func TestImportStoresHealthSource(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	started := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	completed := started.Add(45 * time.Minute)

	mock.ExpectQuery(`INSERT INTO workouts`).
		WithArgs(pgxmock.AnyArg(), "club-ride", "cycling", started, completed,
			int64(2700), 15000.0, (*float64)(nil), (*float64)(nil),
			floatPtr(140), (*float64)(nil), (*float64)(nil),
			(*float64)(nil), (*float64)(nil), floatPtr(600), (*float64)(nil),
			"health_import", "automatic", "hk-9").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(completed))

	w, err := svc.Import(context.Background(), ImportRequest{
		SessionRef:       "club-ride",
		SportType:        "cycling",
		Kind:             "automatic",
		HealthWorkoutID:  "hk-9",
		StartedAt:        started,
		CompletedAt:      completed,
		DurationSeconds:  2700,
		DistanceMeters:   15000,
		AverageHeartRate: floatPtr(140),
		Calories:         floatPtr(600),
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if w.DataSourceType != "health_import" || w.ImportKind != "automatic" {
		t.Fatalf("unexpected data source %q/%q", w.DataSourceType, w.ImportKind)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	mock.ExpectQuery(`SELECT .+ FROM workouts WHERE id`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReturnsWorkouts(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock)

	started := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	completed := started.Add(time.Hour)
	rows := pgxmock.NewRows([]string{
		"id", "session_ref", "sport_type", "started_at", "completed_at",
		"duration_sec", "distance_m", "avg_pace_sec_per_km", "avg_speed_kmh",
		"avg_heart_rate", "max_heart_rate", "min_heart_rate",
		"elevation_gain_m", "elevation_loss_m", "calories", "cadence",
		"data_source", "import_kind", "health_workout_id", "created_at",
	}).AddRow(
		"w1", "morning-run", "running", started, completed,
		int64(3600), 10000.0, floatPtr(360), floatPtr(10),
		nil, nil, nil,
		nil, nil, nil, nil,
		"live_tracking", "", "hk-1", completed,
	)

	mock.ExpectQuery(`SELECT .+ FROM workouts ORDER BY completed_at DESC`).
		WithArgs(50).
		WillReturnRows(rows)

	workouts, err := svc.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(workouts) != 1 || workouts[0].ID != "w1" {
		t.Fatalf("unexpected workouts %+v", workouts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
