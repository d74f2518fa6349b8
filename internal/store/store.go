// Package store persists completed workout records for later retrieval by
// the analytics engine.
package store

import (
	"context"
	"errors"
	"time"

	"backend-stride/internal/db"
	"backend-stride/internal/engine"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("workout not found")

// Workout is one persisted session summary.
type Workout struct {
	ID              string    `json:"id"`
	SessionRef      string    `json:"session_ref"`
	SportType       string    `json:"sport_type"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds int64     `json:"duration_seconds"`
	DistanceMeters  float64   `json:"distance_meters"`

	AveragePaceSecPerKm *float64 `json:"average_pace_sec_per_km,omitempty"`
	AverageSpeedKmH     *float64 `json:"average_speed_kmh,omitempty"`
	AverageHeartRate    *float64 `json:"average_heart_rate,omitempty"`
	MaxHeartRate        *float64 `json:"max_heart_rate,omitempty"`
	MinHeartRate        *float64 `json:"min_heart_rate,omitempty"`
	ElevationGain       *float64 `json:"elevation_gain,omitempty"`
	ElevationLoss       *float64 `json:"elevation_loss,omitempty"`
	Calories            *float64 `json:"calories,omitempty"`
	Cadence             *float64 `json:"cadence,omitempty"`

	DataSourceType  string    `json:"data_source_type"`
	ImportKind      string    `json:"import_kind,omitempty"`
	HealthWorkoutID string    `json:"health_workout_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Service struct {
	db db.Querier
}

func NewService(querier db.Querier) *Service {
	return &Service{db: querier}
}

const workoutColumns = `id, session_ref, sport_type, started_at, completed_at,
	duration_sec, distance_m, avg_pace_sec_per_km, avg_speed_kmh,
	avg_heart_rate, max_heart_rate, min_heart_rate,
	elevation_gain_m, elevation_loss_m, calories, cadence,
	data_source, import_kind, health_workout_id, created_at`

// SaveWorkout inserts the final metrics of a stopped session, keyed by the
// scheduled activity it fulfilled. Satisfies engine.WorkoutStore.
func (s *Service) SaveWorkout(ctx context.Context, sessionRef, sportType string, m engine.FinalMetrics) error {
	_, err := s.insert(ctx, sessionRef, sportType, m)
	return err
}

func (s *Service) insert(ctx context.Context, sessionRef, sportType string, m engine.FinalMetrics) (Workout, error) {
	w := Workout{
		ID:                  uuid.NewString(),
		SessionRef:          sessionRef,
		SportType:           sportType,
		StartedAt:           m.StartedAt,
		CompletedAt:         m.CompletedAt,
		DurationSeconds:     m.ActualDurationSeconds,
		DistanceMeters:      m.ActualDistanceMeters,
		AveragePaceSecPerKm: m.AveragePaceSecPerKm,
		AverageSpeedKmH:     m.AverageSpeedKmH,
		AverageHeartRate:    m.AverageHeartRate,
		MaxHeartRate:        m.MaxHeartRate,
		MinHeartRate:        m.MinHeartRate,
		ElevationGain:       m.ElevationGain,
		ElevationLoss:       m.ElevationLoss,
		Calories:            m.Calories,
		Cadence:             m.Cadence,
		DataSourceType:      m.DataSource.Type,
		ImportKind:          m.DataSource.ImportKind,
		HealthWorkoutID:     m.HealthWorkoutID,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO workouts (id, session_ref, sport_type, started_at, completed_at,
			duration_sec, distance_m, avg_pace_sec_per_km, avg_speed_kmh,
			avg_heart_rate, max_heart_rate, min_heart_rate,
			elevation_gain_m, elevation_loss_m, calories, cadence,
			data_source, import_kind, health_workout_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING created_at
	`, w.ID, w.SessionRef, w.SportType, w.StartedAt, w.CompletedAt,
		w.DurationSeconds, w.DistanceMeters, w.AveragePaceSecPerKm, w.AverageSpeedKmH,
		w.AverageHeartRate, w.MaxHeartRate, w.MinHeartRate,
		w.ElevationGain, w.ElevationLoss, w.Calories, w.Cadence,
		w.DataSourceType, w.ImportKind, w.HealthWorkoutID)
	if err := row.Scan(&w.CreatedAt); err != nil {
		return Workout{}, err
	}
	return w, nil
}

// ImportRequest is an externally recorded workout pushed from a health
// platform export.
type ImportRequest struct {
	SessionRef       string    `json:"session_ref"`
	SportType        string    `json:"sport_type"`
	Kind             string    `json:"kind"`
	HealthWorkoutID  string    `json:"health_workout_id"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	DurationSeconds  int64     `json:"duration_seconds"`
	DistanceMeters   float64   `json:"distance_meters"`
	AverageHeartRate *float64  `json:"average_heart_rate,omitempty"`
	Calories         *float64  `json:"calories,omitempty"`
	Cadence          *float64  `json:"cadence,omitempty"`
}

// Import stores a health-platform workout as a completed record with the
// imported data source.
func (s *Service) Import(ctx context.Context, req ImportRequest) (Workout, error) {
	if req.SessionRef == "" {
		return Workout{}, errors.New("session_ref required")
	}
	if req.DurationSeconds <= 0 {
		return Workout{}, errors.New("duration_seconds must be positive")
	}

	m := engine.FinalMetrics{
		ActualDurationSeconds: req.DurationSeconds,
		ActualDistanceMeters:  req.DistanceMeters,
		AverageHeartRate:      req.AverageHeartRate,
		Calories:              req.Calories,
		Cadence:               req.Cadence,
		DataSource:            engine.HealthImport(req.Kind),
		HealthWorkoutID:       req.HealthWorkoutID,
		StartedAt:             req.StartedAt,
		CompletedAt:           req.CompletedAt,
	}
	if m.HealthWorkoutID == "" {
		m.HealthWorkoutID = uuid.NewString()
	}
	return s.insert(ctx, req.SessionRef, req.SportType, m)
}

// Get returns one workout by id.
func (s *Service) Get(ctx context.Context, id string) (Workout, error) {
	row := s.db.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id=$1`, id)
	w, err := scanWorkout(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workout{}, ErrNotFound
	}
	return w, err
}

// List returns recent workouts, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Workout, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `SELECT `+workoutColumns+` FROM workouts ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func scanWorkout(row pgx.Row) (Workout, error) {
	var w Workout
	err := row.Scan(&w.ID, &w.SessionRef, &w.SportType, &w.StartedAt, &w.CompletedAt,
		&w.DurationSeconds, &w.DistanceMeters, &w.AveragePaceSecPerKm, &w.AverageSpeedKmH,
		&w.AverageHeartRate, &w.MaxHeartRate, &w.MinHeartRate,
		&w.ElevationGain, &w.ElevationLoss, &w.Calories, &w.Cadence,
		&w.DataSourceType, &w.ImportKind, &w.HealthWorkoutID, &w.CreatedAt)
	return w, err
}
