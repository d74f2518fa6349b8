package engine

import "time"

// Sample is one reading from the location/sensor stream. Altitude and heart
// rate are optional; a nil field leaves the matching aggregate untouched.
type Sample struct {
	Timestamp      time.Time `json:"timestamp"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	AltitudeM      *float64  `json:"altitude_m,omitempty"`
	AccuracyMeters float64   `json:"accuracy_meters"`
	HeartRate      *float64  `json:"heart_rate,omitempty"`
}

// Location is the last accepted position.
type Location struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Snapshot is the engine's observable state. Subscribers always receive a
// value copy; the engine owns the only mutable instance.
type Snapshot struct {
	Status     State  `json:"status"`
	SessionRef string `json:"session_ref,omitempty"`
	SportType  string `json:"sport_type,omitempty"`

	IsCountingDown   bool `json:"is_counting_down"`
	CountdownSeconds int  `json:"countdown_seconds"`

	StartedAt          *time.Time `json:"started_at,omitempty"`
	ElapsedSeconds     int64      `json:"elapsed_seconds"`
	PausedAt           *time.Time `json:"paused_at,omitempty"`
	TotalPausedSeconds int64      `json:"total_paused_seconds"`

	DistanceMeters      float64  `json:"distance_meters"`
	CurrentPaceSecPerKm *float64 `json:"current_pace_sec_per_km,omitempty"`
	AveragePaceSecPerKm *float64 `json:"average_pace_sec_per_km,omitempty"`
	AverageSpeedKmH     *float64 `json:"average_speed_kmh,omitempty"`

	ElevationGainM   float64  `json:"elevation_gain_m"`
	ElevationLossM   float64  `json:"elevation_loss_m"`
	CurrentAltitudeM *float64 `json:"current_altitude_m,omitempty"`

	GPSSignal    GPSSignal `json:"gps_signal"`
	LastLocation *Location `json:"last_location,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// clone deep-copies the snapshot so a broadcast value can never alias the
// engine's pointers.
func (s Snapshot) clone() Snapshot {
	out := s
	out.StartedAt = cloneTime(s.StartedAt)
	out.PausedAt = cloneTime(s.PausedAt)
	out.CurrentPaceSecPerKm = cloneFloat(s.CurrentPaceSecPerKm)
	out.AveragePaceSecPerKm = cloneFloat(s.AveragePaceSecPerKm)
	out.AverageSpeedKmH = cloneFloat(s.AverageSpeedKmH)
	out.CurrentAltitudeM = cloneFloat(s.CurrentAltitudeM)
	if s.LastLocation != nil {
		loc := *s.LastLocation
		out.LastLocation = &loc
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func idleSnapshot() Snapshot {
	return Snapshot{Status: StateIdle, GPSSignal: GPSSignal{Tier: TierNone}}
}

// Data source types for completed workouts.
const (
	SourceLiveTracking = "live_tracking"
	SourceHealthImport = "health_import"
)

// DataSource records where a completed workout came from.
type DataSource struct {
	Type       string `json:"type"`
	ImportKind string `json:"import_kind,omitempty"`
}

// LiveTracking is the data source of sessions recorded by this engine.
func LiveTracking() DataSource {
	return DataSource{Type: SourceLiveTracking}
}

// HealthImport is the data source of workouts ingested from an external
// health platform, tagged with the platform's workout kind.
func HealthImport(kind string) DataSource {
	return DataSource{Type: SourceHealthImport, ImportKind: kind}
}

// FinalMetrics is the immutable summary of a stopped session. Optional
// fields stay nil when the underlying sensor never reported.
type FinalMetrics struct {
	ActualDurationSeconds int64      `json:"actual_duration_seconds"`
	ActualDistanceMeters  float64    `json:"actual_distance_meters"`
	AveragePaceSecPerKm   *float64   `json:"average_pace_sec_per_km,omitempty"`
	AverageSpeedKmH       *float64   `json:"average_speed_kmh,omitempty"`
	AverageHeartRate      *float64   `json:"average_heart_rate,omitempty"`
	MaxHeartRate          *float64   `json:"max_heart_rate,omitempty"`
	MinHeartRate          *float64   `json:"min_heart_rate,omitempty"`
	ElevationGain         *float64   `json:"elevation_gain,omitempty"`
	ElevationLoss         *float64   `json:"elevation_loss,omitempty"`
	Calories              *float64   `json:"calories,omitempty"`
	Cadence               *float64   `json:"cadence,omitempty"`
	DataSource            DataSource `json:"data_source"`
	HealthWorkoutID       string     `json:"health_workout_id,omitempty"`
	StartedAt             time.Time  `json:"started_at"`
	CompletedAt           time.Time  `json:"completed_at"`
}
