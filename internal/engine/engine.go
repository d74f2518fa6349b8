package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrInvalidTransition is returned when an operation is not legal in
	// the current lifecycle state.
	ErrInvalidTransition = errors.New("invalid session state transition")
	// ErrNoActiveSession is returned by operations that need a session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSessionActive is returned when a new countdown is requested while
	// a previous session is still being finished.
	ErrSessionActive = errors.New("a session is still active")
	// ErrSaveFailed wraps persistence errors from Stop. The session stays
	// in the summary state so the caller can retry or discard.
	ErrSaveFailed = errors.New("failed to save workout")
)

// SampleFunc receives samples from the sensor stream.
type SampleFunc func(Sample)

// SensorProvider is the location/sensor stream collaborator.
type SensorProvider interface {
	// Subscribe registers the callback and returns an unsubscribe func.
	Subscribe(fn SampleFunc) (func(), error)
	// Pause and Resume are forwarded on every engine pause/resume call,
	// including repeats, so collaborators may count them.
	Pause()
	Resume()
	// CurrentAccuracy reports the latest fix accuracy in meters. An error
	// means no usable fix.
	CurrentAccuracy() (float64, error)
}

// BatteryProvider reports the device battery as a fraction in [0,1].
type BatteryProvider interface {
	Level() (float64, error)
}

// WorkoutStore persists the final metrics of a stopped session.
type WorkoutStore interface {
	SaveWorkout(ctx context.Context, sessionRef, sportType string, m FinalMetrics) error
}

// Notifier surfaces human-readable failures to the user.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Config tunes the countdown and tick cadence.
type Config struct {
	CountdownSeconds int
	TickInterval     time.Duration
	// SettleDelay is the short deferral between the final countdown tick
	// and the transition into tracking.
	SettleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.CountdownSeconds <= 0 {
		c.CountdownSeconds = 3
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 50 * time.Millisecond
	}
	return c
}

// Deps are the engine's collaborators. Sensors is required; the rest may be
// nil and the matching behavior is skipped.
type Deps struct {
	Sensors  SensorProvider
	Store    WorkoutStore
	Notifier Notifier

	Scheduler Scheduler        // defaults to the wall clock
	Now       func() time.Time // defaults to time.Now
}

// Engine owns the lifecycle of a single live-tracked activity. One mutex
// serializes every mutation (commands, timer ticks, sample callbacks), and a
// generation counter fences scheduled continuations so a timer firing after
// cancellation can never apply its effect.
type Engine struct {
	mu   sync.Mutex
	cfg  Config
	deps Deps

	snap Snapshot
	gen  uint64

	cancelTimer  func()
	unsubSensors func()
	final        *FinalMetrics
	finalRef     string
	finalSport   string

	// live aggregation accumulators, reset per session
	hrSum, hrMax, hrMin float64
	hrCount             int
	altitudeSeen        bool
	lastSampleAt        time.Time
	hasLastSample       bool

	observers    map[int]Observer
	nextObserver int
}

// New builds an idle engine.
func New(cfg Config, deps Deps) *Engine {
	if deps.Scheduler == nil {
		deps.Scheduler = NewScheduler()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Engine{
		cfg:       cfg.withDefaults(),
		deps:      deps,
		snap:      idleSnapshot(),
		observers: map[int]Observer{},
	}
}

// Snapshot returns a copy of the current observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.clone()
}

// StartCountdown begins the pre-start countdown for the given scheduled
// activity. A countdown or tracking session already in flight is preserved
// untouched; any other non-idle state rejects the request.
func (e *Engine) StartCountdown(sessionRef, sportType string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.snap.Status {
	case StateCountdown, StateTracking:
		return nil
	case StateIdle:
	default:
		return fmt.Errorf("%w: cannot start from %s", ErrSessionActive, e.snap.Status)
	}

	e.gen++
	gen := e.gen
	e.resetSessionLocked()
	e.snap.Status = StateCountdown
	e.snap.SessionRef = sessionRef
	e.snap.SportType = sportType
	e.snap.IsCountingDown = true
	e.snap.CountdownSeconds = e.cfg.CountdownSeconds
	e.broadcastLocked()
	e.cancelTimer = e.deps.Scheduler.AfterFunc(e.cfg.TickInterval, func() {
		e.countdownTick(gen)
	})
	return nil
}

// CancelCountdown aborts a pending countdown and returns to idle. The
// generation bump guarantees the sensor-start continuation is never applied,
// even when the final tick already fired.
func (e *Engine) CancelCountdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap.Status != StateCountdown {
		return fmt.Errorf("%w: cancel countdown from %s", ErrInvalidTransition, e.snap.Status)
	}
	e.gen++
	e.cancelTimerLocked()
	e.snap = idleSnapshot()
	e.broadcastLocked()
	return nil
}

func (e *Engine) countdownTick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || e.snap.Status != StateCountdown {
		return
	}
	e.snap.CountdownSeconds--
	if e.snap.CountdownSeconds > 0 {
		e.broadcastLocked()
		e.cancelTimer = e.deps.Scheduler.AfterFunc(e.cfg.TickInterval, func() {
			e.countdownTick(gen)
		})
		return
	}
	e.snap.CountdownSeconds = 0
	e.broadcastLocked()
	// Let state settle before flipping into tracking.
	e.cancelTimer = e.deps.Scheduler.AfterFunc(e.cfg.SettleDelay, func() {
		e.beginTracking(gen)
	})
}

func (e *Engine) beginTracking(gen uint64) {
	e.mu.Lock()

	if gen != e.gen || e.snap.Status != StateCountdown {
		e.mu.Unlock()
		return
	}

	unsub, err := e.deps.Sensors.Subscribe(func(s Sample) {
		e.ingest(gen, s)
	})
	if err != nil {
		e.gen++
		msg := "failed to start activity: " + err.Error()
		e.snap = idleSnapshot()
		e.snap.Error = msg
		e.broadcastLocked()
		e.mu.Unlock()
		if e.deps.Notifier != nil {
			e.deps.Notifier.Notify(context.Background(), msg)
		}
		return
	}

	now := e.deps.Now()
	e.unsubSensors = unsub
	e.snap.Status = StateTracking
	e.snap.IsCountingDown = false
	e.snap.StartedAt = &now
	e.broadcastLocked()
	e.cancelTimer = e.deps.Scheduler.AfterFunc(e.cfg.TickInterval, func() {
		e.elapsedTick(gen)
	})
	e.mu.Unlock()
}

func (e *Engine) elapsedTick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return
	}
	switch e.snap.Status {
	case StateTracking, StatePaused, StateAutoPaused:
	default:
		return
	}
	e.snap.ElapsedSeconds = e.elapsedLocked(e.deps.Now())
	e.broadcastLocked()
	e.cancelTimer = e.deps.Scheduler.AfterFunc(e.cfg.TickInterval, func() {
		e.elapsedTick(gen)
	})
}

// Pause freezes the aggregation window. A pause while already paused keeps
// observable state unchanged but is still forwarded to the sensor provider,
// which counts calls.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.snap.Status {
	case StateTracking:
		e.deps.Sensors.Pause()
		now := e.deps.Now()
		e.snap.PausedAt = &now
		e.snap.Status = StatePaused
		e.snap.ElapsedSeconds = e.elapsedLocked(now)
		e.broadcastLocked()
		return nil
	case StatePaused:
		e.deps.Sensors.Pause()
		return nil
	default:
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, e.snap.Status)
	}
}

// Resume unfreezes the aggregation window and re-anchors distance so the
// paused gap is never counted.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.snap.Status {
	case StatePaused:
		e.deps.Sensors.Resume()
		e.resumeLocked()
		return nil
	case StateTracking:
		e.deps.Sensors.Resume()
		return nil
	default:
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, e.snap.Status)
	}
}

// AutoPause is driven by the application lifecycle (backgrounding), never by
// sensor signal loss.
func (e *Engine) AutoPause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.snap.Status {
	case StateTracking:
		e.deps.Sensors.Pause()
		now := e.deps.Now()
		e.snap.PausedAt = &now
		e.snap.Status = StateAutoPaused
		e.snap.ElapsedSeconds = e.elapsedLocked(now)
		e.broadcastLocked()
		return nil
	case StateAutoPaused:
		e.deps.Sensors.Pause()
		return nil
	default:
		return fmt.Errorf("%w: auto-pause from %s", ErrInvalidTransition, e.snap.Status)
	}
}

// AutoResume returns from an auto-paused interval to tracking.
func (e *Engine) AutoResume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.snap.Status {
	case StateAutoPaused:
		e.deps.Sensors.Resume()
		e.resumeLocked()
		return nil
	case StateTracking:
		e.deps.Sensors.Resume()
		return nil
	default:
		return fmt.Errorf("%w: auto-resume from %s", ErrInvalidTransition, e.snap.Status)
	}
}

func (e *Engine) resumeLocked() {
	now := e.deps.Now()
	if e.snap.PausedAt != nil {
		e.snap.TotalPausedSeconds += int64(now.Sub(*e.snap.PausedAt).Seconds())
		e.snap.PausedAt = nil
	}
	e.hasLastSample = false
	e.snap.LastLocation = nil
	e.snap.CurrentPaceSecPerKm = nil
	e.snap.Status = StateTracking
	e.snap.ElapsedSeconds = e.elapsedLocked(now)
	e.broadcastLocked()
}

// Stop finalizes the session from the aggregates accumulated so far. It
// never consults the live sensor stream, so it succeeds identically through
// total signal loss. A failed persistence write leaves the session in the
// summary state; Stop may then be called again to retry the save.
func (e *Engine) Stop(ctx context.Context) (FinalMetrics, error) {
	e.mu.Lock()

	switch e.snap.Status {
	case StateTracking, StatePaused, StateAutoPaused:
		now := e.deps.Now()
		if e.snap.PausedAt != nil {
			e.snap.TotalPausedSeconds += int64(now.Sub(*e.snap.PausedAt).Seconds())
			e.snap.PausedAt = nil
		}
		e.snap.ElapsedSeconds = e.elapsedLocked(now)
		e.gen++
		e.cancelTimerLocked()
		e.teardownSensorsLocked()
		e.snap.Status = StateStopping
		e.broadcastLocked()

		m := e.finalizeLocked(now)
		e.final = &m
		e.finalRef = e.snap.SessionRef
		e.finalSport = e.snap.SportType
		e.snap.Status = StateSummary
		e.broadcastLocked()
	case StateSummary:
		if e.final == nil {
			e.mu.Unlock()
			return FinalMetrics{}, ErrNoActiveSession
		}
	default:
		err := fmt.Errorf("%w: stop from %s", ErrInvalidTransition, e.snap.Status)
		e.mu.Unlock()
		return FinalMetrics{}, err
	}

	m := *e.final
	if e.deps.Store != nil {
		e.snap.Status = StateSaving
		e.broadcastLocked()
		if err := e.deps.Store.SaveWorkout(ctx, e.finalRef, e.finalSport, m); err != nil {
			e.snap.Status = StateSummary
			e.broadcastLocked()
			e.mu.Unlock()
			return FinalMetrics{}, fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
	}

	e.final = nil
	e.snap = idleSnapshot()
	e.broadcastLocked()
	e.mu.Unlock()
	return m, nil
}

// Discard tears down the session without producing final metrics. Sensor
// subscriptions and timers are released synchronously before returning.
func (e *Engine) Discard() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap.Status == StateIdle {
		return ErrNoActiveSession
	}
	e.gen++
	e.cancelTimerLocked()
	e.teardownSensorsLocked()
	e.final = nil
	e.snap = idleSnapshot()
	e.broadcastLocked()
	return nil
}

func (e *Engine) finalizeLocked(now time.Time) FinalMetrics {
	// HealthWorkoutID stays empty: it identifies a record on an external
	// health platform, which a live-tracked session does not have.
	m := FinalMetrics{
		ActualDurationSeconds: e.snap.ElapsedSeconds,
		ActualDistanceMeters:  e.snap.DistanceMeters,
		AveragePaceSecPerKm:   cloneFloat(e.snap.AveragePaceSecPerKm),
		AverageSpeedKmH:       cloneFloat(e.snap.AverageSpeedKmH),
		DataSource:            LiveTracking(),
		CompletedAt:           now,
	}
	if e.snap.StartedAt != nil {
		m.StartedAt = *e.snap.StartedAt
	} else {
		m.StartedAt = now
	}
	if e.hrCount > 0 {
		avg := e.hrSum / float64(e.hrCount)
		maxHR, minHR := e.hrMax, e.hrMin
		m.AverageHeartRate = &avg
		m.MaxHeartRate = &maxHR
		m.MinHeartRate = &minHR
	}
	if e.altitudeSeen {
		gain, loss := e.snap.ElevationGainM, e.snap.ElevationLossM
		m.ElevationGain = &gain
		m.ElevationLoss = &loss
	}
	return m
}

func (e *Engine) elapsedLocked(now time.Time) int64 {
	if e.snap.StartedAt == nil {
		return e.snap.ElapsedSeconds
	}
	end := now
	if e.snap.PausedAt != nil {
		end = *e.snap.PausedAt
	}
	secs := int64(end.Sub(*e.snap.StartedAt).Seconds()) - e.snap.TotalPausedSeconds
	if secs < 0 {
		return 0
	}
	return secs
}

func (e *Engine) resetSessionLocked() {
	e.snap = idleSnapshot()
	e.hrSum, e.hrMax, e.hrMin = 0, 0, 0
	e.hrCount = 0
	e.altitudeSeen = false
	e.hasLastSample = false
	e.final = nil
	e.finalRef, e.finalSport = "", ""
}

func (e *Engine) cancelTimerLocked() {
	if e.cancelTimer != nil {
		e.cancelTimer()
		e.cancelTimer = nil
	}
}

func (e *Engine) teardownSensorsLocked() {
	if e.unsubSensors != nil {
		e.unsubSensors()
		e.unsubSensors = nil
	}
}
