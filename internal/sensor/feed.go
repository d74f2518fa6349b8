// Package sensor bridges device-reported readings into the engine's
// provider interfaces. The mobile client pushes location samples and battery
// levels over HTTP; the feed forwards samples to the engine's subscription
// and keeps the latest fix for session-independent availability checks.
package sensor

import (
	"errors"
	"sync"
	"time"

	"backend-stride/internal/engine"
)

var (
	// ErrStreamBusy means the feed already has a subscriber. The engine
	// owns at most one session, so a second subscription is a bug.
	ErrStreamBusy = errors.New("sensor stream already subscribed")
	// ErrNoFix means no sample arrived within the staleness window.
	ErrNoFix = errors.New("no recent GPS fix")
	// ErrNoReading means the battery level was never reported or is stale.
	ErrNoReading = errors.New("no recent battery reading")
)

// Feed is an in-process sample stream implementing engine.SensorProvider.
type Feed struct {
	mu         sync.Mutex
	subscriber engine.SampleFunc
	paused     bool

	lastAccuracy float64
	lastSampleAt time.Time
	staleAfter   time.Duration
	now          func() time.Time

	pauseCount, resumeCount int
}

// NewFeed builds a feed whose availability checks treat samples older than
// staleAfter as no fix.
func NewFeed(staleAfter time.Duration) *Feed {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Second
	}
	return &Feed{staleAfter: staleAfter, now: time.Now}
}

// Publish delivers one device sample. The latest fix is always recorded so
// availability checks keep working, but forwarding stops while the stream is
// paused. The subscriber callback runs outside the feed's lock so it may
// re-enter the feed safely.
func (f *Feed) Publish(s engine.Sample) {
	f.mu.Lock()
	if s.Timestamp.IsZero() {
		s.Timestamp = f.now()
	}
	f.lastAccuracy = s.AccuracyMeters
	f.lastSampleAt = f.now()
	fn := f.subscriber
	if f.paused {
		fn = nil
	}
	f.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// Subscribe registers the engine as the single consumer of the stream.
func (f *Feed) Subscribe(fn engine.SampleFunc) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscriber != nil {
		return nil, ErrStreamBusy
	}
	f.subscriber = fn
	f.paused = false

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.subscriber = nil
	}, nil
}

func (f *Feed) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
	f.pauseCount++
}

func (f *Feed) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
	f.resumeCount++
}

// CurrentAccuracy reports the accuracy of the latest fix, or ErrNoFix when
// nothing recent arrived.
func (f *Feed) CurrentAccuracy() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lastSampleAt.IsZero() || f.now().Sub(f.lastSampleAt) > f.staleAfter {
		return 0, ErrNoFix
	}
	return f.lastAccuracy, nil
}

// Counts returns how many pause and resume calls were forwarded.
func (f *Feed) Counts() (pauses, resumes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauseCount, f.resumeCount
}

// BatteryReporter holds the device's last reported battery fraction and
// implements engine.BatteryProvider.
type BatteryReporter struct {
	mu         sync.Mutex
	level      float64
	reportedAt time.Time
	staleAfter time.Duration
	now        func() time.Time
}

func NewBatteryReporter(staleAfter time.Duration) *BatteryReporter {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &BatteryReporter{staleAfter: staleAfter, now: time.Now}
}

// Report records a battery fraction in [0,1].
func (b *BatteryReporter) Report(level float64) error {
	if level < 0 || level > 1 {
		return errors.New("battery level must be a fraction between 0 and 1")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level = level
	b.reportedAt = b.now()
	return nil
}

// Level returns the last reported fraction, or ErrNoReading when the device
// has not reported recently.
func (b *BatteryReporter) Level() (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.reportedAt.IsZero() || b.now().Sub(b.reportedAt) > b.staleAfter {
		return 0, ErrNoReading
	}
	return b.level, nil
}
