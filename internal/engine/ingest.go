package engine

import (
	"backend-stride/internal/shared/geo"
)

// ingest folds one sensor sample into the live aggregates. It runs on the
// sensor callback path and is serialized with every other mutation; samples
// from a superseded generation or outside the tracking state are dropped.
func (e *Engine) ingest(gen uint64, s Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || e.snap.Status != StateTracking {
		return
	}

	tier := e.updateSignalLocked(s.AccuracyMeters)
	if tier == TierNone {
		// Unusable fix: record the loss, keep tracking, and leave every
		// aggregate (and the distance anchor) untouched.
		e.broadcastLocked()
		return
	}

	if s.HeartRate != nil {
		hr := *s.HeartRate
		e.hrSum += hr
		if e.hrCount == 0 || hr > e.hrMax {
			e.hrMax = hr
		}
		if e.hrCount == 0 || hr < e.hrMin {
			e.hrMin = hr
		}
		e.hrCount++
	}

	if s.AltitudeM != nil {
		alt := *s.AltitudeM
		if e.snap.CurrentAltitudeM != nil {
			delta := alt - *e.snap.CurrentAltitudeM
			if delta > 0 {
				e.snap.ElevationGainM += delta
			} else {
				e.snap.ElevationLossM += -delta
			}
		}
		e.snap.CurrentAltitudeM = &alt
		e.altitudeSeen = true
	}

	if e.hasLastSample && e.snap.LastLocation != nil {
		prev := e.snap.LastLocation
		deltaM := geo.HaversineKm(prev.Lat, prev.Lng, s.Lat, s.Lng) * 1000
		e.snap.DistanceMeters += deltaM

		dt := s.Timestamp.Sub(e.lastSampleAt).Seconds()
		if deltaM > 0 && dt > 0 {
			pace := dt / (deltaM / 1000)
			e.snap.CurrentPaceSecPerKm = &pace
		} else {
			e.snap.CurrentPaceSecPerKm = nil
		}
	}

	e.snap.LastLocation = &Location{Lat: s.Lat, Lng: s.Lng, RecordedAt: s.Timestamp}
	e.lastSampleAt = s.Timestamp
	e.hasLastSample = true

	e.snap.ElapsedSeconds = e.elapsedLocked(e.deps.Now())
	e.recomputeAveragesLocked()
	e.broadcastLocked()
}

func (e *Engine) recomputeAveragesLocked() {
	km := e.snap.DistanceMeters / 1000
	secs := float64(e.snap.ElapsedSeconds)
	if km > 0 && secs > 0 {
		pace := secs / km
		speed := km / (secs / 3600)
		e.snap.AveragePaceSecPerKm = &pace
		e.snap.AverageSpeedKmH = &speed
	}
}
