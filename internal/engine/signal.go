package engine

// QualityTier is the discrete classification of reported GPS accuracy.
type QualityTier string

const (
	TierExcellent QualityTier = "excellent"
	TierGood      QualityTier = "good"
	TierFair      QualityTier = "fair"
	TierPoor      QualityTier = "poor"
	TierNone      QualityTier = "none"
)

// GPSSignal is the current accuracy reading and its tier.
type GPSSignal struct {
	AccuracyMeters float64     `json:"accuracy_meters"`
	Tier           QualityTier `json:"quality_tier"`
}

const signalLostError = "GPS signal lost"

// ClassifyAccuracy maps a reported horizontal accuracy in meters to a
// quality tier. Non-positive accuracy means the fix is unusable.
func ClassifyAccuracy(accuracyM float64) QualityTier {
	switch {
	case accuracyM <= 0:
		return TierNone
	case accuracyM <= 5:
		return TierExcellent
	case accuracyM <= 10:
		return TierGood
	case accuracyM <= 20:
		return TierFair
	case accuracyM <= 50:
		return TierPoor
	default:
		return TierNone
	}
}

// updateSignalLocked records the sample's accuracy tier on the snapshot and
// maintains the transient signal-lost error. Tracking is never interrupted
// by a tier change; loss and recovery only toggle the error field.
func (e *Engine) updateSignalLocked(accuracyM float64) QualityTier {
	tier := ClassifyAccuracy(accuracyM)
	e.snap.GPSSignal = GPSSignal{AccuracyMeters: accuracyM, Tier: tier}

	if tier == TierNone {
		e.snap.Error = signalLostError
	} else if e.snap.Error == signalLostError {
		e.snap.Error = ""
	}
	return tier
}
