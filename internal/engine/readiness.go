package engine

const (
	lowBatteryIssue    = "Battery level is below 20%"
	noGPSIssue         = "GPS signal unavailable"
	lowBatteryFraction = 0.20
)

// Readiness lists non-fatal pre-flight warnings. An empty list means no
// known obstacle; a failed sub-check simply contributes nothing.
type Readiness struct {
	Issues []string `json:"issues"`
}

// ReadinessChecker runs the pre-start checks. None of them block a start.
type ReadinessChecker struct {
	battery BatteryProvider
	sensors SensorProvider
}

func NewReadinessChecker(battery BatteryProvider, sensors SensorProvider) *ReadinessChecker {
	return &ReadinessChecker{battery: battery, sensors: sensors}
}

// CheckReadiness accumulates issues from each sub-check. A sub-check that
// errors is absorbed: its issue is omitted and the result stays well-formed.
func (c *ReadinessChecker) CheckReadiness() Readiness {
	issues := []string{}

	if c.battery != nil {
		if level, err := c.battery.Level(); err == nil && level < lowBatteryFraction {
			issues = append(issues, lowBatteryIssue)
		}
	}
	if c.sensors != nil {
		if c.CheckGPSAvailability().Tier == TierNone {
			issues = append(issues, noGPSIssue)
		}
	}
	return Readiness{Issues: issues}
}

// CheckGPSAvailability reports the current fix quality independent of any
// active session.
func (c *ReadinessChecker) CheckGPSAvailability() GPSSignal {
	if c.sensors == nil {
		return GPSSignal{Tier: TierNone}
	}
	accuracy, err := c.sensors.CurrentAccuracy()
	if err != nil {
		return GPSSignal{Tier: TierNone}
	}
	return GPSSignal{AccuracyMeters: accuracy, Tier: ClassifyAccuracy(accuracy)}
}
