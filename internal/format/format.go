// Package format renders raw activity aggregates as display strings. All
// functions are total: missing or nonsensical input falls back to a neutral
// placeholder instead of failing.
package format

import (
	"fmt"
	"math"
)

// Duration renders a duration in seconds, e.g. "30 min", "5h", "5h 30m".
func Duration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

// Distance renders a distance in kilometers, e.g. "750 m", "42.2 km".
func Distance(km float64) string {
	if km < 0 || math.IsNaN(km) {
		km = 0
	}
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

// Pace renders a pace in seconds per kilometer, e.g. "15:00 /km". A nil or
// unusable pace renders as "-".
func Pace(secPerKm *float64) string {
	if secPerKm == nil || *secPerKm <= 0 || math.IsNaN(*secPerKm) || math.IsInf(*secPerKm, 0) {
		return "-"
	}
	total := int(math.Round(*secPerKm))
	return fmt.Sprintf("%d:%02d /km", total/60, total%60)
}

// Volume renders a training volume in kilograms, e.g. "950 kg", "1.2k kg".
func Volume(kg float64) string {
	if kg < 0 || math.IsNaN(kg) {
		kg = 0
	}
	if kg < 1000 {
		return fmt.Sprintf("%d kg", int(math.Round(kg)))
	}
	return fmt.Sprintf("%.1fk kg", kg/1000)
}
