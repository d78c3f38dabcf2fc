// Package pricing computes the time-of-day price multiplier applied to
// every spot fetch. The multiplier is derived from the wall clock each
// time and is never cached across fetches.
package pricing

import (
	"math"
	"strconv"
)

// Peak window bounds, both inclusive: 8 AM through 6 PM.
const (
	PeakStartHour = 8
	PeakEndHour   = 18

	PeakMultiplier    = 1.5
	OffPeakMultiplier = 1.0
)

// Banner texts shown with the spot listing.
const (
	PeakMessage    = "Peak hours: 8 AM - 6 PM. Prices are 1.5x during this time."
	OffPeakMessage = "Off-peak hours: Prices are at normal rates."
)

// Multiplier returns the price multiplier for the given hour of day.
func Multiplier(hour int) float64 {
	if hour >= PeakStartHour && hour <= PeakEndHour {
		return PeakMultiplier
	}
	return OffPeakMultiplier
}

// Banner returns the human-readable regime description for a multiplier.
func Banner(multiplier float64) string {
	if multiplier == PeakMultiplier {
		return PeakMessage
	}
	return OffPeakMessage
}

// Current reads the clock and returns the active multiplier and banner.
func Current(clock Clock) (float64, string) {
	m := Multiplier(clock.Now().Hour())
	return m, Banner(m)
}

// Price applies a multiplier to a base price, rounded to cents.
func Price(base, multiplier float64) float64 {
	return math.Round(base*multiplier*100) / 100
}

// Display formats a price with exactly two decimal places.
func Display(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}
