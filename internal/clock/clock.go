// Package clock supplies the pure (and one stochastic) time-of-day,
// day-of-week, and seasonal factors the value simulator blends into its
// synthesized counters and gauges. Grounded on the teacher's
// internal/variation/variation.go, which already drives variation from
// time.Now() (PeriodicReset, time-seeded jitter) — generalized here into
// standalone, independently testable factor functions instead of variation
// strategies baked into one Variation implementation.
package clock

import (
	"math"
	"math/rand"
	"time"
)

// DailyUtilization returns a roughly [0.2, 1.8] multiplier for the hour of
// day t falls in, per the segmented daily curve: low overnight, a morning
// ramp, a business plateau with a lunch dip, an evening transition into a
// residential peak, then decline. Deterministic: the same t always yields
// the same factor.
func DailyUtilization(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60.0

	switch {
	case h < 5:
		return 0.2 + 0.05*math.Sin(h/5*math.Pi)
	case h < 9:
		frac := (h - 5) / 4
		return 0.25 + frac*(0.9-0.25)
	case h < 17:
		frac := (h - 9) / 8
		base := 0.9 + 0.5*math.Sin(frac*math.Pi)
		lunchDip := 0.15 * math.Exp(-math.Pow((h-12.5)/0.75, 2))
		return base - lunchDip
	case h < 18:
		frac := h - 17
		return 1.3 + frac*(1.6-1.3)
	case h < 21:
		frac := (h - 18) / 3
		return 1.6 + 0.2*math.Sin(frac*math.Pi)
	default:
		frac := (h - 21) / 3
		return 1.8 - frac*(1.8-0.3)
	}
}

// WeeklyPattern returns a per-weekday multiplier: 0.95 Mon, 1.05 Tue and
// Wed, 1.00 Thu, 0.90 Fri, then a quieter weekend (0.65 Sat, 0.45 Sun).
func WeeklyPattern(t time.Time) float64 {
	switch t.Weekday() {
	case time.Monday:
		return 0.95
	case time.Tuesday:
		return 1.05
	case time.Wednesday:
		return 1.05
	case time.Thursday:
		return 1.00
	case time.Friday:
		return 0.90
	case time.Saturday:
		return 0.65
	default: // Sunday
		return 0.45
	}
}

// SeasonalTemperatureOffset returns a ±15°C sinusoid over the day of year,
// peaking around July 1st (day ~182 in a non-leap year).
func SeasonalTemperatureOffset(t time.Time) float64 {
	const peakDay = 182.0
	day := float64(t.YearDay())
	return 15 * math.Cos(2*math.Pi*(day-peakDay)/365.25)
}

// DailyTemperatureOffset returns a ±5°C sinusoid over the hour of day,
// with its minimum at 06:00 and maximum at 15:00.
func DailyTemperatureOffset(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60.0
	const minHour = 6.0
	const maxHour = 15.0
	period := 2 * (maxHour - minHour)
	return -5 * math.Cos(2*math.Pi*(h-minHour)/period)
}

// WeatherVariation draws a stochastic [0.70, 1.05] factor whose probability
// of a low-end (bad weather) draw depends on season and hour: winter nights
// are likelier to roll a degraded factor than summer afternoons. rng must
// be supplied by the caller (never package-global) so results are
// reproducible per device/seed.
func WeatherVariation(t time.Time, rng *rand.Rand) float64 {
	seasonal := SeasonalTemperatureOffset(t)
	badWeatherChance := 0.15
	if seasonal < 0 { // winter half of the year
		badWeatherChance += 0.15
	}
	h := t.Hour()
	if h < 6 || h >= 20 {
		badWeatherChance += 0.05
	}

	if rng.Float64() < badWeatherChance {
		return 0.70 + rng.Float64()*0.15 // [0.70, 0.85)
	}
	return 0.90 + rng.Float64()*0.15 // [0.90, 1.05)
}
