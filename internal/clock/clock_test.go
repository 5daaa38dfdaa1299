package clock

import (
	"math/rand"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.July, 15, hour, min, 0, 0, time.UTC)
}

func TestDailyUtilizationRangeAndShape(t *testing.T) {
	for h := 0; h < 24; h++ {
		v := DailyUtilization(at(h, 0))
		if v < 0.1 || v > 1.9 {
			t.Errorf("hour %d: DailyUtilization = %v out of expected range", h, v)
		}
	}
	if DailyUtilization(at(3, 0)) >= DailyUtilization(at(19, 0)) {
		t.Errorf("expected overnight utilization to be lower than evening peak")
	}
}

func TestDailyUtilizationIsPure(t *testing.T) {
	ts := at(10, 30)
	a := DailyUtilization(ts)
	b := DailyUtilization(ts)
	if a != b {
		t.Fatalf("DailyUtilization must be deterministic for the same input")
	}
}

func TestWeeklyPatternValues(t *testing.T) {
	cases := map[time.Weekday]float64{
		time.Monday:    0.95,
		time.Tuesday:   1.05,
		time.Wednesday: 1.05,
		time.Thursday:  1.00,
		time.Friday:    0.90,
	}
	for wd, want := range cases {
		d := time.Date(2026, time.July, 12+int(wd), 12, 0, 0, 0, time.UTC) // Jul 13 2026 is a Monday (time.Monday == 1)
		if got := WeeklyPattern(d); got != want {
			t.Errorf("%s: WeeklyPattern = %v, want %v", wd, got, want)
		}
	}
	sat := WeeklyPattern(time.Date(2026, time.July, 18, 12, 0, 0, 0, time.UTC))
	if sat < 0.5 || sat > 0.8 {
		t.Errorf("Saturday factor = %v, want within [0.5,0.8]", sat)
	}
	sun := WeeklyPattern(time.Date(2026, time.July, 19, 12, 0, 0, 0, time.UTC))
	if sun < 0.3 || sun > 0.6 {
		t.Errorf("Sunday factor = %v, want within [0.3,0.6]", sun)
	}
}

func TestSeasonalTemperatureOffsetPeaksNearJulyFirst(t *testing.T) {
	julyFirst := time.Date(2026, time.July, 1, 12, 0, 0, 0, time.UTC)
	januaryFirst := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	if v := SeasonalTemperatureOffset(julyFirst); v < 10 {
		t.Errorf("expected near-peak offset around July 1, got %v", v)
	}
	if v := SeasonalTemperatureOffset(januaryFirst); v > -10 {
		t.Errorf("expected near-trough offset around January 1, got %v", v)
	}
}

func TestDailyTemperatureOffsetBounds(t *testing.T) {
	min := DailyTemperatureOffset(at(6, 0))
	max := DailyTemperatureOffset(at(15, 0))
	if min > -4 {
		t.Errorf("expected minimum near 06:00, got %v", min)
	}
	if max < 4 {
		t.Errorf("expected maximum near 15:00, got %v", max)
	}
}

func TestWeatherVariationRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		v := WeatherVariation(at(2, 0), rng)
		if v < 0.70 || v > 1.05 {
			t.Fatalf("WeatherVariation out of range: %v", v)
		}
	}
}
