package features

import (
	"math"

	"github.com/ridecast/ridecast/internal/utils"
)

// Derived column names
const (
	ColHrSin           = "hr_sin"
	ColHrCos           = "hr_cos"
	ColTempFeelsLike   = "temp_feels_like"
	ColWeatherComfort  = "weather_comfort"
	ColIsRushHour      = "is_rush_hour"
	ColIsWeekend       = "is_weekend"
	ColPrevDaySameHour = "prev_day_same_hour"
)

// EngineeredRecord is a Record plus the derived columns.
// Lag holds prev_day_same_hour and is only meaningful when HasLag is set.
type EngineeredRecord struct {
	Record

	HrSin          float64
	HrCos          float64
	TempFeelsLike  float64
	WeatherComfort float64
	IsRushHour     int
	IsWeekend      int

	Lag    float64
	HasLag bool
}

// Engineer derives the per-record columns for a batch. Records are
// independent; the input slice is not modified.
func Engineer(records []Record) []EngineeredRecord {
	out := make([]EngineeredRecord, len(records))
	for i, r := range records {
		out[i] = EngineerOne(r)
	}
	return out
}

// EngineerOne derives the columns for a single record.
// Values outside the documented domains are not rejected.
func EngineerOne(r Record) EngineeredRecord {
	angle := 2 * math.Pi * float64(r.Hr) / utils.HoursPerDay

	return EngineeredRecord{
		Record:         r,
		HrSin:          math.Sin(angle),
		HrCos:          math.Cos(angle),
		TempFeelsLike:  (r.Temp + r.Atemp) / 2,
		WeatherComfort: r.Atemp * (1 - r.Hum),
		IsRushHour:     boolToInt(IsRushHour(r.Hr)),
		IsWeekend:      boolToInt(IsWeekend(r.Weekday)),
	}
}

// IsRushHour reports whether hr falls in the morning (7-9) or evening (17-19) peak
func IsRushHour(hr int) bool {
	return (hr >= 7 && hr <= 9) || (hr >= 17 && hr <= 19)
}

// IsWeekend reports whether weekday is Sunday (0) or Saturday (6)
func IsWeekend(weekday int) bool {
	return weekday == 0 || weekday == 6
}

// Value returns the named column of the engineered record.
// The second result is false for unknown names and for optional columns that
// are not set (cnt, prev_day_same_hour).
func (e EngineeredRecord) Value(col string) (float64, bool) {
	switch col {
	case ColSeason:
		return float64(e.Season), true
	case ColYr:
		return float64(e.Yr), true
	case ColMnth:
		return float64(e.Mnth), true
	case ColHr:
		return float64(e.Hr), true
	case ColHoliday:
		return float64(e.Holiday), true
	case ColWeekday:
		return float64(e.Weekday), true
	case ColWorkingday:
		return float64(e.Workingday), true
	case ColWeathersit:
		return float64(e.Weathersit), true
	case ColTemp:
		return e.Temp, true
	case ColAtemp:
		return e.Atemp, true
	case ColHum:
		return e.Hum, true
	case ColWindspeed:
		return e.Windspeed, true
	case ColHrSin:
		return e.HrSin, true
	case ColHrCos:
		return e.HrCos, true
	case ColTempFeelsLike:
		return e.TempFeelsLike, true
	case ColWeatherComfort:
		return e.WeatherComfort, true
	case ColIsRushHour:
		return float64(e.IsRushHour), true
	case ColIsWeekend:
		return float64(e.IsWeekend), true
	case ColPrevDaySameHour:
		return e.Lag, e.HasLag
	case ColCnt:
		if e.Cnt == nil {
			return 0, false
		}
		return *e.Cnt, true
	default:
		return 0, false
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
