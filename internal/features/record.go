// Package features turns hourly rental observations into the numeric feature
// set the regressor is trained on, and prepares single inference records
// against the column schema persisted at training time.
package features

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ridecast/ridecast/internal/utils"
)

var (
	// ErrInvalidInput is returned when a required field or column is missing
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaMismatch is returned when a schema cannot be used to align features
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Base field names as they appear in the dataset and in request payloads
const (
	ColSeason     = "season"
	ColYr         = "yr"
	ColMnth       = "mnth"
	ColHr         = "hr"
	ColHoliday    = "holiday"
	ColWeekday    = "weekday"
	ColWorkingday = "workingday"
	ColWeathersit = "weathersit"
	ColTemp       = "temp"
	ColAtemp      = "atemp"
	ColHum        = "hum"
	ColWindspeed  = "windspeed"

	ColDteday = "dteday"
	ColCnt    = "cnt"
)

// DateLayout is the layout of the dteday column
const DateLayout = "2006-01-02"

var integerFields = []string{
	ColSeason, ColYr, ColMnth, ColHr, ColHoliday, ColWeekday, ColWorkingday, ColWeathersit,
}

var realFields = []string{ColTemp, ColAtemp, ColHum, ColWindspeed}

// RequiredFields returns the base fields every record must carry
func RequiredFields() []string {
	fields := make([]string, 0, len(integerFields)+len(realFields))
	fields = append(fields, integerFields...)
	return append(fields, realFields...)
}

// Record is one hourly observation.
// Dteday is the zero time when the source has no date. Cnt is nil when the
// target is unknown. PrevDaySameHour is only set by inference callers that
// know the lag value.
type Record struct {
	Season     int     `json:"season"`
	Yr         int     `json:"yr"`
	Mnth       int     `json:"mnth"`
	Hr         int     `json:"hr"`
	Holiday    int     `json:"holiday"`
	Weekday    int     `json:"weekday"`
	Workingday int     `json:"workingday"`
	Weathersit int     `json:"weathersit"`
	Temp       float64 `json:"temp"`
	Atemp      float64 `json:"atemp"`
	Hum        float64 `json:"hum"`
	Windspeed  float64 `json:"windspeed"`

	Dteday          time.Time `json:"dteday,omitempty"`
	Cnt             *float64  `json:"cnt,omitempty"`
	PrevDaySameHour *float64  `json:"prev_day_same_hour,omitempty"`
}

// HasDate reports whether the record carries a calendar date
func (r Record) HasDate() bool {
	return !r.Dteday.IsZero()
}

// RawRecord is an untyped field->value mapping, as decoded from a request
type RawRecord map[string]interface{}

// ParseRecord converts a field->value mapping into a Record.
// All base fields are required; integer fields must hold integral values.
func ParseRecord(raw RawRecord) (Record, error) {
	var r Record
	var missing, malformed []string

	ints := map[string]*int{
		ColSeason: &r.Season, ColYr: &r.Yr, ColMnth: &r.Mnth, ColHr: &r.Hr,
		ColHoliday: &r.Holiday, ColWeekday: &r.Weekday, ColWorkingday: &r.Workingday,
		ColWeathersit: &r.Weathersit,
	}
	for _, name := range integerFields {
		v, ok := raw[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		n, ok := utils.ToInt(v)
		if !ok {
			malformed = append(malformed, name)
			continue
		}
		*ints[name] = n
	}

	reals := map[string]*float64{
		ColTemp: &r.Temp, ColAtemp: &r.Atemp, ColHum: &r.Hum, ColWindspeed: &r.Windspeed,
	}
	for _, name := range realFields {
		v, ok := raw[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		f, ok := utils.ToFloat64(v)
		if !ok {
			malformed = append(malformed, name)
			continue
		}
		*reals[name] = f
	}

	if len(missing) > 0 {
		return Record{}, fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if len(malformed) > 0 {
		sort.Strings(malformed)
		return Record{}, fmt.Errorf("%w: non-numeric or non-integral fields: %s", ErrInvalidInput, strings.Join(malformed, ", "))
	}

	if v, ok := raw[ColDteday]; ok && v != nil {
		d, err := parseDate(v)
		if err != nil {
			return Record{}, err
		}
		r.Dteday = d
	}
	if v, ok := raw[ColCnt]; ok && v != nil {
		f, ok := utils.ToFloat64(v)
		if !ok {
			return Record{}, fmt.Errorf("%w: %s is not numeric", ErrInvalidInput, ColCnt)
		}
		r.Cnt = &f
	}
	if v, ok := raw[ColPrevDaySameHour]; ok && v != nil {
		f, ok := utils.ToFloat64(v)
		if !ok {
			return Record{}, fmt.Errorf("%w: %s is not numeric", ErrInvalidInput, ColPrevDaySameHour)
		}
		r.PrevDaySameHour = &f
	}

	return r, nil
}

func parseDate(v interface{}) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		t, err := time.Parse(DateLayout, strings.TrimSpace(d))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD: %v", ErrInvalidInput, ColDteday, err)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s must be a date string", ErrInvalidInput, ColDteday)
	}
}
