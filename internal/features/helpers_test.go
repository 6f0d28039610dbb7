package features

import (
	"time"
)

// Common test data and helpers for feature tests

var testBaseDate = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)

// baseRecord returns a record with every required field set
func baseRecord() Record {
	return Record{
		Season:     1,
		Yr:         0,
		Mnth:       1,
		Hr:         15,
		Holiday:    0,
		Weekday:    0,
		Workingday: 0,
		Weathersit: 1,
		Temp:       0.5,
		Atemp:      0.5,
		Hum:        0.5,
		Windspeed:  0.2,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

// generateHourlyRecords creates days*len(hours) records, one per (day, hour),
// with cnt = day*100 + hour and seasons/weather cycling through all levels.
func generateHourlyRecords(days int, hours []int) []Record {
	records := make([]Record, 0, days*len(hours))
	for d := 0; d < days; d++ {
		for _, h := range hours {
			r := baseRecord()
			r.Dteday = testBaseDate.AddDate(0, 0, d)
			r.Hr = h
			r.Season = d%4 + 1
			r.Weathersit = (d+h)%4 + 1
			r.Weekday = d % 7
			r.Cnt = floatPtr(float64(d*100 + h))
			records = append(records, r)
		}
	}
	return records
}

// trainingSchema builds the schema of a dataset where every level occurs
func trainingSchema() Schema {
	engineered := Engineer(generateHourlyRecords(30, []int{0, 8, 15}))
	lagged, _, err := AddLagFeatures(engineered, DefaultLagOptions())
	if err != nil {
		panic(err)
	}
	m, err := BuildFeatureMatrix(lagged)
	if err != nil {
		panic(err)
	}
	return m.Schema
}

var expectedTrainingColumns = []string{
	"yr", "mnth", "holiday", "weekday", "workingday",
	"temp", "atemp", "hum", "windspeed", "hr",
	"hr_sin", "hr_cos", "temp_feels_like", "weather_comfort",
	"is_rush_hour", "is_weekend", "prev_day_same_hour",
	"season_2", "season_3", "season_4",
	"weathersit_2", "weathersit_3", "weathersit_4",
}
