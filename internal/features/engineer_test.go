package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineerOne_DerivedColumns(t *testing.T) {
	r := baseRecord()
	r.Temp = 0.4
	r.Atemp = 0.6
	r.Hum = 0.25

	e := EngineerOne(r)

	assert.InDelta(t, 0.5, e.TempFeelsLike, 1e-12)
	assert.InDelta(t, 0.45, e.WeatherComfort, 1e-12)
	assert.InDelta(t, math.Sin(2*math.Pi*15/24), e.HrSin, 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*15/24), e.HrCos, 1e-12)
	assert.Equal(t, 0, e.IsRushHour)
	assert.Equal(t, 1, e.IsWeekend)
	assert.False(t, e.HasLag)
	assert.Equal(t, r, e.Record)
}

func TestEngineerOne_CyclicalEncodingOnUnitCircle(t *testing.T) {
	for hr := 0; hr <= 24; hr++ {
		r := baseRecord()
		r.Hr = hr
		e := EngineerOne(r)
		assert.InDelta(t, 1.0, e.HrSin*e.HrSin+e.HrCos*e.HrCos, 1e-9, "hr=%d", hr)
	}
}

func TestEngineerOne_Hour24SharesCircleWithMidnight(t *testing.T) {
	r0 := baseRecord()
	r0.Hr = 0
	r24 := baseRecord()
	r24.Hr = 24

	e0, e24 := EngineerOne(r0), EngineerOne(r24)

	// Same point on the circle, but hr itself is passed through unchanged
	assert.InDelta(t, e0.HrSin, e24.HrSin, 1e-9)
	assert.InDelta(t, e0.HrCos, e24.HrCos, 1e-9)
	v0, _ := e0.Value(ColHr)
	v24, _ := e24.Value(ColHr)
	assert.NotEqual(t, v0, v24)
}

func TestEngineerOne_RushHourExhaustive(t *testing.T) {
	rush := map[int]bool{7: true, 8: true, 9: true, 17: true, 18: true, 19: true}
	for hr := 0; hr <= 24; hr++ {
		r := baseRecord()
		r.Hr = hr
		want := 0
		if rush[hr] {
			want = 1
		}
		assert.Equal(t, want, EngineerOne(r).IsRushHour, "hr=%d", hr)
	}
}

func TestEngineerOne_WeekendExhaustive(t *testing.T) {
	for wd := 0; wd <= 6; wd++ {
		r := baseRecord()
		r.Weekday = wd
		want := 0
		if wd == 0 || wd == 6 {
			want = 1
		}
		assert.Equal(t, want, EngineerOne(r).IsWeekend, "weekday=%d", wd)
	}
}

func TestEngineerOne_OutOfDomainPassesThrough(t *testing.T) {
	r := baseRecord()
	r.Hum = 1.5
	r.Atemp = 2

	e := EngineerOne(r)
	assert.InDelta(t, -1.0, e.WeatherComfort, 1e-12)
}

func TestEngineer_BatchMatchesSingle(t *testing.T) {
	records := generateHourlyRecords(3, []int{6, 7, 20})
	batch := Engineer(records)

	assert.Len(t, batch, len(records))
	for i, r := range records {
		assert.Equal(t, EngineerOne(r), batch[i])
	}
}

func TestEngineeredRecord_Value(t *testing.T) {
	e := EngineerOne(baseRecord())

	for _, c := range InputColumns {
		_, ok := e.Value(c)
		if c == ColPrevDaySameHour {
			assert.False(t, ok, "lag should be unset before AddLagFeatures")
			continue
		}
		assert.True(t, ok, "column %s should be available", c)
	}

	_, ok := e.Value(ColCnt)
	assert.False(t, ok)

	_, ok = e.Value("unknown")
	assert.False(t, ok)
}
