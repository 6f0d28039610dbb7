package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareInput_DashboardExample(t *testing.T) {
	schema := trainingSchema()

	prepared, err := PrepareInput(baseRecord(), schema, DefaultInputOptions())
	require.NoError(t, err)

	v := prepared.Vector
	assert.Equal(t, schema.Columns, v.Columns)
	assert.Len(t, v.Values, schema.Len())

	get := func(name string) float64 {
		val, ok := v.Get(name)
		require.True(t, ok, name)
		return val
	}

	assert.InDelta(t, -math.Sqrt2/2, get(ColHrSin), 1e-9)
	assert.InDelta(t, -math.Sqrt2/2, get(ColHrCos), 1e-9)
	assert.Equal(t, 0.0, get(ColIsRushHour))
	assert.Equal(t, 1.0, get(ColIsWeekend))
	assert.Equal(t, 200.0, get(ColPrevDaySameHour))
	assert.Equal(t, 0.5, get(ColTempFeelsLike))
	assert.Equal(t, 0.25, get(ColWeatherComfort))
	assert.Equal(t, 15.0, get(ColHr))

	// season 1 and weathersit 1 are reference levels: all indicators are 0
	for _, lvl := range []int{2, 3, 4} {
		assert.Equal(t, 0.0, get(IndicatorColumn(ColSeason, lvl)))
		assert.Equal(t, 0.0, get(IndicatorColumn(ColWeathersit, lvl)))
	}
	assert.Equal(t, []string{"season_1", "weathersit_1"}, prepared.Dropped)
	assert.True(t, prepared.LagDefaulted)
}

func TestPrepareInput_AlignedForEveryLevel(t *testing.T) {
	schema := trainingSchema()

	for season := 1; season <= 4; season++ {
		for weather := 1; weather <= 4; weather++ {
			r := baseRecord()
			r.Season = season
			r.Weathersit = weather

			prepared, err := PrepareInput(r, schema, DefaultInputOptions())
			require.NoError(t, err)
			assert.Equal(t, schema.Columns, prepared.Vector.Columns)

			for _, lvl := range []int{2, 3, 4} {
				want := 0.0
				if lvl == season {
					want = 1
				}
				got, _ := prepared.Vector.Get(IndicatorColumn(ColSeason, lvl))
				assert.Equal(t, want, got, "season=%d level %d", season, lvl)

				want = 0.0
				if lvl == weather {
					want = 1
				}
				got, _ = prepared.Vector.Get(IndicatorColumn(ColWeathersit, lvl))
				assert.Equal(t, want, got, "weathersit=%d level %d", weather, lvl)
			}
		}
	}
}

// A single record's own level is encoded as it was in training: a
// non-reference season or weathersit sets its indicator to 1 instead of
// dropping the record's only level.
func TestPrepareInput_NonReferenceLevelsMatchTrainingEncoding(t *testing.T) {
	schema := trainingSchema()

	r := baseRecord()
	r.Season = 3
	r.Weathersit = 2

	prepared, err := PrepareInput(r, schema, DefaultInputOptions())
	require.NoError(t, err)

	want := map[string]float64{
		"season_2": 0, "season_3": 1, "season_4": 0,
		"weathersit_2": 1, "weathersit_3": 0, "weathersit_4": 0,
	}
	for col, val := range want {
		got, ok := prepared.Vector.Get(col)
		require.True(t, ok, col)
		assert.Equal(t, val, got, col)
	}
	assert.Empty(t, prepared.Dropped)
}

func TestPrepareInput_UnseenLevelIsDropped(t *testing.T) {
	schema := trainingSchema()
	r := baseRecord()
	r.Weathersit = 9

	prepared, err := PrepareInput(r, schema, DefaultInputOptions())
	require.NoError(t, err)

	assert.Equal(t, schema.Columns, prepared.Vector.Columns)
	assert.Contains(t, prepared.Dropped, "weathersit_9")
}

func TestPrepareInput_AgainstArbitrarySchema(t *testing.T) {
	schema := NewSchema([]string{"season_4", "extra", ColHr, ColTemp})
	r := baseRecord()
	r.Season = 4

	prepared, err := PrepareInput(r, schema, DefaultInputOptions())
	require.NoError(t, err)

	assert.Equal(t, schema.Columns, prepared.Vector.Columns)
	assert.Equal(t, []float64{1, 0, 15, 0.5}, prepared.Vector.Values)
}

func TestPrepareInput_SuppliedLag(t *testing.T) {
	schema := trainingSchema()
	r := baseRecord()
	r.PrevDaySameHour = floatPtr(321)

	prepared, err := PrepareInput(r, schema, DefaultInputOptions())
	require.NoError(t, err)

	lag, _ := prepared.Vector.Get(ColPrevDaySameHour)
	assert.Equal(t, 321.0, lag)
	assert.False(t, prepared.LagDefaulted)
}

func TestPrepareInput_CustomFallback(t *testing.T) {
	prepared, err := PrepareInput(baseRecord(), trainingSchema(), InputOptions{LagFallback: 142})
	require.NoError(t, err)

	lag, _ := prepared.Vector.Get(ColPrevDaySameHour)
	assert.Equal(t, 142.0, lag)
}

func TestPrepareInput_Deterministic(t *testing.T) {
	schema := trainingSchema()
	r := baseRecord()
	r.Hr = 8
	r.Season = 3

	first, err := PrepareInput(r, schema, DefaultInputOptions())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := PrepareInput(r, schema, DefaultInputOptions())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPrepareInput_InvalidSchema(t *testing.T) {
	_, err := PrepareInput(baseRecord(), Schema{}, DefaultInputOptions())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestParseRecord(t *testing.T) {
	raw := RawRecord{
		"season": 1, "yr": 0, "mnth": 1, "holiday": 0, "weekday": 0, "workingday": 0,
		"weathersit": 1, "temp": 0.5, "atemp": 0.5, "hum": 0.5, "windspeed": 0.2, "hr": 15.0,
	}

	r, err := ParseRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, baseRecord(), r)

	raw["dteday"] = "2011-01-05"
	raw["cnt"] = 16
	raw["prev_day_same_hour"] = "40"
	r, err = ParseRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Dteday.Day())
	assert.Equal(t, 16.0, *r.Cnt)
	assert.Equal(t, 40.0, *r.PrevDaySameHour)
}

func TestParseRecord_MissingFields(t *testing.T) {
	_, err := ParseRecord(RawRecord{"season": 1, "temp": 0.3})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "hr")
	assert.Contains(t, err.Error(), "windspeed")
}

func TestParseRecord_Malformed(t *testing.T) {
	raw := RawRecord{
		"season": 1.5, "yr": 0, "mnth": 1, "holiday": 0, "weekday": 0, "workingday": 0,
		"weathersit": 1, "temp": "warm", "atemp": 0.5, "hum": 0.5, "windspeed": 0.2, "hr": 15,
	}
	_, err := ParseRecord(raw)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "season")
	assert.Contains(t, err.Error(), "temp")
}

func TestParseRecord_BadDate(t *testing.T) {
	raw := RawRecord{
		"season": 1, "yr": 0, "mnth": 1, "holiday": 0, "weekday": 0, "workingday": 0,
		"weathersit": 1, "temp": 0.5, "atemp": 0.5, "hum": 0.5, "windspeed": 0.2, "hr": 15,
		"dteday": "01/05/2011",
	}
	_, err := ParseRecord(raw)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
