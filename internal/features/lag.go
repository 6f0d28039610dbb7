package features

import (
	"fmt"
	"sort"

	"github.com/ridecast/ridecast/internal/utils"
	"gonum.org/v1/gonum/stat"
)

// LagOptions controls AddLagFeatures
type LagOptions struct {
	// Shift is how many rows back within an hour group the lag reads (default 24)
	Shift int
	// Fallback fills the lag when no record carries a target
	Fallback *float64
}

// DefaultLagOptions returns the training defaults: one value per hour per day, no fallback
func DefaultLagOptions() LagOptions {
	return LagOptions{Shift: utils.LagShift}
}

// AddLagFeatures sets prev_day_same_hour on every record.
//
// Records are stable-sorted by (dteday, hr), or by hr alone when no record has
// a date. Within each hr group the lag is the target of the record Shift
// positions earlier. Records without such a predecessor, or whose predecessor
// has no target, get the median target of the whole dataset.
//
// The returned slice is in sorted order; callers must build X and y from it.
// The second result is the fill value that was used.
func AddLagFeatures(records []EngineeredRecord, opts LagOptions) ([]EngineeredRecord, float64, error) {
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("%w: no records to compute %s", ErrInvalidInput, ColPrevDaySameHour)
	}

	shift := opts.Shift
	if shift <= 0 {
		shift = utils.LagShift
	}

	fill, err := lagFillValue(records, opts.Fallback)
	if err != nil {
		return nil, 0, err
	}

	out := make([]EngineeredRecord, len(records))
	copy(out, records)

	byDate := false
	for _, r := range out {
		if r.HasDate() {
			byDate = true
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if byDate && !out[i].Dteday.Equal(out[j].Dteday) {
			return out[i].Dteday.Before(out[j].Dteday)
		}
		return out[i].Hr < out[j].Hr
	})

	groups := make(map[int][]int)
	for i, r := range out {
		groups[r.Hr] = append(groups[r.Hr], i)
	}

	for _, idx := range groups {
		for k, i := range idx {
			out[i].Lag = fill
			out[i].HasLag = true
			if k < shift {
				continue
			}
			if prev := out[idx[k-shift]].Cnt; prev != nil {
				out[i].Lag = *prev
			}
		}
	}

	return out, fill, nil
}

func lagFillValue(records []EngineeredRecord, fallback *float64) (float64, error) {
	targets := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Cnt != nil {
			targets = append(targets, *r.Cnt)
		}
	}

	if len(targets) == 0 {
		if fallback == nil {
			return 0, fmt.Errorf("%w: column %s is missing and no lag fallback was given", ErrInvalidInput, ColCnt)
		}
		return *fallback, nil
	}

	return Median(targets), nil
}

// Median returns the median of values, averaging the two middle values for an
// even count. values is not modified. Returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}
