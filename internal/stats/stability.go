package stats

import (
	"math"
	"slices"
)

// XmRResult is an Individuals and Moving Range chart over weekly PPC.
type XmRResult struct {
	Average     float64   `json:"average"`
	Median      float64   `json:"median"`
	AmR         float64   `json:"averageMovingRange"`
	UNPL        float64   `json:"upperNaturalProcessLimit"`
	LNPL        float64   `json:"lowerNaturalProcessLimit"`
	Values      []float64 `json:"values"`
	Keys        []string  `json:"keys"`
	MovingRange []float64 `json:"movingRanges"`
	Signals     []Signal  `json:"signals"`
}

// Signal is a week whose PPC departs from routine variation.
type Signal struct {
	Index       int    `json:"index"`
	Key         string `json:"key"`
	Type        string `json:"type"` // "outlier", "shift"
	Description string `json:"description"`
}

// Wheeler's scaling constant for individuals charts.
const xmrScale = 2.66

// shiftRun is the number of consecutive weeks on one side of the average that
// signals a shift.
const shiftRun = 8

// CalculatePPCStability charts the weekly PPC of a trend. Weeks without tasks
// are skipped so an idle week does not read as a collapse.
func CalculatePPCStability(trend TrendSummary) XmRResult {
	var values []float64
	var keys []string
	for _, w := range trend.Weeks {
		if w.TotalTasks == 0 {
			continue
		}
		values = append(values, w.Percentage)
		keys = append(keys, w.Week)
	}
	return CalculateXmR(values, keys)
}

// CalculateXmR computes the chart limits and binds keys to the signals.
// Limits are clamped to the 0-100 percentage range.
func CalculateXmR(values []float64, keys []string) XmRResult {
	if len(values) == 0 {
		return XmRResult{}
	}

	result := XmRResult{
		Values: values,
		Keys:   keys,
		Median: median(values),
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	result.Average = sum / float64(len(values))

	if len(values) > 1 {
		mrSum := 0.0
		result.MovingRange = make([]float64, len(values)-1)
		for i := 0; i < len(values)-1; i++ {
			mr := math.Abs(values[i+1] - values[i])
			result.MovingRange[i] = mr
			mrSum += mr
		}
		result.AmR = mrSum / float64(len(values)-1)
	}

	result.UNPL = math.Min(100, result.Average+xmrScale*result.AmR)
	result.LNPL = math.Max(0, result.Average-xmrScale*result.AmR)
	result.Signals = detectSignals(values, result.Average, result.UNPL, result.LNPL, keys)
	return result
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	temp := slices.Clone(values)
	slices.Sort(temp)

	n := len(temp)
	if n%2 == 1 {
		return temp[n/2]
	}
	return (temp[n/2-1] + temp[n/2]) / 2.0
}

func detectSignals(values []float64, avg, unpl, lnpl float64, keys []string) []Signal {
	var signals []Signal
	keyAt := func(i int) string {
		if i < len(keys) {
			return keys[i]
		}
		return ""
	}

	for i, v := range values {
		if v > unpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         keyAt(i),
				Type:        "outlier",
				Description: "PPC above the upper natural process limit",
			})
		} else if v < lnpl {
			signals = append(signals, Signal{
				Index:       i,
				Key:         keyAt(i),
				Type:        "outlier",
				Description: "PPC below the lower natural process limit",
			})
		}
	}

	if len(values) < shiftRun {
		return signals
	}
	side, count := 0, 0
	for i, v := range values {
		current := 0
		if v > avg {
			current = 1
		} else if v < avg {
			current = -1
		}

		if current == side && current != 0 {
			count++
		} else {
			side = current
			count = 1
		}

		if count == shiftRun {
			signals = append(signals, Signal{
				Index:       i,
				Key:         keyAt(i),
				Type:        "shift",
				Description: "8 consecutive weeks on one side of the average PPC",
			})
		}
	}
	return signals
}
