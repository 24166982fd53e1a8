package cycles

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
)

// Statistics derives CycleStatistics from cycles using the numerically
// stable two-pass algorithm (mean first, then sum of squared deviations)
// with the population standard-deviation formula (divide by N), per
// spec.md §4.4. N = 0 or 1 yields StdDev = 0. Cannot fail: an empty input
// produces zeroed statistics.
func Statistics(cyclesList []domain.Cycle) domain.CycleStatistics {
	if len(cyclesList) == 0 {
		return domain.CycleStatistics{}
	}

	durations := make([]float64, len(cyclesList))
	var sum, min, max float64
	for i, c := range cyclesList {
		d := c.Duration.Seconds()
		durations[i] = d
		sum += d
		if i == 0 || d < min {
			min = d
		}
		if i == 0 || d > max {
			max = d
		}
	}

	mean := stat.Mean(durations, nil)

	var stdDev float64
	if len(durations) > 1 {
		_, popVariance := stat.PopMeanVariance(durations, nil)
		stdDev = sqrtNonNegative(popVariance)
	}

	first, last := cyclesList[0], cyclesList[len(cyclesList)-1]
	count := len(cyclesList)
	specificAverage := time.Duration(sum/float64(count)*float64(time.Second))
	approximateAverage := (last.End - first.Start) / time.Duration(count)
	idlePerCycle := approximateAverage - specificAverage
	if idlePerCycle < 0 {
		// A negative idle-per-cycle would violate the spec's invariant
		// (approximate average must be >= specific average, since gaps
		// between cycles cannot be negative); clamp defensively rather
		// than surface an impossible statistic.
		idlePerCycle = 0
	}

	return domain.CycleStatistics{
		Count:              count,
		Mean:               secondsToDuration(mean),
		Min:                secondsToDuration(min),
		Max:                secondsToDuration(max),
		StdDev:             secondsToDuration(stdDev),
		SpecificAverage:    specificAverage,
		ApproximateAverage: approximateAverage,
		IdlePerCycle:       idlePerCycle,
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func sqrtNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
