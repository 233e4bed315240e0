package pattern

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/statement-mapper/internal/model"
)

type frequencyTarget struct {
	frequency model.Frequency
	label     string
	days      float64
	tolerance float64
}

var frequencyTargets = []frequencyTarget{
	{frequency: model.FrequencyWeekly, label: "Weekly", days: 7, tolerance: 2},
	{frequency: model.FrequencyBiweekly, label: "Bi-weekly", days: 14, tolerance: 3},
	{frequency: model.FrequencyMonthly, label: "Monthly", days: 30, tolerance: 5},
	{frequency: model.FrequencyQuarterly, label: "Quarterly", days: 91, tolerance: 10},
	{frequency: model.FrequencyAnnual, label: "Annual", days: 365, tolerance: 15},
}

const (
	irregularConfidence  = 50
	customConsistencyMax = 0.3
	proximityWeight      = 0.6
	consistencyWeight    = 0.4
	hoursPerDay          = 24
)

// DetectFrequency classifies the cadence of dates by the mean and spread of
// the positive day intervals between them. Input order does not matter.
func (d *Detector) DetectFrequency(dates []time.Time, minSamples int) *FrequencyResult {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if len(dates) < minSamples {
		return insufficientData()
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	intervals := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		days := math.Round(sorted[i].Sub(sorted[i-1]).Hours() / hoursPerDay)
		if days > 0 {
			intervals = append(intervals, days)
		}
	}
	if len(intervals) == 0 {
		return insufficientData()
	}

	avg, std := meanStdDev(intervals)
	result := &FrequencyResult{
		AverageIntervalDays: avg,
		StandardDeviation:   std,
	}

	bestScore := -1.0
	for _, target := range frequencyTargets {
		deviation := math.Abs(avg - target.days)
		if deviation > target.tolerance {
			continue
		}
		proximity := 1 - deviation/target.tolerance
		consistency := math.Max(0, 1-std/(2*target.tolerance))
		score := proximityWeight*proximity + consistencyWeight*consistency
		if score > bestScore {
			bestScore = score
			result.Frequency = target.frequency
			result.Label = target.label
			result.Confidence = int(math.Round(score * 100))
		}
	}
	if bestScore >= 0 {
		return result
	}

	if std < customConsistencyMax*avg {
		result.Frequency = model.FrequencyCustom
		result.Label = fmt.Sprintf("Every %d days", int(math.Round(avg)))
		result.Confidence = int(math.Round((1 - std/avg) * 100))
		return result
	}

	result.Frequency = model.FrequencyIrregular
	result.Label = "Irregular"
	result.Confidence = irregularConfidence
	return result
}

func insufficientData() *FrequencyResult {
	return &FrequencyResult{
		Frequency: model.FrequencyInsufficientData,
		Label:     "Insufficient data",
	}
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
