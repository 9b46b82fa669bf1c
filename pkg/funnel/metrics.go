// Package funnel reduces per-step completion counts to funnel metrics.
// Everything here is pure: no clock, no I/O, no shared state.
package funnel

import (
	"math"
	"time"

	"github.com/onboardlens/onboardlens/pkg/models"
)

// Calculate computes conversion and drop-off percentages for a funnel.
//
// The step count is len(stepNames). Missing completions are treated as zero
// and completions beyond the step count are ignored. Percentages are rounded
// half-up to two decimals. Drop-offs may be negative when a step has more
// completions than the one before it; they are never clamped. Division by zero
// yields 0 rather than an error.
func Calculate(completions []int64, totalUsers int64, stepNames []string, generatedAt time.Time) models.ReportData {
	n := len(stepNames)

	data := models.ReportData{
		ConversionRates: make([]float64, n),
		DropOffPoints:   make([]float64, n),
		TotalUsers:      totalUsers,
		StepNames:       append([]string{}, stepNames...),
		GeneratedAt:     generatedAt,
	}

	for i := 0; i < n; i++ {
		current := completionAt(completions, i)

		if totalUsers > 0 {
			data.ConversionRates[i] = round2(float64(current) * 100 / float64(totalUsers))
		}

		if i == 0 {
			continue
		}
		previous := completionAt(completions, i-1)
		if previous > 0 {
			data.DropOffPoints[i] = round2(float64(previous-current) * 100 / float64(previous))
		}
	}

	if n > 0 {
		data.CompletionRate = data.ConversionRates[n-1]
	}

	return data
}

func completionAt(completions []int64, i int) int64 {
	if i < len(completions) {
		return completions[i]
	}
	return 0
}

// round2 rounds half-up on the x*100 fixed-point value.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// roundHalfUp rounds to the nearest integer, ties toward +Inf.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
