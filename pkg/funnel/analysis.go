package funnel

import "github.com/onboardlens/onboardlens/pkg/models"

// Drop-off thresholds, in percent, above which a step is flagged.
const (
	HighDropOffThreshold   = 15.0
	MediumDropOffThreshold = 10.0
)

// Severity buckets a drop-off rate.
func Severity(dropOff float64) models.DropOffSeverity {
	switch {
	case dropOff > HighDropOffThreshold:
		return models.SeverityHigh
	case dropOff > MediumDropOffThreshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// Analyze breaks a report down per step and summarizes its drop-offs.
// Rate slices shorter than the step list read as zero.
func Analyze(report *models.FunnelReport) *models.FunnelAnalysis {
	data := report.ReportData
	total := float64(data.TotalUsers)

	analysis := &models.FunnelAnalysis{
		ProjectID: report.ProjectID,
		ReportID:  report.ID,
		Steps:     make([]models.StepAnalysis, 0, len(data.StepNames)),
		Summary: models.AnalysisSummary{
			BiggestDropOffStep: -1,
			CompletedUsers:     roundHalfUp(data.CompletionRate / 100 * total),
		},
	}

	for i, name := range data.StepNames {
		conversion := rateAt(data.ConversionRates, i)
		dropOff := rateAt(data.DropOffPoints, i)

		analysis.Steps = append(analysis.Steps, models.StepAnalysis{
			Step:           name,
			StepNumber:     i + 1,
			ConversionRate: conversion,
			DropOffRate:    dropOff,
			UsersLost:      roundHalfUp(dropOff / 100 * total),
			Severity:       Severity(dropOff),
		})

		analysis.Summary.TotalDropOff += dropOff
		if analysis.Summary.BiggestDropOffStep < 0 || dropOff > analysis.Summary.BiggestDropOff {
			analysis.Summary.BiggestDropOff = dropOff
			analysis.Summary.BiggestDropOffStep = i
		}
	}
	analysis.Summary.TotalDropOff = round2(analysis.Summary.TotalDropOff)

	return analysis
}

// AverageCompletionRate returns the mean completion rate of reports, rounded
// to two decimals. Returns 0 for no reports.
func AverageCompletionRate(reports []*models.FunnelReport) float64 {
	if len(reports) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reports {
		sum += r.ReportData.CompletionRate
	}
	return round2(sum / float64(len(reports)))
}

func rateAt(rates []float64, i int) float64 {
	if i < len(rates) {
		return rates[i]
	}
	return 0
}
