package services

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/onboardlens/onboardlens/pkg/models"
)

var (
	// insightSectionPattern splits "1. **Title" style numbered items.
	insightSectionPattern = regexp.MustCompile(`\d+\.\s*\*\*`)
	insightTypePattern    = regexp.MustCompile(`\((Optimization|Pattern|Recommendation)\)`)
	confidencePattern     = regexp.MustCompile(`(?i)Confidence:\s*(High|Medium|Low)`)
)

// Confidence scores assigned from the model's stated confidence.
const (
	ConfidenceHigh    = 0.9
	ConfidenceMedium  = 0.7
	ConfidenceLow     = 0.5
	ConfidenceDefault = 0.8
)

// ParseInsights splits a model response into insight records.
// Parsing is best effort: text before the first numbered item is discarded,
// the type defaults to recommendation and the confidence to ConfidenceDefault.
func ParseInsights(text string, projectID uuid.UUID, reportID *uuid.UUID) []*models.Insight {
	sections := insightSectionPattern.Split(text, -1)
	if len(sections) <= 1 {
		return []*models.Insight{}
	}

	insights := make([]*models.Insight, 0, len(sections)-1)
	for _, section := range sections[1:] {
		title, ok := firstNonBlankLine(section)
		if !ok {
			continue
		}

		insightType := models.InsightTypeRecommendation
		if m := insightTypePattern.FindStringSubmatch(title); m != nil {
			insightType = models.InsightType(strings.ToLower(m[1]))
		}

		score := confidenceScore(section)
		insights = append(insights, &models.Insight{
			ProjectID:       projectID,
			FunnelReportID:  reportID,
			InsightType:     insightType,
			Content:         strings.TrimSpace(section),
			ConfidenceScore: &score,
		})
	}
	return insights
}

func confidenceScore(section string) float64 {
	m := confidencePattern.FindStringSubmatch(section)
	if m == nil {
		return ConfidenceDefault
	}
	switch strings.ToLower(m[1]) {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func firstNonBlankLine(s string) (string, bool) {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}
