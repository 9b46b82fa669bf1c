package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"
)

// FunnelInsightsSystemMessage frames the model as an onboarding analyst.
const FunnelInsightsSystemMessage = "You are a product analytics expert who specializes in user onboarding funnels. " +
	"Base every insight on the numbers provided and keep recommendations concrete."

// StepSeparator joins step names in the prompt.
const StepSeparator = " → "

// FunnelInsightsInput is the data the insight prompt is built from.
type FunnelInsightsInput struct {
	ProjectName     string
	Steps           []string
	TotalUsers      int64
	CompletionRate  float64
	ConversionRates []float64
	DropOffPoints   []float64
}

// BuildFunnelInsightsPrompt creates the prompt asking for 3-5 numbered insights.
// The numbered "**Type** (Optimization/Pattern/Recommendation)" format it requests
// is what the insight parser splits on.
func BuildFunnelInsightsPrompt(in FunnelInsightsInput) string {
	var b strings.Builder

	b.WriteString("Analyze this onboarding funnel data and provide actionable insights:\n\n")

	fmt.Fprintf(&b, "Project: %s\n", in.ProjectName)
	fmt.Fprintf(&b, "Steps: %s\n", strings.Join(in.Steps, StepSeparator))
	fmt.Fprintf(&b, "Funnel Length: %s\n\n", Count(len(in.Steps), "step"))

	b.WriteString("Funnel Data:\n")
	fmt.Fprintf(&b, "- Total Users: %s\n", FormatThousands(in.TotalUsers))
	fmt.Fprintf(&b, "- Completion Rate: %s%%\n", formatPercent(in.CompletionRate))
	fmt.Fprintf(&b, "- Conversion Rates by Step: %s\n", joinPercents(in.ConversionRates))
	fmt.Fprintf(&b, "- Drop-off Rates by Step: %s\n\n", joinPercents(in.DropOffPoints))

	b.WriteString("Please provide 3-5 specific, actionable insights in the following format:\n")
	b.WriteString("1. **Insight Type** (Optimization/Pattern/Recommendation): Brief title\n")
	b.WriteString("   - Analysis: Detailed explanation of what the data shows\n")
	b.WriteString("   - Action: Specific recommendation to improve this step\n")
	b.WriteString("   - Impact: Expected improvement if implemented\n")
	b.WriteString("   - Confidence: High/Medium/Low\n\n")

	b.WriteString("Focus on the biggest drop-off points and provide concrete suggestions for improvement.\n")

	return b.String()
}

// Count renders n with the singular or plural form of noun, e.g. "1 step", "4 steps".
func Count(n int, noun string) string {
	if n == 1 {
		return "1 " + inflection.Singular(noun)
	}
	return strconv.Itoa(n) + " " + inflection.Plural(noun)
}

// FormatThousands renders n with comma group separators, e.g. 12345 -> "12,345".
func FormatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}

// joinPercents renders [85.5, 60] as "85.5%, 60%". An empty list renders as "%".
func joinPercents(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatPercent(v)
	}
	return strings.Join(parts, "%, ") + "%"
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
