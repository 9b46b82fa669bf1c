package funnel

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/onboardlens/onboardlens/pkg/models"
)

var fixedTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

var sixSteps = []string{"Sign up", "Verify email", "Profile", "Connect data", "Invite team", "First report"}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		completions []int64
		total       int64
		steps       []string
		want        models.ReportData
	}{
		{
			name:  "empty funnel",
			steps: []string{},
			want: models.ReportData{
				ConversionRates: []float64{},
				DropOffPoints:   []float64{},
				StepNames:       []string{},
				GeneratedAt:     fixedTime,
			},
		},
		{
			name:        "six step decay",
			completions: []int64{100, 85, 72, 58, 45, 38},
			total:       100,
			steps:       sixSteps,
			want: models.ReportData{
				ConversionRates: []float64{100, 85, 72, 58, 45, 38},
				DropOffPoints:   []float64{0, 15, 15.29, 19.44, 22.41, 15.56},
				TotalUsers:      100,
				CompletionRate:  38,
				StepNames:       sixSteps,
				GeneratedAt:     fixedTime,
			},
		},
		{
			name:        "re-entry gives negative drop-off",
			completions: []int64{50, 60},
			total:       100,
			steps:       []string{"a", "b"},
			want: models.ReportData{
				ConversionRates: []float64{50, 60},
				DropOffPoints:   []float64{0, -20},
				TotalUsers:      100,
				CompletionRate:  60,
				StepNames:       []string{"a", "b"},
				GeneratedAt:     fixedTime,
			},
		},
		{
			name:        "zero total users zeroes conversion",
			completions: []int64{10, 5},
			total:       0,
			steps:       []string{"a", "b"},
			want: models.ReportData{
				ConversionRates: []float64{0, 0},
				DropOffPoints:   []float64{0, 50},
				StepNames:       []string{"a", "b"},
				GeneratedAt:     fixedTime,
			},
		},
		{
			name:        "sparse completions read as zero",
			completions: []int64{100},
			total:       100,
			steps:       []string{"a", "b", "c"},
			want: models.ReportData{
				ConversionRates: []float64{100, 0, 0},
				DropOffPoints:   []float64{0, 100, 0},
				TotalUsers:      100,
				CompletionRate:  0,
				StepNames:       []string{"a", "b", "c"},
				GeneratedAt:     fixedTime,
			},
		},
		{
			name:        "extra completions ignored",
			completions: []int64{200, 100, 50},
			total:       400,
			steps:       []string{"a", "b"},
			want: models.ReportData{
				ConversionRates: []float64{50, 25},
				DropOffPoints:   []float64{0, 50},
				TotalUsers:      400,
				CompletionRate:  25,
				StepNames:       []string{"a", "b"},
				GeneratedAt:     fixedTime,
			},
		},
		{
			name:        "rounds half up",
			completions: []int64{3, 1},
			total:       8,
			steps:       []string{"a", "b"},
			want: models.ReportData{
				// 37.5 and 12.5 are exact; 66.666... rounds to 66.67
				ConversionRates: []float64{37.5, 12.5},
				DropOffPoints:   []float64{0, 66.67},
				TotalUsers:      8,
				CompletionRate:  12.5,
				StepNames:       []string{"a", "b"},
				GeneratedAt:     fixedTime,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.completions, tt.total, tt.steps, fixedTime)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Calculate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculate_MonotonicCompletionsNeverNegative(t *testing.T) {
	inputs := [][]int64{
		{1000, 1000, 999, 500, 0},
		{7, 3, 3, 1},
		{1, 0, 0},
	}
	for _, completions := range inputs {
		steps := make([]string, len(completions))
		for i := range steps {
			steps[i] = "s"
		}
		got := Calculate(completions, completions[0], steps, fixedTime)
		for i, d := range got.DropOffPoints {
			if d < 0 {
				t.Errorf("completions %v: drop_off[%d] = %v, want >= 0", completions, i, d)
			}
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	completions := []int64{9000, 6100, 4333, 4333, 12}

	first, err := json.Marshal(Calculate(completions, 9876, sixSteps[:5], fixedTime))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := json.Marshal(Calculate(completions, 9876, sixSteps[:5], fixedTime))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("expected identical output:\n%s\n%s", first, second)
	}
}

func TestCalculate_DoesNotAliasStepNames(t *testing.T) {
	steps := []string{"a", "b"}
	got := Calculate([]int64{1, 1}, 1, steps, fixedTime)
	steps[0] = "mutated"

	if got.StepNames[0] != "a" {
		t.Errorf("expected report to keep its own copy of step names, got %q", got.StepNames[0])
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{15.294117647, 15.29},
		{15.555555556, 15.56},
		{0.005, 0.01},
		{-20, -20},
		{-0.125, -0.12},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
