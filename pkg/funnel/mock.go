package funnel

import (
	"math/rand/v2"
	"time"

	"github.com/onboardlens/onboardlens/pkg/models"
)

// Bounds for simulated audiences.
const (
	MockMinUsers = 10000
	MockMaxUsers = 59999
)

// RandSource is the subset of *rand.Rand used by MockGenerator.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// MockGenerator produces plausible funnel data for projects that have no
// integration wired up yet. Completions decay monotonically step over step.
type MockGenerator struct {
	rng RandSource
}

// NewMockGenerator creates a generator. A nil source uses a time-seeded PCG.
func NewMockGenerator(rng RandSource) *MockGenerator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &MockGenerator{rng: rng}
}

// Completions simulates per-step completions for stepCount steps.
// Every user starts the first step; each later step retains 80-95% of the previous one.
func (g *MockGenerator) Completions(stepCount int) (completions []int64, totalUsers int64) {
	totalUsers = int64(MockMinUsers + g.rng.IntN(MockMaxUsers-MockMinUsers+1))

	completions = make([]int64, stepCount)
	current := float64(totalUsers)
	for i := range completions {
		if i > 0 {
			current *= 0.80 + 0.15*g.rng.Float64()
		}
		completions[i] = int64(current)
	}
	return completions, totalUsers
}

// Generate simulates completions for stepNames and runs them through Calculate.
func (g *MockGenerator) Generate(stepNames []string, generatedAt time.Time) models.ReportData {
	completions, total := g.Completions(len(stepNames))
	return Calculate(completions, total, stepNames, generatedAt)
}
