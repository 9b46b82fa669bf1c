// Package models contains domain types for onboardlens.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a named onboarding funnel owned by one user.
// FunnelSteps is ordered; every report of the project is shaped by it.
type Project struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	FunnelSteps []string  `json:"funnel_steps"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StepCount returns the number of funnel steps.
func (p *Project) StepCount() int {
	return len(p.FunnelSteps)
}
