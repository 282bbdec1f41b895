package models

import "time"

// Phase statuses. The stored value is free text on projects but constrained
// to this set on phases.
const (
	PhasePlanning = "Planning"
	PhaseActive   = "Active"
	PhaseAtRisk   = "At Risk"
	PhaseDelayed  = "Delayed"
	PhaseDone     = "Done"
)

// ValidPhaseStatus reports whether s is one of the allowed phase statuses.
func ValidPhaseStatus(s string) bool {
	switch s {
	case PhasePlanning, PhaseActive, PhaseAtRisk, PhaseDelayed, PhaseDone:
		return true
	}
	return false
}

type TeamMember struct {
	ID        int    `json:"id"`
	ProjectID int    `json:"-"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

type Milestone struct {
	Name string     `json:"name"`
	Date *time.Time `json:"date,omitempty"`
}

type Phase struct {
	ID         int         `json:"id"`
	ProjectID  int         `json:"-"`
	Name       string      `json:"name"`
	StartDate  *time.Time  `json:"startDate,omitempty"`
	EndDate    *time.Time  `json:"endDate,omitempty"`
	Status     string      `json:"status"`
	Progress   int         `json:"progress"`
	Assignees  []string    `json:"assignees"`
	Milestones []Milestone `json:"milestones"`
}

type Project struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	ProjectNumber string     `json:"projectNumber"`
	Manager       string     `json:"manager"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"`
	Deadline      *time.Time `json:"deadline,omitempty"`

	Team   []TeamMember `json:"team,omitempty"`
	Phases []Phase      `json:"phases,omitempty"`

	// Calculator fields.
	TotalManHours       float64 `json:"totalManHours"`
	DesiredManpower     float64 `json:"desiredManpower"`
	Efficiency          float64 `json:"efficiency"`
	TargetDurationWeeks float64 `json:"targetDurationWeeks"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EstimatedWeeks derives the schedule estimate from the calculator fields,
// assuming a 40-hour work week. Returns 0 when the inputs cannot produce one.
func (p Project) EstimatedWeeks() float64 {
	effective := p.DesiredManpower * p.Efficiency * 40
	if effective <= 0 {
		return 0
	}
	return p.TotalManHours / effective
}
