package models

import "time"

// DefaultArea is the profile area used when an agent has never been configured.
const DefaultArea = "unset"

// Identity is an active human account in the external tracker.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Profile is the persisted, operator-editable part of an agent. The profile
// store owns it; an absent row behaves exactly like DefaultProfile.
type Profile struct {
	AgentID        string    `json:"agent_id"`
	Area           string    `json:"area"`
	ScheduleDesc   string    `json:"schedule_desc"`
	HourlyRate     float64   `json:"hourly_rate"`
	NonWorkingDays []string  `json:"non_working_days"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DefaultProfile returns the all-defaults profile for an agent with no stored row.
func DefaultProfile(agentID string) *Profile {
	return &Profile{
		AgentID:        agentID,
		Area:           DefaultArea,
		NonWorkingDays: []string{},
	}
}

// Agent is one roster snapshot entry. The capacity, load, and availability
// figures are derived fresh on every roster build and never persisted.
type Agent struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"display_name"`
	Area           string   `json:"area"`
	ScheduleDesc   string   `json:"schedule_desc"`
	HourlyRate     float64  `json:"hourly_rate"`
	NonWorkingDays []string `json:"non_working_days"`
	CapacityHours  float64  `json:"capacity_hours"`
	LoadHours      float64  `json:"load_hours"`
	Availability   float64  `json:"availability_pct"`
}

// RemainingHours is the capacity still open for new work this week.
func (a *Agent) RemainingHours() float64 {
	return a.CapacityHours - a.LoadHours
}
