package models

// WorkItem is an unresolved item read from the external tracker. The tracker
// owns its lifecycle end to end; the engine only reads it and, on assignment
// or cost accrual, writes a single field back.
type WorkItem struct {
	ID              string   `json:"id"`
	Key             string   `json:"key"`
	Summary         string   `json:"summary"`
	AssigneeID      string   `json:"assignee_id,omitempty"`
	EstimateSeconds int64    `json:"estimate_seconds"`
	RequiredAreas   []string `json:"required_areas,omitempty"`
}
