package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/backend/internal/models"
)

// Wednesday; the containing week is Mon 2025-03-10 .. Fri 2025-03-14.
var testRef = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockDirectory struct {
	identities []models.Identity
	err        error
}

func (m *mockDirectory) ListActiveAgents(context.Context) ([]models.Identity, error) {
	return m.identities, m.err
}

type mockProfiles struct {
	profiles map[string]*models.Profile
	err      error
}

func (m *mockProfiles) GetAll(context.Context) (map[string]*models.Profile, error) {
	return m.profiles, m.err
}

type mockItems struct {
	items []models.WorkItem
	err   error
}

func (m *mockItems) SearchOpenItems(context.Context, string) ([]models.WorkItem, error) {
	return m.items, m.err
}

func newTestBuilder(dir *mockDirectory, profiles *mockProfiles, items *mockItems) *RosterBuilder {
	b := NewRosterBuilder(dir, profiles, items, slog.New(slog.DiscardHandler))
	b.now = func() time.Time { return testRef }
	return b
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestBuildRosterComputesCapacityLoadAndAvailability(t *testing.T) {
	dir := &mockDirectory{identities: []models.Identity{
		{ID: "a", DisplayName: "Ana"},
		{ID: "b", DisplayName: "Bruno"},
	}}
	profiles := &mockProfiles{profiles: map[string]*models.Profile{
		// 8h/day x 5 days = 40h capacity.
		"a": {AgentID: "a", Area: "Billing", ScheduleDesc: "09:00 - 17:00", HourlyRate: 120},
		// 6h/day x 5 days = 30h capacity.
		"b": {AgentID: "b", Area: "Billing", ScheduleDesc: "09:00 - 15:00"},
	}}
	items := &mockItems{items: []models.WorkItem{
		{ID: "1", AssigneeID: "a", EstimateSeconds: 8 * 3600},
		{ID: "2", AssigneeID: "b", EstimateSeconds: 12 * 3600},
		{ID: "3", EstimateSeconds: 999999}, // unassigned, counts for nobody
	}}

	roster, err := newTestBuilder(dir, profiles, items).BuildRoster(context.Background(), "SD")
	require.NoError(t, err)
	require.Len(t, roster, 2)

	// Ana: 40h capacity, 8h load -> 80% availability, ranked first.
	assert.Equal(t, "a", roster[0].ID)
	assert.Equal(t, 40.0, roster[0].CapacityHours)
	assert.Equal(t, 8.0, roster[0].LoadHours)
	assert.InDelta(t, 80.0, roster[0].Availability, 1e-9)

	// Bruno: 30h capacity, 12h load -> 60% availability.
	assert.Equal(t, "b", roster[1].ID)
	assert.Equal(t, 30.0, roster[1].CapacityHours)
	assert.Equal(t, 12.0, roster[1].LoadHours)
	assert.InDelta(t, 60.0, roster[1].Availability, 1e-9)
}

func TestBuildRosterAbsentProfileUsesDefaults(t *testing.T) {
	dir := &mockDirectory{identities: []models.Identity{{ID: "x", DisplayName: "Xena"}}}

	roster, err := newTestBuilder(dir, &mockProfiles{}, &mockItems{}).BuildRoster(context.Background(), "SD")
	require.NoError(t, err)
	require.Len(t, roster, 1)

	ag := roster[0]
	assert.Equal(t, models.DefaultArea, ag.Area)
	assert.Equal(t, 0.0, ag.HourlyRate)
	assert.Equal(t, 40.0, ag.CapacityHours, "default schedule is 8h/day")
	assert.Equal(t, 100.0, ag.Availability)
}

func TestBuildRosterAvailabilityClampedAtZero(t *testing.T) {
	dir := &mockDirectory{identities: []models.Identity{{ID: "o", DisplayName: "Overbooked"}}}
	items := &mockItems{items: []models.WorkItem{
		{ID: "1", AssigneeID: "o", EstimateSeconds: 90 * 3600}, // load far above capacity
	}}

	roster, err := newTestBuilder(dir, &mockProfiles{}, items).BuildRoster(context.Background(), "SD")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, 0.0, roster[0].Availability)
}

func TestBuildRosterZeroCapacityIsFullyAvailable(t *testing.T) {
	dir := &mockDirectory{identities: []models.Identity{{ID: "z", DisplayName: "Zoe"}}}
	// Every weekday of the reference week is a non-working day.
	week := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		week = append(week, time.Date(2025, 3, 10+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}
	profiles := &mockProfiles{profiles: map[string]*models.Profile{
		"z": {AgentID: "z", Area: "Billing", ScheduleDesc: "09:00 - 17:00", NonWorkingDays: week},
	}}
	items := &mockItems{items: []models.WorkItem{
		{ID: "1", AssigneeID: "z", EstimateSeconds: 4 * 3600},
	}}

	roster, err := newTestBuilder(dir, profiles, items).BuildRoster(context.Background(), "SD")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, 0.0, roster[0].CapacityHours)
	assert.Equal(t, 100.0, roster[0].Availability)
}

func TestBuildRosterStableOrderOnTies(t *testing.T) {
	// Four agents, no profiles, no load: all at 100%. Directory order must hold.
	dir := &mockDirectory{identities: []models.Identity{
		{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"},
	}}

	roster, err := newTestBuilder(dir, &mockProfiles{}, &mockItems{}).BuildRoster(context.Background(), "SD")
	require.NoError(t, err)
	require.Len(t, roster, 4)
	for i, want := range []string{"1", "2", "3", "4"} {
		assert.Equal(t, want, roster[i].ID)
	}
}

func TestBuildRosterFailsEmptyOnAnyReadError(t *testing.T) {
	boom := fmt.Errorf("connection refused")
	cases := []struct {
		name     string
		dir      *mockDirectory
		profiles *mockProfiles
		items    *mockItems
	}{
		{"directory error", &mockDirectory{err: boom}, &mockProfiles{}, &mockItems{}},
		{"profile store error", &mockDirectory{}, &mockProfiles{err: boom}, &mockItems{}},
		{"item query error", &mockDirectory{}, &mockProfiles{}, &mockItems{err: boom}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			roster, err := newTestBuilder(tc.dir, tc.profiles, tc.items).BuildRoster(context.Background(), "SD")
			require.Error(t, err)
			assert.Nil(t, roster, "a failed build must never return a partial roster")
		})
	}
}
