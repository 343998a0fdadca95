package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/backend/internal/models"
)

// mockProfileStore is an in-memory ProfileStore.
type mockProfileStore struct {
	rows map[string]*models.Profile
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{rows: make(map[string]*models.Profile)}
}

func (m *mockProfileStore) Get(_ context.Context, agentID string) (*models.Profile, error) {
	return m.rows[agentID], nil
}

func (m *mockProfileStore) Upsert(_ context.Context, p *models.Profile) error {
	cp := *p
	m.rows[p.AgentID] = &cp
	return nil
}

func newTestProfileService(store ProfileStore) *ProfileService {
	return NewProfileService(store, slog.New(slog.DiscardHandler))
}

func TestSaveNormalizesNonWorkingDays(t *testing.T) {
	store := newMockProfileStore()
	svc := newTestProfileService(store)

	p, err := svc.Save(context.Background(), "a", "Billing", "09:00 - 17:00", 120,
		[]string{"2025-03-14", "2025-03-10", "2025-03-14"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10", "2025-03-14"}, p.NonWorkingDays)
	assert.Equal(t, "Billing", store.rows["a"].Area)
}

func TestSaveRejectsNegativeRateAndBadDates(t *testing.T) {
	svc := newTestProfileService(newMockProfileStore())

	_, err := svc.Save(context.Background(), "a", "Billing", "", -1, nil)
	require.Error(t, err)

	_, err = svc.Save(context.Background(), "a", "Billing", "", 0, []string{"14/03/2025"})
	require.Error(t, err)
}

func TestSaveEmptyAreaDefaults(t *testing.T) {
	store := newMockProfileStore()
	svc := newTestProfileService(store)

	_, err := svc.Save(context.Background(), "a", "", "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultArea, store.rows["a"].Area)
}

func TestAddNonWorkingDaySetSemantics(t *testing.T) {
	store := newMockProfileStore()
	svc := newTestProfileService(store)

	days, err := svc.AddNonWorkingDay(context.Background(), "a", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-14"}, days)

	// Earlier date sorts first.
	days, err = svc.AddNonWorkingDay(context.Background(), "a", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10", "2025-03-14"}, days)

	// Duplicate add is a no-op.
	days, err = svc.AddNonWorkingDay(context.Background(), "a", "2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10", "2025-03-14"}, days)
}

func TestAddNonWorkingDayCreatesProfileImplicitly(t *testing.T) {
	store := newMockProfileStore()
	svc := newTestProfileService(store)

	_, err := svc.AddNonWorkingDay(context.Background(), "new-agent", "2025-03-14")
	require.NoError(t, err)

	created := store.rows["new-agent"]
	require.NotNil(t, created, "first set operation upserts the profile row")
	assert.Equal(t, models.DefaultArea, created.Area)
}

func TestRemoveNonWorkingDay(t *testing.T) {
	store := newMockProfileStore()
	store.rows["a"] = &models.Profile{
		AgentID:        "a",
		Area:           "Billing",
		NonWorkingDays: []string{"2025-03-10", "2025-03-14"},
	}
	svc := newTestProfileService(store)

	days, err := svc.RemoveNonWorkingDay(context.Background(), "a", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-14"}, days)

	// Removing an absent date is a no-op.
	days, err = svc.RemoveNonWorkingDay(context.Background(), "a", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-14"}, days)
}

func TestNonWorkingDayRejectsInvalidDate(t *testing.T) {
	svc := newTestProfileService(newMockProfileStore())

	_, err := svc.AddNonWorkingDay(context.Background(), "a", "not-a-date")
	require.Error(t, err)
	_, err = svc.RemoveNonWorkingDay(context.Background(), "a", "2025-13-40")
	require.Error(t, err)
}
