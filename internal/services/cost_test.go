package services

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffdesk/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockCostingReader struct {
	assigneeID string
	seconds    int64
	err        error
}

func (m *mockCostingReader) GetItemCosting(context.Context, string) (string, int64, error) {
	return m.assigneeID, m.seconds, m.err
}

type mockProfileGetter struct {
	profile *models.Profile
	err     error
}

func (m *mockProfileGetter) Get(context.Context, string) (*models.Profile, error) {
	return m.profile, m.err
}

type mockFieldWriter struct {
	itemID  string
	fieldID string
	value   float64
	calls   int
	err     error
}

func (m *mockFieldWriter) SetNumberField(_ context.Context, itemID, fieldID string, value float64) error {
	m.calls++
	m.itemID, m.fieldID, m.value = itemID, fieldID, value
	return m.err
}

func newTestCostService(items *mockCostingReader, profiles *mockProfileGetter, writer *mockFieldWriter) *CostService {
	return NewCostService(items, profiles, writer, "customfield_10060", slog.New(slog.DiscardHandler))
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCostRecomputedFromRateAndTimeSpent(t *testing.T) {
	writer := &mockFieldWriter{}
	svc := newTestCostService(
		&mockCostingReader{assigneeID: "a", seconds: 7200},
		&mockProfileGetter{profile: &models.Profile{AgentID: "a", HourlyRate: 150}},
		writer,
	)

	require.NoError(t, svc.OnWorklogUpdated(context.Background(), "10001"))
	require.Equal(t, 1, writer.calls)
	assert.Equal(t, "10001", writer.itemID)
	assert.Equal(t, "customfield_10060", writer.fieldID)
	assert.Equal(t, 300.0, writer.value, "2h x 150/h")
}

func TestCostNoAssigneeIsNoop(t *testing.T) {
	writer := &mockFieldWriter{}
	svc := newTestCostService(&mockCostingReader{seconds: 7200}, &mockProfileGetter{}, writer)

	require.NoError(t, svc.OnWorklogUpdated(context.Background(), "10001"))
	assert.Zero(t, writer.calls)
}

func TestCostZeroRateIsNoop(t *testing.T) {
	writer := &mockFieldWriter{}
	svc := newTestCostService(
		&mockCostingReader{assigneeID: "a", seconds: 7200},
		&mockProfileGetter{profile: &models.Profile{AgentID: "a", HourlyRate: 0}},
		writer,
	)

	require.NoError(t, svc.OnWorklogUpdated(context.Background(), "10001"))
	assert.Zero(t, writer.calls, "an unset (zero) rate must not produce a cost write")
}

func TestCostAbsentProfileIsNoop(t *testing.T) {
	writer := &mockFieldWriter{}
	svc := newTestCostService(
		&mockCostingReader{assigneeID: "a", seconds: 3600},
		&mockProfileGetter{profile: nil},
		writer,
	)

	require.NoError(t, svc.OnWorklogUpdated(context.Background(), "10001"))
	assert.Zero(t, writer.calls)
}

func TestCostReadErrorPropagates(t *testing.T) {
	writer := &mockFieldWriter{}
	svc := newTestCostService(
		&mockCostingReader{err: fmt.Errorf("connection refused")},
		&mockProfileGetter{},
		writer,
	)

	require.Error(t, svc.OnWorklogUpdated(context.Background(), "10001"))
	assert.Zero(t, writer.calls)
}

func TestCostWriteFailureIsNonFatal(t *testing.T) {
	writer := &mockFieldWriter{err: fmt.Errorf("400 field not on screen")}
	svc := newTestCostService(
		&mockCostingReader{assigneeID: "a", seconds: 1800},
		&mockProfileGetter{profile: &models.Profile{AgentID: "a", HourlyRate: 100}},
		writer,
	)

	require.NoError(t, svc.OnWorklogUpdated(context.Background(), "10001"),
		"mutation failure is logged, not retried")
	assert.Equal(t, 1, writer.calls)
}
