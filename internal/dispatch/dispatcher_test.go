package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleet-dashboard/backend/internal/models"
	"github.com/fleet-dashboard/backend/internal/testutil"
)

func TestDispatchPublishesExactlyOnce(t *testing.T) {
	mock := testutil.NewMockStore()
	d := New(mock)

	cmd, err := d.Dispatch(context.Background(), "robot1", "sensor", models.ActionRun)
	require.NoError(t, err)

	pubs := mock.Publications()
	require.Len(t, pubs, 1)
	assert.Equal(t, "commands:robot1:sensor", pubs[0].Channel)

	var payload models.Command
	require.NoError(t, json.Unmarshal(pubs[0].Payload, &payload))
	assert.Equal(t, "robot1", payload.Device)
	assert.Equal(t, "sensor", payload.Component)
	assert.Equal(t, models.ActionRun, payload.Action)
	assert.NotEmpty(t, payload.RequestID)
	assert.Equal(t, cmd.RequestID, payload.RequestID)
	assert.NotZero(t, payload.Timestamp)
}

func TestDispatchDoesNotMutateStore(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.SetValue("devices:robot1:sensor:status", "active")
	d := New(mock)

	_, err := d.Dispatch(context.Background(), "robot1", "sensor", models.ActionDelete)
	require.NoError(t, err)

	// Delete is a request to the orchestrator, not a local mutation.
	val, ok, _ := mock.Get(context.Background(), "devices:robot1:sensor:status")
	assert.True(t, ok)
	assert.Equal(t, "active", val)
}

func TestDispatchRejectsInvalidInput(t *testing.T) {
	mock := testutil.NewMockStore()
	d := New(mock)

	var verr *ValidationError
	_, err := d.Dispatch(context.Background(), "robot1", "sensor", models.Action("reboot"))
	require.Error(t, err)
	assert.True(t, errors.As(err, &verr))

	_, err = d.Dispatch(context.Background(), "", "sensor", models.ActionRun)
	assert.Error(t, err)
	_, err = d.Dispatch(context.Background(), "robot1", "", models.ActionRun)
	assert.Error(t, err)

	// Nothing was published for any rejected request.
	assert.Empty(t, mock.Publications())
}

func TestDispatchSurfacesTransportFailure(t *testing.T) {
	mock := testutil.NewMockStore()
	mock.FailPublish = true
	mock.FailErr = errors.New("connection refused")
	d := New(mock)

	_, err := d.Dispatch(context.Background(), "robot1", "sensor", models.ActionPause)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
