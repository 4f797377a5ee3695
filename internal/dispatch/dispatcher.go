// Package dispatch publishes control commands to the orchestrator.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fleet-dashboard/backend/internal/models"
	"github.com/fleet-dashboard/backend/internal/store"
)

// Dispatcher sends fire-and-forget control commands over pub/sub. At most
// once: no retry, no local queue, no delivery confirmation. All state
// transition logic belongs to the orchestrator on the other end; the
// dispatcher does not check whether an action makes sense for the
// component's current status.
type Dispatcher struct {
	store store.Store
}

// New creates a Dispatcher publishing through the given store.
func New(s store.Store) *Dispatcher {
	return &Dispatcher{store: s}
}

// ValidationError marks a request rejected before any publish happened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Dispatch publishes one command for (device, component). The channel name
// is derived deterministically from the component identity; the action
// rides in the payload. Returns the published command on success.
func (d *Dispatcher) Dispatch(ctx context.Context, device, component string, action models.Action) (*models.Command, error) {
	if device == "" {
		return nil, &ValidationError{Field: "device", Reason: "must not be empty"}
	}
	if component == "" {
		return nil, &ValidationError{Field: "component", Reason: "must not be empty"}
	}
	if !models.ValidAction(action) {
		return nil, &ValidationError{Field: "action", Reason: fmt.Sprintf("%q is not one of run, pause, build, delete", action)}
	}

	cmd := &models.Command{
		RequestID: uuid.New().String(),
		Device:    device,
		Component: component,
		Action:    action,
		Timestamp: time.Now().Unix(),
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}

	channel := store.CommandChannel(device, component)
	if err := d.store.Publish(ctx, channel, payload); err != nil {
		return nil, fmt.Errorf("dispatching %s to %s/%s: %w", action, device, component, err)
	}
	return cmd, nil
}
