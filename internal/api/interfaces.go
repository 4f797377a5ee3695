// interfaces.go - Handler dependency interfaces for clean separation of concerns
package api

import (
	"context"

	"github.com/fleet-dashboard/backend/internal/dispatch"
	"github.com/fleet-dashboard/backend/internal/history"
	"github.com/fleet-dashboard/backend/internal/models"
)

// SnapshotSource provides the latest poll snapshot.
// This allows mocking in tests.
type SnapshotSource interface {
	Snapshot() *models.Snapshot
	Subscribe() <-chan *models.Snapshot
	Unsubscribe(<-chan *models.Snapshot)
}

// CommandDispatcher publishes control commands.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, device, component string, action models.Action) (*models.Command, error)
}

// Pinger checks store liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TransitionReader reads archived status transitions.
type TransitionReader interface {
	Since(ctx context.Context, since int64) ([]history.Transition, error)
}

// Compile-time checks that the real implementations satisfy the interfaces.
var (
	_ CommandDispatcher = (*dispatch.Dispatcher)(nil)
	_ TransitionReader  = (*history.Archive)(nil)
)
