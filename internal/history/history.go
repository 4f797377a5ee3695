// Package history archives component status transitions in a DuckDB file
// so the timeline view can show more than the live snapshot. The archive is
// a side channel: the poller appends to it after a poll completes, and the
// live view model never reads from it.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/fleet-dashboard/backend/internal/models"
)

// Transition is one observed status change for a component.
type Transition struct {
	Device     string        `json:"device"`
	Component  string        `json:"component"`
	From       models.Status `json:"from"`
	To         models.Status `json:"to"`
	ObservedAt int64         `json:"observedAt"` // epoch seconds
}

// Archive is a DuckDB-backed append-only transition log. Writes batch in
// memory and flush once per poll cycle.
type Archive struct {
	mu    sync.Mutex
	db    *sql.DB
	batch []Transition
}

// Open creates or reopens the archive at dbPath.
func Open(dbPath string) (*Archive, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		if _, err := execer.ExecContext(context.Background(), "PRAGMA enable_progress_bar=false", nil); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", dbPath, err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			device      VARCHAR NOT NULL,
			component   VARCHAR NOT NULL,
			from_status VARCHAR NOT NULL,
			to_status   VARCHAR NOT NULL,
			observed_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating transitions table: %w", err)
	}

	return &Archive{db: db}, nil
}

// Record queues a transition for the next flush.
func (a *Archive) Record(t Transition) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.batch = append(a.batch, t)
}

// Flush writes all queued transitions. Called by the poller at the end of
// each cycle; a flush error drops the batch rather than letting it grow.
func (a *Archive) Flush(ctx context.Context) error {
	a.mu.Lock()
	batch := a.batch
	a.batch = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history flush: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO transitions (device, component, from_status, to_status, observed_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range batch {
		if _, err := stmt.ExecContext(ctx, t.Device, t.Component, string(t.From), string(t.To), t.ObservedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting transition: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history flush: %w", err)
	}
	return nil
}

// Since returns all transitions observed at or after the given epoch
// seconds, oldest first.
func (a *Archive) Since(ctx context.Context, since int64) ([]Transition, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT device, component, from_status, to_status, observed_at FROM transitions WHERE observed_at >= ? ORDER BY observed_at",
		since)
	if err != nil {
		return nil, fmt.Errorf("querying transitions: %w", err)
	}
	defer rows.Close()

	transitions := []Transition{}
	for rows.Next() {
		var t Transition
		var from, to string
		if err := rows.Scan(&t.Device, &t.Component, &from, &to, &t.ObservedAt); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		t.From = models.Status(from)
		t.To = models.Status(to)
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

// Close flushes nothing and releases the database.
func (a *Archive) Close() error {
	return a.db.Close()
}
