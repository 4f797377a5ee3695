package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/fleet-dashboard/backend/internal/dispatch"
	"github.com/fleet-dashboard/backend/internal/models"
)

// Handler handles API requests.
type Handler struct {
	snapshots SnapshotSource
	commands  CommandDispatcher
	pinger    Pinger
	// archive is nil when the history feature is disabled.
	archive TransitionReader
}

// NewHandler creates a new API handler. archive may be nil.
func NewHandler(snapshots SnapshotSource, commands CommandDispatcher, pinger Pinger, archive TransitionReader) *Handler {
	return &Handler{
		snapshots: snapshots,
		commands:  commands,
		pinger:    pinger,
		archive:   archive,
	}
}

// HandleHealth returns server health and store reachability.
func (h *Handler) HandleHealth(c echo.Context) error {
	storeStatus := "ok"
	if err := h.pinger.Ping(c.Request().Context()); err != nil {
		storeStatus = "unreachable"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"store":  storeStatus,
	})
}

// HandleSnapshot returns the full view model from the latest poll.
func (h *Handler) HandleSnapshot(c echo.Context) error {
	return c.JSON(http.StatusOK, h.snapshots.Snapshot())
}

// HandleSnapshotMsgpack returns the view model msgpack-encoded for clients
// that want the compact form.
func (h *Handler) HandleSnapshotMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.snapshots.Snapshot())
	if err != nil {
		return &APIError{Status: http.StatusInternalServerError, Code: "ENCODE_ERROR", Message: "failed to encode snapshot"}
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleDevices returns the device cards.
func (h *Handler) HandleDevices(c echo.Context) error {
	return c.JSON(http.StatusOK, h.snapshots.Snapshot().Devices)
}

// HandleDevice returns one device card.
func (h *Handler) HandleDevice(c echo.Context) error {
	name := c.Param("device")
	device, ok := h.snapshots.Snapshot().Device(name)
	if !ok {
		return NewNotFoundError("device", name)
	}
	return c.JSON(http.StatusOK, device)
}

// HandleLogs returns log entries, optionally filtered by source and capped
// by limit.
func (h *Handler) HandleLogs(c echo.Context) error {
	source := c.QueryParam("source")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewBadRequestError("limit must be a non-negative integer", err)
		}
		limit = n
	}

	logs := h.snapshots.Snapshot().Logs
	if source != "" {
		filtered := []models.LogEntry{}
		for _, e := range logs {
			if e.Source == source {
				filtered = append(filtered, e)
			}
		}
		logs = filtered
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	return c.JSON(http.StatusOK, logs)
}

// HandleTimeline returns the live phase bars from the latest snapshot.
func (h *Handler) HandleTimeline(c echo.Context) error {
	return c.JSON(http.StatusOK, h.snapshots.Snapshot().Timeline)
}

// HandleTimelineHistory returns archived status transitions since an epoch
// timestamp (default: last hour).
func (h *Handler) HandleTimelineHistory(c echo.Context) error {
	if h.archive == nil {
		return NewServiceUnavailableError("history archive is disabled")
	}

	since := time.Now().Add(-time.Hour).Unix()
	if raw := c.QueryParam("since"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return NewBadRequestError("since must be epoch seconds", err)
		}
		since = n
	}

	transitions, err := h.archive.Since(c.Request().Context(), since)
	if err != nil {
		return &APIError{Status: http.StatusInternalServerError, Code: "HISTORY_ERROR", Message: "failed to read history", Details: err.Error()}
	}
	return c.JSON(http.StatusOK, transitions)
}

// CommandRequest is the body of POST /api/commands.
type CommandRequest struct {
	Device    string        `json:"device"`
	Component string        `json:"component"`
	Action    models.Action `json:"action"`
}

// HandleCommand dispatches a control command. 202 on publish: accepted by
// the channel, not confirmed by the orchestrator.
func (h *Handler) HandleCommand(c echo.Context) error {
	var req CommandRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	cmd, err := h.commands.Dispatch(c.Request().Context(), req.Device, req.Component, req.Action)
	if err != nil {
		var verr *dispatch.ValidationError
		if errors.As(err, &verr) {
			return NewBadRequestError(verr.Error(), nil)
		}
		return NewBadGatewayError("failed to publish command", err)
	}
	return c.JSON(http.StatusAccepted, cmd)
}
