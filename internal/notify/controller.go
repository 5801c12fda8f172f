// Package notify owns the "alert once per run" semantics: the AlertedSet,
// alert delivery with rollback on failure, and promotion of first successful
// alerts to durable detection records.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/your-org/facewatch/internal/models"
	"github.com/your-org/facewatch/internal/observability"
)

const fullTimestampFormat = "02/01/2006 15:04:05"

// AttendanceLogger appends a detection time to the durable attendance log.
type AttendanceLogger interface {
	Append(name, identityID, branch, timeOfDay string) error
}

// RecordStore persists detection records durably.
type RecordStore interface {
	InsertDetections(ctx context.Context, events []models.DetectionEvent) error
}

// EventPublisher fans detection events out to downstream consumers.
type EventPublisher interface {
	PublishDetection(ctx context.Context, ev models.DetectionEvent) error
}

// Controller applies the per-detection algorithm:
//
//  1. always append to the attendance log,
//  2. atomically test-and-set the AlertedSet before any network call,
//  3. deliver the alert with a bounded timeout,
//  4. on failure remove the id (retry on a future detection); on success
//     keep it for the process lifetime and persist a durable record.
type Controller struct {
	alerted    *AlertedSet
	sender     AlertSender
	attendance AttendanceLogger
	records    RecordStore
	publisher  EventPublisher
	loc        *time.Location

	// retryBackoff is the pause before the single durable-insert retry.
	retryBackoff time.Duration
}

func NewController(
	alerted *AlertedSet,
	sender AlertSender,
	attendance AttendanceLogger,
	records RecordStore,
	publisher EventPublisher,
	loc *time.Location,
) *Controller {
	if loc == nil {
		loc = time.Local
	}
	return &Controller{
		alerted:      alerted,
		sender:       sender,
		attendance:   attendance,
		records:      records,
		publisher:    publisher,
		loc:          loc,
		retryBackoff: 500 * time.Millisecond,
	}
}

// Alerted exposes the set for liveness inspection.
func (c *Controller) Alerted() *AlertedSet {
	return c.alerted
}

// Process handles one DetectionEvent. image is the annotated frame used as
// alert evidence. Errors are returned for the task boundary to log; none of
// them abort sibling events.
func (c *Controller) Process(ctx context.Context, ev models.DetectionEvent, image []byte) error {
	occurred := ev.OccurredAt.In(c.loc)
	timeOfDay := occurred.Format("15:04:05")

	// 1. Every detection reaches the attendance log, alerted or not. A
	// failed write is logged, not retried: the next detection of the same
	// identity repeats the merge.
	observability.AttendanceAppends.Inc()
	if err := c.attendance.Append(ev.Name, ev.IdentityID, ev.Branch, timeOfDay); err != nil {
		slog.Error("attendance append", "error", err, "identity_id", ev.IdentityID)
	}

	// Live feed sees every detection; delivery failure here is not part of
	// the alert contract.
	if c.publisher != nil {
		if err := c.publisher.PublishDetection(ctx, ev); err != nil {
			slog.Warn("publish detection event", "error", err, "identity_id", ev.IdentityID)
		}
	}

	// 2. Insert before send: a concurrent task for the same identity must
	// lose the test-and-set even while this alert is still in flight.
	if !c.alerted.TryAdd(ev.IdentityID) {
		slog.Debug("alert suppressed, identity already alerted",
			"identity_id", ev.IdentityID)
		return nil
	}

	alert := Alert{
		Name:       ev.Name,
		IdentityID: ev.IdentityID,
		Branch:     ev.Branch,
		Timestamp:  occurred.Format(fullTimestampFormat),
		PhotoURL:   ev.PhotoURL,
		Image:      image,
	}

	slog.Info("sending first alert",
		"identity_id", ev.IdentityID, "name", ev.Name, "distance", ev.Distance)

	// 3-4. Deliver; roll the set back on any failure so a future detection
	// retries.
	if err := c.sender.Send(ctx, alert); err != nil {
		c.alerted.Remove(ev.IdentityID)
		observability.AlertsFailed.Inc()
		return fmt.Errorf("alert for %s failed, will retry on next detection: %w", ev.IdentityID, err)
	}
	observability.AlertsSent.Inc()

	// Durable record only after a confirmed first alert.
	ev.Alerted = true
	if err := c.insertWithRetry(ctx, ev); err != nil {
		slog.Error("store detection record", "error", err, "identity_id", ev.IdentityID)
	}
	return nil
}

func (c *Controller) insertWithRetry(ctx context.Context, ev models.DetectionEvent) error {
	err := c.records.InsertDetections(ctx, []models.DetectionEvent{ev})
	if err == nil {
		return nil
	}
	slog.Warn("detection record insert failed, retrying once",
		"error", err, "identity_id", ev.IdentityID)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.retryBackoff):
	}
	return c.records.InsertDetections(ctx, []models.DetectionEvent{ev})
}
