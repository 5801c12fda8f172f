// Package dispatch fans sampled frames out to concurrent detection tasks.
// Each task runs independently: a slow alert or a panic in one frame's
// processing never blocks the sampling loop or sibling tasks.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facewatch/internal/match"
	"github.com/your-org/facewatch/internal/models"
	"github.com/your-org/facewatch/internal/observability"
	"github.com/your-org/facewatch/internal/vision"
)

// Extractor produces face embeddings and an annotated frame.
type Extractor interface {
	Analyze(frame []byte) (*vision.Analysis, error)
}

// Matcher ranks enrolled identities for a query embedding.
type Matcher interface {
	Match(ctx context.Context, query []float32) ([]match.Candidate, error)
}

// IdentityDirectory resolves identity details for matched ids.
type IdentityDirectory interface {
	GetIdentities(ctx context.Context, ids []string) ([]models.Identity, error)
}

// EvidenceStore keeps the annotated frame for matched detections.
type EvidenceStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// Notifier applies the attendance/alert algorithm to one DetectionEvent.
type Notifier interface {
	Process(ctx context.Context, ev models.DetectionEvent, image []byte) error
}

// Dispatcher spawns one goroutine per sampled frame. Tasks are unbounded in
// count but naturally rate-limited by the sampling interval; once started a
// task runs to completion (no cancellation), with the outbound alert's own
// timeout bounding its lifetime.
type Dispatcher struct {
	extractor Extractor
	matcher   Matcher
	directory IdentityDirectory
	evidence  EvidenceStore
	notifier  Notifier

	wg sync.WaitGroup
}

func NewDispatcher(
	extractor Extractor,
	matcher Matcher,
	directory IdentityDirectory,
	evidence EvidenceStore,
	notifier Notifier,
) *Dispatcher {
	return &Dispatcher{
		extractor: extractor,
		matcher:   matcher,
		directory: directory,
		evidence:  evidence,
		notifier:  notifier,
	}
}

// OnFrame schedules processing of one sampled frame and returns
// immediately. All task failures, panics included, stay inside the task.
func (d *Dispatcher) OnFrame(frame []byte, ts time.Time) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				observability.TasksFailed.Inc()
				slog.Error("detection task panic", "panic", r)
			}
		}()

		if err := d.process(context.Background(), frame, ts); err != nil {
			observability.TasksFailed.Inc()
			slog.Error("detection task", "error", err)
		}
	}()
}

// Wait blocks until all in-flight tasks finish. Used at shutdown and in
// tests; the sampling loop never calls it.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) process(ctx context.Context, frame []byte, ts time.Time) error {
	analysis, err := d.extractor.Analyze(frame)
	if errors.Is(err, vision.ErrNoFace) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("extract embeddings: %w", err)
	}

	// Best distance per identity across all faces in the frame.
	best := make(map[string]float64)
	for _, embedding := range analysis.Embeddings {
		candidates, err := d.matcher.Match(ctx, embedding)
		if err != nil {
			// One bad embedding must not sink the rest of the frame.
			slog.Warn("match embedding", "error", err)
			continue
		}
		for _, c := range candidates {
			if cur, ok := best[c.IdentityID]; !ok || c.Distance < cur {
				best[c.IdentityID] = c.Distance
			}
		}
	}

	if len(best) == 0 {
		slog.Debug("no match found")
		return nil
	}

	ids := make([]string, 0, len(best))
	for id := range best {
		ids = append(ids, id)
	}
	slog.Info("matches found", "count", len(ids), "identity_ids", ids)

	identities, err := d.directory.GetIdentities(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve identities: %w", err)
	}
	observability.IdentitiesMatched.Add(float64(len(identities)))

	// One evidence object per frame, shared by all of its events.
	frameKey := fmt.Sprintf("frames/%s_%s.jpg",
		ts.UTC().Format("20060102_150405"), uuid.NewString()[:8])
	if err := d.evidence.PutObject(ctx, frameKey, analysis.Annotated, "image/jpeg"); err != nil {
		slog.Warn("store evidence frame", "error", err, "key", frameKey)
		frameKey = ""
	}

	for _, identity := range identities {
		ev := models.DetectionEvent{
			ID:         uuid.New(),
			IdentityID: identity.ID,
			Name:       identity.Name,
			Branch:     identity.Branch,
			PhotoURL:   identity.PhotoURL,
			Distance:   best[identity.ID],
			OccurredAt: ts,
			FrameKey:   frameKey,
		}
		if err := d.notifier.Process(ctx, ev, analysis.Annotated); err != nil {
			slog.Error("process detection", "error", err, "identity_id", identity.ID)
		}
	}
	return nil
}
