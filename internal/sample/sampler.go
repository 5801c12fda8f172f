// Package sample selects frames for detection: one frame every N source
// frames (N = wait seconds × source frame rate), only while the schedule
// gate is active.
package sample

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/your-org/facewatch/internal/observability"
	"github.com/your-org/facewatch/internal/schedule"
)

// Sampler owns the process-lifetime frame counter. The counter advances on
// every source frame, active window or not, and is never reset — so the
// modulo grid stays global across gate transitions rather than restarting
// per active session. That behavior is contractual, see the loop tests.
type Sampler struct {
	interval uint64
	counter  atomic.Uint64
}

func NewSampler(waitSeconds, frameRate int) *Sampler {
	n := uint64(waitSeconds) * uint64(frameRate)
	if n == 0 {
		n = 1
	}
	return &Sampler{interval: n}
}

// Tick consumes one frame position and reports the zero-based count plus
// whether that position falls on the sampling grid.
func (s *Sampler) Tick() (uint64, bool) {
	n := s.counter.Add(1) - 1
	return n, n%s.interval == 0
}

// Count returns how many frames have been observed so far.
func (s *Sampler) Count() uint64 {
	return s.counter.Load()
}

// Dispatcher receives sampled frames for concurrent processing.
type Dispatcher interface {
	OnFrame(frame []byte, ts time.Time)
}

// Loop adapts the frame source callback: gate check, sampler tick, hand-off
// to the dispatcher. It runs on the single source-reading goroutine and
// never blocks on frame processing.
type Loop struct {
	gate       *schedule.Gate
	sampler    *Sampler
	dispatcher Dispatcher
	frameRate  uint64
	now        func() time.Time
}

func NewLoop(gate *schedule.Gate, sampler *Sampler, dispatcher Dispatcher, frameRate int) *Loop {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &Loop{
		gate:       gate,
		sampler:    sampler,
		dispatcher: dispatcher,
		frameRate:  uint64(frameRate),
		now:        time.Now,
	}
}

// HandleFrame processes one source frame. Matches ingest.FrameCallback.
func (l *Loop) HandleFrame(frame []byte) error {
	now := l.now()
	observability.FramesSeen.Inc()

	count, selected := l.sampler.Tick()

	if !l.gate.Active(now) {
		observability.FramesGatedOff.Inc()
		// One diagnostic line per second of source footage, not per frame.
		if count%l.frameRate == 0 {
			slog.Debug("outside schedule window, discarding frames",
				"time", now.In(l.gate.Location()).Format("15:04:05"))
		}
		return nil
	}

	if selected {
		observability.FramesSampled.Inc()
		l.dispatcher.OnFrame(frame, now)
	}
	return nil
}
