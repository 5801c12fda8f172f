package notify

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/your-org/facewatch/internal/attendance"
	"github.com/your-org/facewatch/internal/models"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []Alert
	fails int // fail this many sends before succeeding
}

func (f *fakeSender) Send(_ context.Context, alert Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("transport unavailable")
	}
	f.sent = append(f.sent, alert)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeRecords struct {
	mu       sync.Mutex
	inserted []models.DetectionEvent
	fails    int
}

func (f *fakeRecords) InsertDetections(_ context.Context, events []models.DetectionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("db unavailable")
	}
	f.inserted = append(f.inserted, events...)
	return nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.DetectionEvent
}

func (f *fakePublisher) PublishDetection(_ context.Context, ev models.DetectionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ev)
	return nil
}

type controllerEnv struct {
	ctrl    *Controller
	sender  *fakeSender
	records *fakeRecords
	pub     *fakePublisher
	att     *attendance.Logger
}

func newControllerEnv(t *testing.T) *controllerEnv {
	t.Helper()
	sender := &fakeSender{}
	records := &fakeRecords{}
	pub := &fakePublisher{}
	att := attendance.NewLogger(filepath.Join(t.TempDir(), "attendance.csv"), time.UTC)

	ctrl := NewController(NewAlertedSet(), sender, att, records, pub, time.UTC)
	ctrl.retryBackoff = time.Millisecond
	return &controllerEnv{ctrl: ctrl, sender: sender, records: records, pub: pub, att: att}
}

func event(id string, at time.Time) models.DetectionEvent {
	return models.DetectionEvent{
		IdentityID: id,
		Name:       "Asha",
		Branch:     "CSE",
		PhotoURL:   "http://img/asha.jpg",
		Distance:   3,
		OccurredAt: at,
	}
}

func TestFirstDetectionAlertsOnce(t *testing.T) {
	env := newControllerEnv(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 0, 1, 0, time.UTC)

	if err := env.ctrl.Process(ctx, event("S1", at), []byte("jpeg")); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if got := env.sender.sentCount(); got != 1 {
		t.Fatalf("sent %d alerts; want 1", got)
	}
	if got := env.records.count(); got != 1 {
		t.Fatalf("stored %d records; want 1", got)
	}
	rows, _ := env.att.Rows()
	if len(rows) != 1 || len(rows[0]) != 5 {
		t.Fatalf("attendance rows = %v; want one row with one timestamp", rows)
	}

	// Second detection five seconds later: attendance grows, no new alert,
	// no new record.
	if err := env.ctrl.Process(ctx, event("S1", at.Add(5*time.Second)), []byte("jpeg")); err != nil {
		t.Fatalf("Process second: %v", err)
	}
	if got := env.sender.sentCount(); got != 1 {
		t.Errorf("sent %d alerts after repeat detection; want 1", got)
	}
	if got := env.records.count(); got != 1 {
		t.Errorf("stored %d records after repeat detection; want 1", got)
	}
	rows, _ = env.att.Rows()
	if len(rows) != 1 || len(rows[0]) != 6 {
		t.Errorf("attendance rows = %v; want one row with two timestamps", rows)
	}
}

func TestTransportFailureRollsBack(t *testing.T) {
	env := newControllerEnv(t)
	env.sender.fails = 1
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 0, 1, 0, time.UTC)

	if err := env.ctrl.Process(ctx, event("S1", at), nil); err == nil {
		t.Fatal("Process succeeded; want transport error")
	}

	if env.ctrl.Alerted().Contains("S1") {
		t.Error("S1 still in alerted set after failed delivery")
	}
	if got := env.records.count(); got != 0 {
		t.Errorf("stored %d records after failed alert; want 0", got)
	}
	rows, _ := env.att.Rows()
	if len(rows) != 1 {
		t.Errorf("attendance rows = %v; failed alert must still log attendance", rows)
	}

	// A later detection retries delivery and succeeds.
	if err := env.ctrl.Process(ctx, event("S1", at.Add(10*time.Second)), nil); err != nil {
		t.Fatalf("retry Process: %v", err)
	}
	if got := env.sender.sentCount(); got != 1 {
		t.Errorf("sent %d alerts after retry; want 1", got)
	}
	if got := env.records.count(); got != 1 {
		t.Errorf("stored %d records after retry; want 1", got)
	}
}

func TestConcurrentSameIdentitySingleAlert(t *testing.T) {
	env := newControllerEnv(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = env.ctrl.Process(ctx, event("S1", base.Add(time.Duration(n)*time.Second)), nil)
		}(i)
	}
	wg.Wait()

	if got := env.sender.sentCount(); got != 1 {
		t.Fatalf("sent %d alerts under concurrency; want exactly 1", got)
	}
	if got := env.records.count(); got != 1 {
		t.Fatalf("stored %d records under concurrency; want exactly 1", got)
	}
}

func TestInsertRetriesOnce(t *testing.T) {
	env := newControllerEnv(t)
	env.records.fails = 1
	ctx := context.Background()

	if err := env.ctrl.Process(ctx, event("S1", time.Now()), nil); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := env.records.count(); got != 1 {
		t.Fatalf("stored %d records; want 1 after single retry", got)
	}
}

func TestEveryDetectionPublished(t *testing.T) {
	env := newControllerEnv(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 10, 9, 0, 1, 0, time.UTC)

	_ = env.ctrl.Process(ctx, event("S1", at), nil)
	_ = env.ctrl.Process(ctx, event("S1", at.Add(time.Second)), nil)

	env.pub.mu.Lock()
	defer env.pub.mu.Unlock()
	if len(env.pub.published) != 2 {
		t.Fatalf("published %d events; want 2 (every detection)", len(env.pub.published))
	}
}

func TestAlertTimestampFormat(t *testing.T) {
	env := newControllerEnv(t)
	at := time.Date(2026, 3, 10, 14, 5, 9, 0, time.UTC)

	_ = env.ctrl.Process(context.Background(), event("S1", at), nil)

	env.sender.mu.Lock()
	defer env.sender.mu.Unlock()
	if got := env.sender.sent[0].Timestamp; got != "10/03/2026 14:05:09" {
		t.Errorf("alert timestamp = %q; want day/month/year clock format", got)
	}
}
