package attendance

import (
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l := NewLogger(filepath.Join(t.TempDir(), "attendance.csv"), time.UTC)
	l.now = func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	}
	return l
}

func TestAppendCreatesRow(t *testing.T) {
	l := newTestLogger(t)

	if err := l.Append("Asha", "S1", "CSE", "09:00:01"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows, err := l.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := [][]string{{"Asha", "S1", "CSE", "2026-03-10", "09:00:01"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v; want %v", rows, want)
	}
}

func TestAppendMergesIntoSameDayRow(t *testing.T) {
	l := newTestLogger(t)

	for _, ts := range []string{"09:00:01", "09:00:06"} {
		if err := l.Append("Asha", "S1", "CSE", ts); err != nil {
			t.Fatalf("Append(%s): %v", ts, err)
		}
	}

	rows, _ := l.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows; want 1", len(rows))
	}
	want := []string{"Asha", "S1", "CSE", "2026-03-10", "09:00:01", "09:00:06"}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("row = %v; want %v", rows[0], want)
	}
}

func TestAppendDeduplicatesExactTime(t *testing.T) {
	l := newTestLogger(t)

	for i := 0; i < 2; i++ {
		if err := l.Append("Asha", "S1", "CSE", "09:00:01"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rows, _ := l.Rows()
	if len(rows) != 1 || len(rows[0]) != 5 {
		t.Fatalf("rows = %v; want one row with a single time entry", rows)
	}
}

func TestAppendNewDateCreatesNewRow(t *testing.T) {
	l := newTestLogger(t)

	if err := l.Append("Asha", "S1", "CSE", "09:00:01"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	l.now = func() time.Time {
		return time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	}
	if err := l.Append("Asha", "S1", "CSE", "09:00:01"); err != nil {
		t.Fatalf("Append next day: %v", err)
	}

	rows, _ := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows; want 2", len(rows))
	}
	if rows[0][3] != "2026-03-10" || len(rows[0]) != 5 {
		t.Errorf("prior date row was altered: %v", rows[0])
	}
	if rows[1][3] != "2026-03-11" {
		t.Errorf("new row date = %s; want 2026-03-11", rows[1][3])
	}
}

func TestAppendSeparateIdentities(t *testing.T) {
	l := newTestLogger(t)

	_ = l.Append("Asha", "S1", "CSE", "09:00:01")
	_ = l.Append("Ravi", "S2", "ECE", "09:00:02")

	rows, _ := l.Rows()
	if len(rows) != 2 {
		t.Fatalf("got %d rows; want 2", len(rows))
	}
}

func TestAppendConcurrentWriters(t *testing.T) {
	l := newTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ts := time.Date(2026, 3, 10, 9, 0, n, 0, time.UTC).Format("15:04:05")
			if err := l.Append("Asha", "S1", "CSE", ts); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	rows, err := l.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows; want 1 merged row", len(rows))
	}
	// 4 fixed columns + 20 distinct times, no losses under contention.
	if len(rows[0]) != 24 {
		t.Errorf("row has %d columns; want 24", len(rows[0]))
	}
}

func TestReadAllMissingFile(t *testing.T) {
	l := newTestLogger(t)
	data, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if data != nil {
		t.Errorf("ReadAll = %q; want nil for missing file", data)
	}
}
