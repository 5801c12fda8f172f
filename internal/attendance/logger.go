// Package attendance maintains the durable per-identity, per-day attendance
// log: a CSV file where each row is [name, identity id, branch, date,
// time1, time2, ...], one row per (identity, date).
package attendance

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"
)

const dateFormat = "2006-01-02"

// Logger appends or merges timestamps into the log file. A single mutex
// guards the whole read-modify-write cycle, so exactly one writer runs at a
// time; blocked callers acquire in no particular order.
//
// Each call rewrites the full file. O(rows) per append — fine for a bounded
// identity count at daily granularity, and a known scalability limit rather
// than something to optimize silently.
type Logger struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
	now  func() time.Time
}

func NewLogger(path string, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.Local
	}
	return &Logger{
		path: path,
		loc:  loc,
		now:  time.Now,
	}
}

// Append records timeOfDay for (identityID, today). If the identity already
// has a row for today, the time is appended unless that exact value is
// already present; otherwise a new row is created. Dates are computed in the
// logger's fixed zone.
func (l *Logger) Append(name, identityID, branch, timeOfDay string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().In(l.loc).Format(dateFormat)

	rows, err := l.load()
	if err != nil {
		return err
	}

	found := false
	for i, row := range rows {
		if len(row) >= 4 && row[1] == identityID && row[3] == today {
			if !contains(row[4:], timeOfDay) {
				rows[i] = append(row, timeOfDay)
			}
			found = true
			break
		}
	}
	if !found {
		rows = append(rows, []string{name, identityID, branch, today, timeOfDay})
	}

	return l.store(rows)
}

// Rows returns a copy of the current log contents.
func (l *Logger) Rows() ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// ReadAll returns the raw file bytes for report download. Empty file if the
// log does not exist yet.
func (l *Logger) ReadAll() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read attendance log: %w", err)
	}
	return data, nil
}

func (l *Logger) load() ([][]string, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open attendance log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows grow a column per detection time
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse attendance log: %w", err)
	}
	return rows, nil
}

func (l *Logger) store(rows [][]string) error {
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create attendance log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write attendance log: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close attendance log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace attendance log: %w", err)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
