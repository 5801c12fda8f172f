package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facewatch/internal/models"
)

type fakeLister struct {
	events []models.DetectionEvent
}

func (f *fakeLister) ListDetections(ctx context.Context, limit, offset int) ([]models.DetectionEvent, int, error) {
	return f.events, len(f.events), nil
}

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func chatHistory() []models.DetectionEvent {
	// Newest-first, matching store ordering.
	return []models.DetectionEvent{
		{IdentityID: "s2", Name: "Ravi", Branch: "CS", OccurredAt: at(12, 10)},
		{IdentityID: "s1", Name: "Asha", Branch: "CSE", OccurredAt: at(12, 9)},
		{IdentityID: "s1", Name: "Asha", Branch: "CSE", OccurredAt: at(11, 14)},
	}
}

func TestAnswerQueryByName(t *testing.T) {
	got := answerQuery("show me asha's detected timings", chatHistory())

	if !strings.Contains(got, "Asha was detected at") {
		t.Fatalf("answer = %q; want per-name timings", got)
	}
	if !strings.Contains(got, "12/03/2026 09:00:00") || !strings.Contains(got, "11/03/2026 14:00:00") {
		t.Errorf("answer %q missing Asha's timestamps", got)
	}
	if strings.Contains(got, "10:00:00") {
		t.Errorf("answer %q includes another student's detection", got)
	}
}

func TestAnswerQueryNameTrimsLongHistory(t *testing.T) {
	var events []models.DetectionEvent
	for i := 0; i < 8; i++ {
		events = append(events, models.DetectionEvent{
			IdentityID: "s1", Name: "Asha", OccurredAt: at(20, 23-i),
		})
	}

	got := answerQuery("asha", events)
	if !strings.Contains(got, "Found 8 records for Asha") {
		t.Fatalf("answer = %q; want total count", got)
	}
	if !strings.Contains(got, "23:00:00") || strings.Contains(got, "16:00:00") {
		t.Errorf("answer %q should list only the five most recent times", got)
	}
}

func TestAnswerQueryWhoWithBranchFilter(t *testing.T) {
	got := answerQuery("who was seen from cse?", chatHistory())
	if !strings.Contains(got, "(CSE)") || !strings.Contains(got, "Asha") {
		t.Fatalf("answer = %q; want CSE listing with Asha", got)
	}
	if strings.Contains(got, "Ravi") {
		t.Errorf("answer %q leaks a CS student into the CSE filter", got)
	}

	got = answerQuery("list all students", chatHistory())
	if !strings.Contains(got, "(all)") || !strings.Contains(got, "Asha") || !strings.Contains(got, "Ravi") {
		t.Errorf("answer = %q; want every unique name", got)
	}
	if strings.Count(got, "Asha") != 1 {
		t.Errorf("answer = %q; names must be unique", got)
	}
}

func TestAnswerQueryCount(t *testing.T) {
	got := answerQuery("how many students were detected?", chatHistory())
	if !strings.Contains(got, "2 unique students") {
		t.Errorf("answer = %q; want unique-student count of 2", got)
	}
}

func TestAnswerQueryFallbackAndEmpty(t *testing.T) {
	if got := answerQuery("what is the weather", chatHistory()); !strings.Contains(got, "didn't understand") {
		t.Errorf("answer = %q; want fallback hint", got)
	}
	if got := answerQuery("who was seen", nil); !strings.Contains(got, "any detection records") {
		t.Errorf("answer = %q; want empty-history message", got)
	}
}

func TestChatEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/v1/chat", NewChatHandler(&fakeLister{events: chatHistory()}).Ask)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		strings.NewReader(`{"query":"how many students?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "2 unique students") {
		t.Errorf("body = %q; want count answer", w.Body.String())
	}

	// Missing query is a client error.
	req = httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400 for missing query", w.Code)
	}
}
