package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facewatch/internal/models"
	"github.com/your-org/facewatch/pkg/dto"
)

// chatTimeFormat matches the timestamp format used in alerts.
const chatTimeFormat = "02/01/2006 15:04:05"

// chatScanLimit bounds how much history one question looks at. The store
// caps page size at 500 anyway.
const chatScanLimit = 500

// DetectionLister is the slice of the store the chat needs.
type DetectionLister interface {
	ListDetections(ctx context.Context, limit, offset int) ([]models.DetectionEvent, int, error)
}

// ChatHandler answers keyword questions over the detection history:
// per-name detection timings, who-was-seen listings with an optional
// branch filter, and unique-student counts.
type ChatHandler struct {
	db DetectionLister
}

func NewChatHandler(db DetectionLister) *ChatHandler {
	return &ChatHandler{db: db}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query required"})
		return
	}

	events, _, err := h.db.ListDetections(c.Request.Context(), chatScanLimit, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{Answer: answerQuery(req.Query, events)})
}

// answerQuery resolves one question against the detection history. Events
// are expected newest-first, as ListDetections returns them. Intents, in
// priority order: a known name anywhere in the question, then listing
// questions, then count questions.
func answerQuery(query string, events []models.DetectionEvent) string {
	if len(events) == 0 {
		return "I don't see any detection records in the system yet."
	}

	q := strings.ToLower(query)

	if name := findKnownName(q, events); name != "" {
		return describeTimings(name, events)
	}

	if containsAny(q, "who", "list", "show", "all") {
		return describeSeen(q, events)
	}

	if containsAny(q, "count", "how many", "total") {
		seen := map[string]struct{}{}
		for _, ev := range events {
			seen[ev.IdentityID] = struct{}{}
		}
		return fmt.Sprintf("There are %d unique students detected in the logs.", len(seen))
	}

	return "I didn't understand that. Try typing just a name, or ask 'who was seen?'."
}

// findKnownName returns the first enrolled name mentioned in the question.
func findKnownName(q string, events []models.DetectionEvent) string {
	for _, ev := range events {
		if ev.Name != "" && strings.Contains(q, strings.ToLower(ev.Name)) {
			return ev.Name
		}
	}
	return ""
}

func describeTimings(name string, events []models.DetectionEvent) string {
	var times []string
	for _, ev := range events {
		if ev.Name == name {
			times = append(times, ev.OccurredAt.Format(chatTimeFormat))
		}
	}

	// Long histories get trimmed to the five most recent detections.
	if len(times) > 5 {
		return fmt.Sprintf("Found %d records for %s. Most recent detections: %s.",
			len(times), name, strings.Join(times[:5], ", "))
	}
	return fmt.Sprintf("%s was detected at: %s.", name, strings.Join(times, ", "))
}

func describeSeen(q string, events []models.DetectionEvent) string {
	branch := ""
	// "cse" before "cs": the shorter code is a prefix of the longer one.
	if strings.Contains(q, "cse") {
		branch = "CSE"
	} else if strings.Contains(q, "cs") {
		branch = "CS"
	}

	var names []string
	seen := map[string]struct{}{}
	for _, ev := range events {
		if branch != "" && !strings.EqualFold(ev.Branch, branch) {
			continue
		}
		if _, ok := seen[ev.Name]; ok {
			continue
		}
		seen[ev.Name] = struct{}{}
		names = append(names, ev.Name)
	}

	label := branch
	if label == "" {
		label = "all"
	}
	if len(names) == 0 {
		return fmt.Sprintf("No students detected (%s).", label)
	}
	return fmt.Sprintf("Students detected (%s): %s.", label, strings.Join(names, ", "))
}

func containsAny(q string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
