package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/facewatch/internal/models"
	"github.com/your-org/facewatch/internal/storage"
	"github.com/your-org/facewatch/pkg/dto"
)

type DetectionHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
}

func NewDetectionHandler(db *storage.PostgresStore, minio *storage.MinIOStore) *DetectionHandler {
	return &DetectionHandler{db: db, minio: minio}
}

func (h *DetectionHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, total, err := h.db.ListDetections(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.DetectionResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, ToDetectionResponse(ev))
	}

	c.JSON(http.StatusOK, dto.DetectionListResponse{Detections: resp, Total: total})
}

// Frame proxies the annotated evidence frame from object storage.
func (h *DetectionHandler) Frame(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detection id"})
		return
	}

	ev, err := h.db.GetDetection(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ev == nil || ev.FrameKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}

	data, err := h.minio.GetObject(c.Request.Context(), ev.FrameKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// ToDetectionResponse converts a stored detection to its API shape.
func ToDetectionResponse(ev models.DetectionEvent) dto.DetectionResponse {
	r := dto.DetectionResponse{
		ID:         ev.ID,
		IdentityID: ev.IdentityID,
		Name:       ev.Name,
		Branch:     ev.Branch,
		PhotoURL:   ev.PhotoURL,
		Distance:   ev.Distance,
		OccurredAt: ev.OccurredAt.Format(time.RFC3339),
		Alerted:    ev.Alerted,
		CreatedAt:  ev.CreatedAt.Format(time.RFC3339),
	}
	if ev.FrameKey != "" {
		r.FrameURL = "/v1/detections/" + ev.ID.String() + "/frame"
	}
	return r
}
