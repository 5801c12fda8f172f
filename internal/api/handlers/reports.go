package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facewatch/internal/attendance"
)

type ReportHandler struct {
	attendance *attendance.Logger
}

func NewReportHandler(log *attendance.Logger) *ReportHandler {
	return &ReportHandler{attendance: log}
}

// Download serves the attendance log as a CSV file attachment.
func (h *ReportHandler) Download(c *gin.Context) {
	data, err := h.attendance.ReadAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if data == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attendance recorded yet"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="attendance.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}
