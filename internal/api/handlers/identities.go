package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/facewatch/internal/storage"
	"github.com/your-org/facewatch/pkg/dto"
)

type IdentityHandler struct {
	db *storage.PostgresStore
}

func NewIdentityHandler(db *storage.PostgresStore) *IdentityHandler {
	return &IdentityHandler{db: db}
}

func (h *IdentityHandler) List(c *gin.Context) {
	identities, err := h.db.ListIdentities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.IdentityResponse, 0, len(identities))
	for _, id := range identities {
		resp = append(resp, dto.IdentityResponse{
			ID:        id.ID,
			Name:      id.Name,
			Branch:    id.Branch,
			PhotoURL:  id.PhotoURL,
			CreatedAt: id.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"identities": resp, "total": len(resp)})
}
