// Package api exposes the read-only ops surface: detection history,
// enrolled identities, evidence frames, attendance report download, a
// keyword chat over the detection log and a live WebSocket feed.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facewatch/internal/api/handlers"
	"github.com/your-org/facewatch/internal/api/ws"
	"github.com/your-org/facewatch/internal/attendance"
	"github.com/your-org/facewatch/internal/queue"
	"github.com/your-org/facewatch/internal/storage"
)

type RouterConfig struct {
	APIKey     string
	DB         *storage.PostgresStore
	MinIO      *storage.MinIOStore
	Producer   *queue.Producer
	Attendance *attendance.Logger
	Hub        *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(RequireAPIKey(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Identities
	identityH := handlers.NewIdentityHandler(cfg.DB)
	v1.GET("/identities", identityH.List)

	// Detections
	detectionH := handlers.NewDetectionHandler(cfg.DB, cfg.MinIO)
	v1.GET("/detections", detectionH.List)
	v1.GET("/detections/:id/frame", detectionH.Frame)

	// Chat over the detection log
	chatH := handlers.NewChatHandler(cfg.DB)
	v1.POST("/chat", chatH.Ask)

	// Reports
	reportH := handlers.NewReportHandler(cfg.Attendance)
	v1.GET("/reports/attendance", reportH.Download)

	return r
}
