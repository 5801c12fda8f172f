package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesSeen = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "frames_seen_total",
		Help:      "Total number of frames read from the source",
	})

	FramesSampled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "frames_sampled_total",
		Help:      "Total number of frames handed to detection tasks",
	})

	FramesGatedOff = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "frames_gated_off_total",
		Help:      "Total number of frames discarded outside active schedule windows",
	})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "faces_detected_total",
		Help:      "Total number of faces detected in sampled frames",
	})

	IdentitiesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "identities_matched_total",
		Help:      "Total number of identity matches within the distance threshold",
	})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "alerts_sent_total",
		Help:      "Total number of alerts delivered successfully",
	})

	AlertsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "alerts_failed_total",
		Help:      "Total number of alert deliveries that failed and were rolled back",
	})

	AttendanceAppends = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "attendance_appends_total",
		Help:      "Total number of attendance log append calls",
	})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facewatch",
		Name:      "task_duration_seconds",
		Help:      "Duration of per-frame detection task stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facewatch",
		Name:      "tasks_failed_total",
		Help:      "Total number of detection tasks that ended with an error or panic",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facewatch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facewatch",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
