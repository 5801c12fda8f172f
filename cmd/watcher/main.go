// The watcher is the core daemon: it pulls frames from the video source,
// samples them inside the active schedule, runs face detection and
// matching and drives attendance logging, alerting and durable records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facewatch/internal/attendance"
	"github.com/your-org/facewatch/internal/config"
	"github.com/your-org/facewatch/internal/dispatch"
	"github.com/your-org/facewatch/internal/ingest"
	"github.com/your-org/facewatch/internal/match"
	"github.com/your-org/facewatch/internal/notify"
	"github.com/your-org/facewatch/internal/observability"
	"github.com/your-org/facewatch/internal/queue"
	"github.com/your-org/facewatch/internal/sample"
	"github.com/your-org/facewatch/internal/schedule"
	"github.com/your-org/facewatch/internal/storage"
	"github.com/your-org/facewatch/internal/vision"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting facewatch watcher",
		"source", cfg.Source.URL,
		"cpu_cores", runtime.NumCPU(),
	)

	// Initialize ONNX Runtime
	ort.SetSharedLibraryPath(getONNXLibPath())
	if err := ort.InitializeEnvironment(); err != nil {
		slog.Error("init onnx runtime", "error", err)
		os.Exit(1)
	}
	defer ort.DestroyEnvironment()

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// Vision pipeline
	pipeline, err := vision.NewPipeline(cfg.Vision)
	if err != nil {
		slog.Error("init vision pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	slog.Info("vision pipeline initialized")

	// Schedule gate
	gate, err := schedule.NewGate(cfg.Schedule)
	if err != nil {
		slog.Error("init schedule gate", "error", err)
		os.Exit(1)
	}

	// Detection-to-notification chain
	attendanceLog := attendance.NewLogger(cfg.Attendance.Path, gate.Location())
	matcher := match.NewMatcher(db, cfg.Matching)
	controller := notify.NewController(
		notify.NewAlertedSet(),
		notify.NewHTTPSender(cfg.Alert),
		attendanceLog,
		db,
		producer,
		gate.Location(),
	)
	dispatcher := dispatch.NewDispatcher(pipeline, matcher, db, minioStore, controller)

	sampler := sample.NewSampler(cfg.Sampling.WaitSeconds, cfg.Sampling.FrameRate)
	loop := sample.NewLoop(gate, sampler, dispatcher, cfg.Sampling.FrameRate)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Frame extraction, restarted while the source is down
	extractor := &ingest.FFmpegExtractor{}
	go func() {
		for {
			source := cfg.Source.URL
			if cfg.Source.Type == "youtube" {
				resolved, err := ingest.ResolveYouTubeURL(ctx, source)
				if err != nil {
					slog.Error("resolve youtube url", "error", err)
				} else {
					source = resolved
				}
			}

			err := extractor.StartExtraction(ctx, source, cfg.Source.Type,
				cfg.Sampling.FrameRate, cfg.Vision.FrameWidth, loop.HandleFrame)
			if ctx.Err() != nil {
				return
			}
			slog.Warn("frame extraction ended, restarting", "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		slog.Info("watcher metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down watcher...")
	cancel()
	extractor.Stop()
	dispatcher.Wait()
	slog.Info("watcher stopped")
}

// getONNXLibPath returns the ONNX Runtime shared library path
// based on the operating system.
func getONNXLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "linux":
		return "libonnxruntime.so"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "onnxruntime.dll"
	}
}
