// Package vision implements the embedding-extraction capability: given a
// frame, detect faces, extract one embedding per face and produce an
// annotated copy of the frame for alert evidence.
package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/your-org/facewatch/internal/config"
	"github.com/your-org/facewatch/internal/observability"
)

// ErrNoFace reports that a frame yielded no usable face embedding. The
// frame contributes nothing and is skipped; this is the normal case for
// most frames.
var ErrNoFace = errors.New("no face detected")

// Analysis is the result of processing one frame.
type Analysis struct {
	Embeddings [][]float32
	Annotated  []byte // JPEG with bounding boxes drawn
}

// Pipeline chains detection and embedding extraction.
type Pipeline struct {
	detector *Detector
	embedder *Embedder
}

func NewPipeline(cfg config.VisionConfig) (*Pipeline, error) {
	detPath := filepath.Join(cfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "w600k_r50.onnx")

	slog.Info("loading detection model", "path", detPath)
	det, err := NewDetector(detPath, float32(cfg.DetectionThreshold))
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath, "dim", cfg.EmbeddingDim)
	emb, err := NewEmbedder(embPath, cfg.EmbeddingDim)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	return &Pipeline{detector: det, embedder: emb}, nil
}

// Analyze decodes a JPEG frame, detects faces and extracts one embedding
// per detected face. Returns ErrNoFace when nothing usable was found.
// Faces whose embedding extraction fails are skipped individually.
func (p *Pipeline) Analyze(frame []byte) (*Analysis, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
	}

	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	start := time.Now()
	detInput := preprocessForDetection(img, p.detector.inputW, p.detector.inputH)
	detections, err := p.detector.Detect(detInput, origW, origH)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	observability.TaskDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())

	if len(detections) == 0 {
		return nil, ErrNoFace
	}
	observability.FacesDetected.Add(float64(len(detections)))

	var embeddings [][]float32
	var boxes [][4]float32

	start = time.Now()
	for _, det := range detections {
		crop := cropFace(img, det.BBox)
		if crop == nil {
			continue
		}
		embInput := preprocessForEmbedding(crop, p.embedder.inputW, p.embedder.inputH)
		embedding, err := p.embedder.Extract(embInput)
		if err != nil {
			slog.Warn("embed face", "error", err)
			continue
		}
		embeddings = append(embeddings, embedding)
		boxes = append(boxes, det.BBox)
	}
	observability.TaskDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())

	if len(embeddings) == 0 {
		return nil, ErrNoFace
	}

	return &Analysis{
		Embeddings: embeddings,
		Annotated:  annotate(img, boxes),
	}, nil
}

// Close releases the ONNX sessions.
func (p *Pipeline) Close() {
	if p.detector != nil {
		p.detector.Close()
	}
	if p.embedder != nil {
		p.embedder.Close()
	}
}

// --- Image helpers ---

func preprocessForDetection(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{127.5, 127.5, 127.5}, [3]float32{128.0, 128.0, 128.0})
}

func preprocessForEmbedding(img image.Image, targetW, targetH int) []float32 {
	return imageToFloat32CHW(img, targetW, targetH, [3]float32{127.5, 127.5, 127.5}, [3]float32{127.5, 127.5, 127.5})
}

// imageToFloat32CHW resizes and converts an image to normalized CHW floats:
// pixel = (pixel - mean) / std.
func imageToFloat32CHW(img image.Image, targetW, targetH int, mean, std [3]float32) []float32 {
	resized := resizeImage(img, targetW, targetH)
	bounds := resized.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	data := make([]float32, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := resized.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			rf := float32(r >> 8)
			gf := float32(g >> 8)
			bf := float32(b >> 8)

			idx := y*w + x
			data[0*h*w+idx] = (rf - mean[0]) / std[0]
			data[1*h*w+idx] = (gf - mean[1]) / std[1]
			data[2*h*w+idx] = (bf - mean[2]) / std[2]
		}
	}
	return data
}

// resizeImage does a nearest-neighbour resize; fast and good enough for
// model input.
func resizeImage(img image.Image, targetW, targetH int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			srcX := bounds.Min.X + x*srcW/targetW
			srcY := bounds.Min.Y + y*srcH/targetH
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}
	return dst
}

// cropFace extracts the face region with 10% padding, clamped to bounds.
func cropFace(img image.Image, bbox [4]float32) image.Image {
	bounds := img.Bounds()

	x1 := int(bbox[0])
	y1 := int(bbox[1])
	x2 := int(bbox[2])
	y2 := int(bbox[3])

	w := x2 - x1
	h := y2 - y1
	if w <= 0 || h <= 0 {
		return nil
	}

	x1 -= int(float32(w) * 0.1)
	y1 -= int(float32(h) * 0.1)
	x2 += int(float32(w) * 0.1)
	y2 += int(float32(h) * 0.1)

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2-x1 <= 0 || y2-y1 <= 0 {
		return nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	draw.Draw(crop, crop.Bounds(), img, image.Pt(x1, y1), draw.Src)
	return crop
}

// annotate draws a rectangle around each detected face and encodes the
// result as JPEG for alert evidence.
func annotate(img image.Image, boxes [][4]float32) []byte {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	green := color.RGBA{R: 0, G: 200, B: 0, A: 255}
	for _, box := range boxes {
		drawRect(out, int(box[0]), int(box[1]), int(box[2]), int(box[3]), green)
	}

	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, out, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

// drawRect draws a 2px rectangle outline clamped to the image bounds.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	clampX := func(x int) int {
		if x < bounds.Min.X {
			return bounds.Min.X
		}
		if x >= bounds.Max.X {
			return bounds.Max.X - 1
		}
		return x
	}
	clampY := func(y int) int {
		if y < bounds.Min.Y {
			return bounds.Min.Y
		}
		if y >= bounds.Max.Y {
			return bounds.Max.Y - 1
		}
		return y
	}
	x1, y1, x2, y2 = clampX(x1), clampY(y1), clampX(x2), clampY(y2)

	for t := 0; t < 2; t++ {
		for x := x1; x <= x2; x++ {
			img.Set(x, clampY(y1+t), c)
			img.Set(x, clampY(y2-t), c)
		}
		for y := y1; y <= y2; y++ {
			img.Set(clampX(x1+t), y, c)
			img.Set(clampX(x2-t), y, c)
		}
	}
}
