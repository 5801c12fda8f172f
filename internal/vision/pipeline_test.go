package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	return img
}

func TestCropFacePadsAndClamps(t *testing.T) {
	img := testImage(100, 100)

	crop := cropFace(img, [4]float32{10, 10, 50, 50})
	if crop == nil {
		t.Fatal("cropFace returned nil for a valid box")
	}
	b := crop.Bounds()
	// 40px box with 10% padding on each side → 48px.
	if b.Dx() != 48 || b.Dy() != 48 {
		t.Errorf("crop size = %dx%d; want 48x48", b.Dx(), b.Dy())
	}

	// Box at the image edge: padding clamps instead of going negative.
	crop = cropFace(img, [4]float32{0, 0, 20, 20})
	if crop == nil {
		t.Fatal("cropFace returned nil for an edge box")
	}
	if crop.Bounds().Dx() > 22 {
		t.Errorf("edge crop width = %d; want clamped to image", crop.Bounds().Dx())
	}
}

func TestCropFaceDegenerateBox(t *testing.T) {
	img := testImage(50, 50)
	if crop := cropFace(img, [4]float32{30, 30, 30, 30}); crop != nil {
		t.Error("cropFace returned non-nil for a zero-area box")
	}
	if crop := cropFace(img, [4]float32{40, 40, 10, 10}); crop != nil {
		t.Error("cropFace returned non-nil for an inverted box")
	}
}

func TestAnnotateProducesValidJPEG(t *testing.T) {
	img := testImage(64, 64)
	data := annotate(img, [][4]float32{{8, 8, 40, 40}})

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("annotate output is not a valid JPEG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("annotated bounds = %v; want %v", decoded.Bounds(), img.Bounds())
	}
}

func TestImageToFloat32CHWShapeAndRange(t *testing.T) {
	img := testImage(10, 10)
	data := imageToFloat32CHW(img, 4, 4, [3]float32{127.5, 127.5, 127.5}, [3]float32{128, 128, 128})

	if len(data) != 3*4*4 {
		t.Fatalf("len = %d; want %d", len(data), 3*4*4)
	}
	for i, v := range data {
		if v < -1.0 || v > 1.0 {
			t.Fatalf("data[%d] = %v; want normalized to [-1, 1]", i, v)
		}
	}
}

func TestNMSSuppressesOverlaps(t *testing.T) {
	dets := []Detection{
		{BBox: [4]float32{0, 0, 10, 10}, Confidence: 0.9},
		{BBox: [4]float32{1, 1, 11, 11}, Confidence: 0.8}, // heavy overlap, dropped
		{BBox: [4]float32{50, 50, 60, 60}, Confidence: 0.7},
	}

	kept := nms(dets, 0.4)
	if len(kept) != 2 {
		t.Fatalf("kept %d detections; want 2", len(kept))
	}
	if kept[0].Confidence != 0.9 || kept[1].Confidence != 0.7 {
		t.Errorf("kept wrong detections: %+v", kept)
	}
}

func TestIOU(t *testing.T) {
	a := [4]float32{0, 0, 10, 10}
	if got := iou(a, a); got != 1 {
		t.Errorf("iou(a, a) = %v; want 1", got)
	}
	b := [4]float32{20, 20, 30, 30}
	if got := iou(a, b); got != 0 {
		t.Errorf("iou(disjoint) = %v; want 0", got)
	}
}
