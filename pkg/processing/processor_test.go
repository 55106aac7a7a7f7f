package processing

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/chai2010/webp"

	"github.com/nexoria/badgephoto/pkg/types"
)

// fakeDetector returns canned boxes, optionally after a delay
type fakeDetector struct {
	boxes []types.FaceBox
	err   error
	delay time.Duration
}

func (f *fakeDetector) DetectFaces(ctx context.Context, img image.Image) ([]types.FaceBox, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.boxes, nil
}

// createTestImage creates a test image with a red block where the face is
// supposed to be
func createTestImage(width, height int, face image.Rectangle) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if image.Pt(x, y).In(face) {
				img.Set(x, y, color.RGBA{200, 40, 40, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestTranscode(t *testing.T) {
	faceRect := image.Rect(100, 100, 300, 300)
	img := createTestImage(800, 600, faceRect)
	detector := &fakeDetector{
		boxes: []types.FaceBox{{X: 100, Y: 100, Width: 200, Height: 200, Confidence: 0.95}},
	}
	transcoder := NewTranscoder(detector)

	out, err := transcoder.Transcode(context.Background(), encodeJPEG(t, img), 50)
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Output is not a decodable image: %v", err)
	}

	if format != "jpeg" {
		t.Errorf("Expected jpeg output, got %s", format)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 400 || bounds.Dy() != 400 {
		t.Errorf("Expected 400x400 output, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestTranscodePicksLargestFace(t *testing.T) {
	// Red block marks the larger face; the small box sits on background
	faceRect := image.Rect(100, 100, 300, 300)
	img := createTestImage(800, 600, faceRect)
	detector := &fakeDetector{
		boxes: []types.FaceBox{
			{X: 500, Y: 400, Width: 60, Height: 60, Confidence: 0.9},
			{X: 100, Y: 100, Width: 200, Height: 200, Confidence: 0.8},
		},
	}
	transcoder := NewTranscoder(detector)

	out, err := transcoder.Transcode(context.Background(), encodeJPEG(t, img), 50)
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Output is not a decodable image: %v", err)
	}

	// Crop window is (0,0)-(400,400) around the large face, so the output
	// center lands inside the red block
	r, g, b, _ := decoded.At(200, 200).RGBA()
	if r>>8 < 150 || g>>8 > 100 || b>>8 > 100 {
		t.Errorf("Output center should be red, got rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestTranscodeNoFace(t *testing.T) {
	img := createTestImage(400, 400, image.Rectangle{})
	transcoder := NewTranscoder(&fakeDetector{})

	_, err := transcoder.Transcode(context.Background(), encodeJPEG(t, img), 50)
	if !errors.Is(err, ErrNoFace) {
		t.Errorf("Expected ErrNoFace, got %v", err)
	}
}

func TestTranscodeBadBytes(t *testing.T) {
	transcoder := NewTranscoder(&fakeDetector{})

	_, err := transcoder.Transcode(context.Background(), []byte("definitely not an image"), 50)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestTranscodeDetectorTimeout(t *testing.T) {
	img := createTestImage(400, 400, image.Rectangle{})
	detector := &fakeDetector{
		delay: 500 * time.Millisecond,
		boxes: []types.FaceBox{{X: 10, Y: 10, Width: 100, Height: 100}},
	}
	transcoder := NewTranscoderWithOptions(detector, Options{DetectTimeout: 20 * time.Millisecond})

	_, err := transcoder.Transcode(context.Background(), encodeJPEG(t, img), 50)
	if !errors.Is(err, ErrNoFace) {
		t.Errorf("Expected timeout to count as ErrNoFace, got %v", err)
	}
}

func TestTranscodeDetectorError(t *testing.T) {
	img := createTestImage(400, 400, image.Rectangle{})
	oracleErr := errors.New("model not loaded")
	transcoder := NewTranscoder(&fakeDetector{err: oracleErr})

	_, err := transcoder.Transcode(context.Background(), encodeJPEG(t, img), 50)
	if err == nil {
		t.Fatal("Expected detector error to propagate")
	}

	if errors.Is(err, ErrNoFace) {
		t.Errorf("Detector failure should not report as no-face: %v", err)
	}

	if !errors.Is(err, oracleErr) {
		t.Errorf("Expected wrapped detector error, got %v", err)
	}
}

func TestTranscodeWebPInput(t *testing.T) {
	faceRect := image.Rect(50, 50, 250, 250)
	img := createTestImage(600, 600, faceRect)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode webp test image: %v", err)
	}

	detector := &fakeDetector{
		boxes: []types.FaceBox{{X: 50, Y: 50, Width: 200, Height: 200, Confidence: 0.9}},
	}
	transcoder := NewTranscoder(detector)

	out, err := transcoder.Transcode(context.Background(), buf.Bytes(), 50)
	if err != nil {
		t.Fatalf("Transcode failed on webp input: %v", err)
	}

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Output is not a decodable image: %v", err)
	}

	if decoded.Bounds().Dx() != 400 {
		t.Errorf("Expected 400px output, got %d", decoded.Bounds().Dx())
	}
}

func TestDecodeImageFormats(t *testing.T) {
	img := createTestImage(120, 120, image.Rect(20, 20, 100, 100))

	jpegBytes := encodeJPEG(t, img)
	if _, err := DecodeImage(jpegBytes); err != nil {
		t.Errorf("DecodeImage failed on jpeg: %v", err)
	}

	if _, err := DecodeImage(nil); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode for empty input, got %v", err)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Size != 400 {
		t.Errorf("Expected size 400, got %d", opts.Size)
	}

	if opts.Quality != 95 {
		t.Errorf("Expected quality 95, got %d", opts.Quality)
	}

	if opts.DetectTimeout <= 0 {
		t.Error("Expected a positive detect timeout")
	}
}

func BenchmarkTranscode(b *testing.B) {
	img := createTestImage(1280, 960, image.Rect(400, 200, 800, 700))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		b.Fatalf("failed to encode test image: %v", err)
	}
	data := buf.Bytes()

	detector := &fakeDetector{
		boxes: []types.FaceBox{{X: 400, Y: 200, Width: 400, Height: 500, Confidence: 0.9}},
	}
	transcoder := NewTranscoder(detector)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := transcoder.Transcode(context.Background(), data, 50); err != nil {
			b.Fatal(err)
		}
	}
}
