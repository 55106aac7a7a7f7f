package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/nexoria/badgephoto/pkg/cropper"
	"github.com/nexoria/badgephoto/pkg/types"
)

var (
	// ErrDecode reports input bytes that are not a decodable image
	ErrDecode = errors.New("undecodable image data")
	// ErrNoFace reports that the detector found no usable face
	ErrNoFace = errors.New("no face detected")
)

// FaceDetector locates faces in a decoded image
type FaceDetector interface {
	DetectFaces(ctx context.Context, img image.Image) ([]types.FaceBox, error)
}

// Options controls the badge output produced by the transcoder
type Options struct {
	Size          int           // output edge length in pixels
	Quality       int           // JPEG quality
	DetectTimeout time.Duration // per-photo budget for the detector
}

// DefaultOptions returns the standard badge output settings
func DefaultOptions() Options {
	return Options{
		Size:          400,
		Quality:       95,
		DetectTimeout: 30 * time.Second,
	}
}

// Transcoder turns arbitrary employee photos into fixed-size badge crops
type Transcoder struct {
	detector FaceDetector
	opts     Options
}

// NewTranscoder creates a transcoder with default options
func NewTranscoder(detector FaceDetector) *Transcoder {
	return NewTranscoderWithOptions(detector, DefaultOptions())
}

// NewTranscoderWithOptions creates a transcoder with custom options
func NewTranscoderWithOptions(detector FaceDetector, opts Options) *Transcoder {
	defaults := DefaultOptions()
	if opts.Size <= 0 {
		opts.Size = defaults.Size
	}
	if opts.Quality <= 0 {
		opts.Quality = defaults.Quality
	}
	if opts.DetectTimeout <= 0 {
		opts.DetectTimeout = defaults.DetectTimeout
	}
	return &Transcoder{detector: detector, opts: opts}
}

// Transcode decodes photo bytes, finds the largest face, crops around it and
// returns the finished square JPEG.
func (t *Transcoder) Transcode(ctx context.Context, data []byte, radiusPercent int) ([]byte, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return t.TranscodeImage(ctx, img, radiusPercent)
}

// TranscodeImage is Transcode for an already decoded image
func (t *Transcoder) TranscodeImage(ctx context.Context, img image.Image, radiusPercent int) ([]byte, error) {
	boxes, err := t.detectWithTimeout(ctx, img)
	if err != nil {
		return nil, err
	}

	face, ok := cropper.LargestFace(boxes)
	if !ok {
		return nil, ErrNoFace
	}

	bounds := img.Bounds()
	rect := cropper.ComputeCrop(bounds.Dx(), bounds.Dy(), face, radiusPercent)
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("crop window collapsed for face at (%d,%d): %w", face.X, face.Y, ErrNoFace)
	}

	out := imaging.Crop(img, rect)
	// The badge is an exact square; a non-square crop is stretched to fit,
	// not letterboxed
	out = imaging.Resize(out, t.opts.Size, t.opts.Size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(t.opts.Quality)); err != nil {
		return nil, fmt.Errorf("failed to encode badge image: %v", err)
	}

	return buf.Bytes(), nil
}

// detectWithTimeout runs the detector under the per-photo budget. A timed-out
// detection reports the same failure as an empty one, with the budget named
// in the message.
func (t *Transcoder) detectWithTimeout(ctx context.Context, img image.Image) ([]types.FaceBox, error) {
	if t.opts.DetectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.DetectTimeout)
		defer cancel()
	}

	boxes, err := t.detector.DetectFaces(ctx, img)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("face detection timed out after %s: %w", t.opts.DetectTimeout, ErrNoFace)
		}
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	return boxes, nil
}

// DecodeImage decodes photo bytes. JPEG, PNG, GIF and BMP go through the
// registered stdlib decoders, WebP falls back to the dedicated codec.
func DecodeImage(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("%w: unknown or unsupported format", ErrDecode)
}
