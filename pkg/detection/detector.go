package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/nexoria/badgephoto/pkg/client"
	"github.com/nexoria/badgephoto/pkg/types"
)

// DefaultPrompt is the default prompt for face detection
const DefaultPrompt = `You are a face detector for employee badge photos.

Return JSON only:
{
  "faces": [
    {"box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}, "confidence": 0.0}
  ]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner of the face box.
- One entry per clearly visible human face, tight around the face from chin to top of hair.
- confidence is your own estimate in [0,1].
- If the image contains no human face, return {"faces": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Options tunes how images are presented to the vision model
type Options struct {
	MaxDimension int // long side of the copy sent to the model
	PrepQuality  int // JPEG quality of that copy
}

// DefaultOptions returns the detection options used when none are given
func DefaultOptions() Options {
	return Options{
		MaxDimension: 1024,
		PrepQuality:  85,
	}
}

// Detector locates faces in images using a vision model behind a VisionClient
type Detector struct {
	client client.VisionClient
	model  string
	opts   Options
}

// NewDetector creates a detector with default options
func NewDetector(vc client.VisionClient, model string) *Detector {
	return NewDetectorWithOptions(vc, model, DefaultOptions())
}

// NewDetectorWithOptions creates a detector with custom options
func NewDetectorWithOptions(vc client.VisionClient, model string, opts Options) *Detector {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = DefaultOptions().MaxDimension
	}
	if opts.PrepQuality <= 0 {
		opts.PrepQuality = DefaultOptions().PrepQuality
	}
	return &Detector{client: vc, model: model, opts: opts}
}

// DetectFaces asks the vision model for face bounding boxes and returns them
// in pixel coordinates of the given image. A clean reply with no faces yields
// an empty slice and no error; a reply that cannot be parsed is an error.
func (d *Detector) DetectFaces(ctx context.Context, img image.Image) ([]types.FaceBox, error) {
	imgB64, err := d.prepareForModel(img)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image for model: %v", err)
	}

	raw, err := d.client.Query(ctx, d.model, DefaultPrompt, imgB64)
	if err != nil {
		return nil, fmt.Errorf("vision query failed: %w", err)
	}

	reply, err := ParseReply(raw)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	boxes := make([]types.FaceBox, 0, len(reply.Faces))
	for _, face := range reply.Faces {
		box := clampBox(face.Box).ToPixels(width, height, face.Confidence)
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		boxes = append(boxes, box)
	}

	return boxes, nil
}

// prepareForModel downscales the image so its long side fits the model limit,
// then JPEG-encodes and base64s it. Boxes come back normalized, so the
// downscale needs no undoing.
func (d *Detector) prepareForModel(img image.Image) (string, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > d.opts.MaxDimension || h > d.opts.MaxDimension {
		if w >= h {
			img = imaging.Resize(img, d.opts.MaxDimension, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, d.opts.MaxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.opts.PrepQuality}); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ParseReply parses the model's JSON reply into a detection payload. Replies
// wrapped in code fences, comments, or prose are sanitized first. A reply
// without a JSON object is an error, not an empty detection.
func ParseReply(raw string) (*types.DetectionReply, error) {
	raw = sanitizeModelJSON(raw)

	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model returned non-JSON reply")
	}

	var reply types.DetectionReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		// Conservative brace-slice retry before giving up
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in model reply: %v", err)
		}
		if err2 := json.Unmarshal([]byte(raw[start:end+1]), &reply); err2 != nil {
			return nil, fmt.Errorf("failed to parse model reply: %v", err2)
		}
	}

	return &reply, nil
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)^\s*//.*$`)
	reInlineComment = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments, and trailing commas from
// a model reply, keeping only the outermost JSON object
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reInlineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	return strings.TrimSpace(raw)
}

// clampBox keeps a normalized box inside [0,1] without letting it spill past
// the right or bottom edge
func clampBox(b types.NormalizedBox) types.NormalizedBox {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.NormalizedBox{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
