package client

import (
	"context"
)

// VisionClient sends a prompt plus one base64-encoded image to a vision model
// backend and returns the model's raw text reply.
type VisionClient interface {
	Query(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
