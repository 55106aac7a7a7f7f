// Package badgephoto turns arbitrary employee photographs into standardized,
// face-centered badge thumbnails packaged as a single downloadable archive.
//
// Each photo runs through the same pipeline: decode, locate faces through a
// vision-model detector, crop around the largest face with adaptive margins,
// scale to a fixed square, and encode as JPEG. The output of a batch is one
// ZIP archive of finished badges named by the employee identifier extracted
// from each input filename, plus a report of which inputs failed and why.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//		"os"
//
//		"github.com/nexoria/badgephoto"
//		"github.com/nexoria/badgephoto/pkg/batch"
//		"github.com/nexoria/badgephoto/pkg/detection"
//		"github.com/nexoria/badgephoto/pkg/ollama"
//	)
//
//	func main() {
//		vc, err := ollama.NewClient("http://localhost:11434")
//		if err != nil {
//			log.Fatal(err)
//		}
//		detector := detection.NewDetector(vc, "openbmb/minicpm-v4.5")
//		pipeline := badgephoto.New(detector)
//
//		data, err := os.ReadFile("MTI12345 - John Doe.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := pipeline.ProcessBatch(context.Background(), []batch.Photo{
//			{Filename: "MTI12345 - John Doe.jpg", Data: data},
//		}, badgephoto.DefaultRadiusPercent)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("%d badges, %d failures\n", len(result.Succeeded), len(result.Failed))
//		if err := os.WriteFile("badges.zip", result.Archive, 0644); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of four main components:
//
// 1. Identifier extraction (pkg/ident): filename heuristics for employee identifiers
// 2. Crop geometry (pkg/cropper): adaptive face-centered crop windows
// 3. Transcoding (pkg/processing): decode, crop, scale, encode
// 4. Batch orchestration (pkg/batch): bounded concurrency, archive, report
//
// Face detection itself stays behind the processing.FaceDetector interface;
// pkg/detection implements it against Ollama or any OpenAI-compatible vision
// model server, and tests substitute fakes.
package badgephoto

import (
	"context"

	"github.com/nexoria/badgephoto/pkg/batch"
	"github.com/nexoria/badgephoto/pkg/cropper"
	"github.com/nexoria/badgephoto/pkg/ident"
	"github.com/nexoria/badgephoto/pkg/processing"
)

// Version of the badgephoto library
const Version = "1.0.0"

// DefaultRadiusPercent is the standard adaptive crop margin
const DefaultRadiusPercent = cropper.DefaultRadiusPercent

// Pipeline bundles the full photo standardization pipeline behind one handle
type Pipeline struct {
	transcoder *processing.Transcoder
	processor  *batch.Processor
}

// New creates a pipeline with default configuration around the given detector
func New(detector processing.FaceDetector) *Pipeline {
	return NewWithConfig(detector, processing.DefaultOptions(), batch.Config{})
}

// NewWithConfig creates a pipeline with custom transcoding and batch settings
func NewWithConfig(detector processing.FaceDetector, opts processing.Options, cfg batch.Config) *Pipeline {
	transcoder := processing.NewTranscoderWithOptions(detector, opts)
	return &Pipeline{
		transcoder: transcoder,
		processor:  batch.NewProcessorWithConfig(transcoder, cfg),
	}
}

// ProcessBatch runs every photo through the pipeline and returns the badge
// archive plus the per-photo report
func (p *Pipeline) ProcessBatch(ctx context.Context, photos []batch.Photo, radiusPercent int) (*batch.Result, error) {
	return p.processor.Process(ctx, photos, radiusPercent)
}

// ProcessPhoto transcodes a single photo into finished badge bytes
func (p *Pipeline) ProcessPhoto(ctx context.Context, data []byte, radiusPercent int) ([]byte, error) {
	return p.transcoder.Transcode(ctx, data, radiusPercent)
}

// ExtractIdentifier derives the employee identifier a filename would produce
func (p *Pipeline) ExtractIdentifier(filename string) string {
	return ident.Extract(batch.Stem(filename))
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
