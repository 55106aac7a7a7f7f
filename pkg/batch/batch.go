// Package batch runs the badge pipeline over whole photo sets: identifier
// extraction and face transcoding per photo under a bounded worker pool,
// successful outputs staged into one archive, failures collected per photo
// without aborting the rest.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/nexoria/badgephoto/pkg/archive"
	"github.com/nexoria/badgephoto/pkg/cropper"
	"github.com/nexoria/badgephoto/pkg/ident"
)

var (
	// ErrDuplicateIdentifier reports a photo whose extracted identifier was
	// already claimed by an earlier photo in the same batch
	ErrDuplicateIdentifier = errors.New("duplicate employee identifier")
	// ErrInvalidRadius reports a radius percent outside the accepted range
	ErrInvalidRadius = errors.New("invalid radius percent")
)

// MaxWorkers caps the default pool size; badge photos decode into multiple
// megabytes each, so the pool stays small even on wide machines.
const MaxWorkers = 8

// Photo is one input file: its original name plus raw bytes
type Photo struct {
	Filename string
	Data     []byte
}

// Entry describes one successfully processed photo
type Entry struct {
	Filename   string `json:"filename"`   // archive entry name, <identifier>.jpg
	Identifier string `json:"identifier"` // extracted employee identifier
	Source     string `json:"source"`     // original input filename
}

// Failure describes one photo that could not be processed
type Failure struct {
	Filename string `json:"filename"` // original input filename
	Reason   string `json:"reason"`
}

// Result is the complete outcome of one batch invocation
type Result struct {
	Archive   []byte    `json:"-"`
	Succeeded []Entry   `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Transcoder produces finished badge bytes from raw photo bytes
type Transcoder interface {
	Transcode(ctx context.Context, data []byte, radiusPercent int) ([]byte, error)
}

// Archiver collects named entries and finalizes them into one byte blob
type Archiver interface {
	Add(name string, data []byte) error
	Close() ([]byte, error)
}

// Config tunes a batch processor
type Config struct {
	Workers     int              // worker pool size; 0 means NumCPU capped at MaxWorkers
	Logger      *zap.Logger      // nil means no logging
	NewArchiver func() Archiver  // nil means in-memory ZIP
	Progress    func()           // called once per resolved photo, from the collector
}

// Processor runs batches of photos through a transcoder
type Processor struct {
	transcoder  Transcoder
	workers     int
	logger      *zap.Logger
	newArchiver func() Archiver
	progress    func()
}

// NewProcessor creates a batch processor with default configuration
func NewProcessor(transcoder Transcoder) *Processor {
	return NewProcessorWithConfig(transcoder, Config{})
}

// NewProcessorWithConfig creates a batch processor with custom configuration
func NewProcessorWithConfig(transcoder Transcoder, cfg Config) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = min(runtime.NumCPU(), MaxWorkers)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewArchiver == nil {
		cfg.NewArchiver = func() Archiver { return archive.NewZipBuilder() }
	}
	return &Processor{
		transcoder:  transcoder,
		workers:     cfg.Workers,
		logger:      cfg.Logger,
		newArchiver: cfg.NewArchiver,
		progress:    cfg.Progress,
	}
}

// outcome is one resolved photo on its way to the collector
type outcome struct {
	photo      Photo
	identifier string
	badge      []byte
	err        error
}

// Process runs every photo through the pipeline and returns the archive of
// successful badges plus the per-photo report. Individual photo failures
// never abort the batch; only a failure of the archive itself does.
func (p *Processor) Process(ctx context.Context, photos []Photo, radiusPercent int) (*Result, error) {
	if !cropper.ValidRadius(radiusPercent) {
		return nil, fmt.Errorf("%w: %d outside [%d,%d]", ErrInvalidRadius,
			radiusPercent, cropper.MinRadiusPercent, cropper.MaxRadiusPercent)
	}

	jobs := make(chan Photo)
	outcomes := make(chan outcome, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for photo := range jobs {
				outcomes <- p.processOne(ctx, photo, radiusPercent)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, photo := range photos {
			select {
			case jobs <- photo:
			case <-ctx.Done():
				// Stop scheduling; in-flight photos finish on their own
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	result, err := p.collect(outcomes)
	if err != nil {
		return nil, err
	}

	p.logger.Info("batch complete",
		zap.Int("submitted", len(photos)),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)

	return result, nil
}

// processOne resolves a single photo: extract the identifier, transcode the
// badge. Cancellation before the photo starts counts as its failure.
func (p *Processor) processOne(ctx context.Context, photo Photo, radiusPercent int) outcome {
	identifier := ident.Extract(Stem(photo.Filename))

	if err := ctx.Err(); err != nil {
		return outcome{photo: photo, identifier: identifier, err: fmt.Errorf("batch cancelled: %w", err)}
	}

	badge, err := p.transcoder.Transcode(ctx, photo.Data, radiusPercent)
	if err != nil {
		p.logger.Debug("photo failed",
			zap.String("filename", photo.Filename),
			zap.Error(err),
		)
		return outcome{photo: photo, identifier: identifier, err: err}
	}

	p.logger.Debug("photo processed",
		zap.String("filename", photo.Filename),
		zap.String("identifier", identifier),
		zap.Int("bytes", len(badge)),
	)
	return outcome{photo: photo, identifier: identifier, badge: badge}
}

// collect drains worker outcomes into the archive and report. It is the
// single goroutine touching the archiver and the result lists. The first
// photo to resolve claims its identifier; later photos resolving to the same
// one fail. An archive write failure is fatal for the whole batch.
func (p *Processor) collect(outcomes <-chan outcome) (*Result, error) {
	result := &Result{
		Succeeded: []Entry{},
		Failed:    []Failure{},
	}
	claimed := make(map[string]struct{})
	archiver := p.newArchiver()

	var fatal error
	for o := range outcomes {
		if p.progress != nil {
			p.progress()
		}

		if o.err != nil {
			result.Failed = append(result.Failed, Failure{
				Filename: o.photo.Filename,
				Reason:   o.err.Error(),
			})
			continue
		}
		if fatal != nil {
			// Archive is already broken, keep draining workers
			continue
		}

		if _, taken := claimed[o.identifier]; taken {
			result.Failed = append(result.Failed, Failure{
				Filename: o.photo.Filename,
				Reason:   fmt.Sprintf("%v: %s already claimed by another photo", ErrDuplicateIdentifier, o.identifier),
			})
			continue
		}
		claimed[o.identifier] = struct{}{}

		entryName := o.identifier + ".jpg"
		if err := archiver.Add(entryName, o.badge); err != nil {
			fatal = fmt.Errorf("failed to stage %s: %w", entryName, err)
			continue
		}
		result.Succeeded = append(result.Succeeded, Entry{
			Filename:   entryName,
			Identifier: o.identifier,
			Source:     o.photo.Filename,
		})
	}

	if fatal != nil {
		return nil, fatal
	}

	// Completion order is racy; sort so equal inputs give equal reports
	sort.Slice(result.Succeeded, func(i, j int) bool {
		return result.Succeeded[i].Source < result.Succeeded[j].Source
	})
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].Filename < result.Failed[j].Filename
	})

	blob, err := archiver.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	result.Archive = blob

	return result, nil
}

// Stem returns a filename without its directory and extension
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
