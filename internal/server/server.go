// Package server exposes the batch pipeline over HTTP: multipart photo
// uploads in, one ZIP of finished badges plus a per-photo report out.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nexoria/badgephoto/internal/config"
	"github.com/nexoria/badgephoto/pkg/batch"
)

const megabyte = 1 << 20

// Server hosts the HTTP batch surface
type Server struct {
	cfg       *config.Config
	processor *batch.Processor
	logger    *zap.Logger
}

// New creates a configured server
func New(cfg *config.Config, processor *batch.Processor, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		processor: processor,
		logger:    logger,
	}
}

// Serve runs the HTTP server until the context is cancelled, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router builds the HTTP routes and middleware chain
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoveryMiddleware(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/v1/batches", s.handleBatch)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// batchReport is the JSON answer for ?report=json callers
type batchReport struct {
	Succeeded []batch.Entry   `json:"succeeded"`
	Failed    []batch.Failure `json:"failed"`
	Archive   string          `json:"archive"` // base64 ZIP
}

// handleBatch accepts a multipart upload of photos and answers with the
// finished badge archive. The "photos" field repeats once per file; an
// optional "radius" field overrides the configured crop radius percent.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	requestID := RequestID(r.Context())

	maxBytes := int64(s.cfg.Server.MaxUploadMB) * megabyte
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "expecting multipart form", requestID)
		return
	}

	radius := s.cfg.Batch.RadiusPercent
	var photos []batch.Photo

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read upload", requestID)
			return
		}

		switch part.FormName() {
		case "photos":
			data, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				s.respondError(w, http.StatusRequestEntityTooLarge, "upload too large", requestID)
				return
			}
			photos = append(photos, batch.Photo{
				Filename: part.FileName(),
				Data:     data,
			})
		case "radius":
			value, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				s.respondError(w, http.StatusBadRequest, "failed to read radius field", requestID)
				return
			}
			radius, err = strconv.Atoi(string(value))
			if err != nil {
				s.respondError(w, http.StatusBadRequest, "radius must be an integer", requestID)
				return
			}
		default:
			part.Close()
		}
	}

	if len(photos) == 0 {
		s.respondError(w, http.StatusBadRequest, "no photos in upload", requestID)
		return
	}

	result, err := s.processor.Process(r.Context(), photos, radius)
	if err != nil {
		s.logger.Error("batch failed",
			zap.String("request_id", requestID),
			zap.Int("photos", len(photos)),
			zap.Error(err),
		)
		status := http.StatusInternalServerError
		if errors.Is(err, batch.ErrInvalidRadius) {
			status = http.StatusBadRequest
		}
		s.respondError(w, status, err.Error(), requestID)
		return
	}

	w.Header().Set("X-Batch-Succeeded", strconv.Itoa(len(result.Succeeded)))
	w.Header().Set("X-Batch-Failed", strconv.Itoa(len(result.Failed)))

	if r.URL.Query().Get("report") == "json" {
		s.respondJSON(w, http.StatusOK, batchReport{
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			Archive:   base64.StdEncoding.EncodeToString(result.Archive),
		})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="badges.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Archive)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q,"request_id":%q}`, message, requestID)
}
