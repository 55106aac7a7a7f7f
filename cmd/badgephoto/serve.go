package main

import (
	"github.com/spf13/cobra"

	"github.com/nexoria/badgephoto/internal/server"
	"github.com/nexoria/badgephoto/pkg/batch"
	"github.com/nexoria/badgephoto/pkg/logger"
	"github.com/nexoria/badgephoto/pkg/processing"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP batch upload service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			log := logger.Get()

			detector, err := newDetector(cfg)
			if err != nil {
				return err
			}

			transcoder := processing.NewTranscoderWithOptions(detector, processing.Options{
				Size:          cfg.Output.Size,
				Quality:       cfg.Output.Quality,
				DetectTimeout: cfg.Detection.Timeout,
			})
			processor := batch.NewProcessorWithConfig(transcoder, batch.Config{
				Workers: cfg.Batch.Workers,
				Logger:  log,
			})

			return server.New(cfg, processor, log).Serve(cmd.Context())
		},
	}
}
