package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nexoria/badgephoto"
	"github.com/nexoria/badgephoto/internal/utils"
	"github.com/nexoria/badgephoto/pkg/batch"
	"github.com/nexoria/badgephoto/pkg/logger"
	"github.com/nexoria/badgephoto/pkg/processing"
)

func newProcessCmd() *cobra.Command {
	var (
		inputDir   string
		output     string
		reportPath string
		radius     int
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process a directory of photos into a badge archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			log := logger.Get()

			if radius == 0 {
				radius = cfg.Batch.RadiusPercent
			}
			if workers == 0 {
				workers = cfg.Batch.Workers
			}

			detector, err := newDetector(cfg)
			if err != nil {
				return err
			}

			files, err := utils.ListImageFiles(inputDir)
			if err != nil {
				return fmt.Errorf("failed to list input files: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no image files under %s", inputDir)
			}

			photos := make([]batch.Photo, 0, len(files))
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				photos = append(photos, batch.Photo{Filename: path, Data: data})
			}

			bar := progressbar.NewOptions(len(photos),
				progressbar.OptionSetDescription("processing photos"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)

			pipeline := badgephoto.NewWithConfig(detector,
				processing.Options{
					Size:          cfg.Output.Size,
					Quality:       cfg.Output.Quality,
					DetectTimeout: cfg.Detection.Timeout,
				},
				batch.Config{
					Workers:  workers,
					Logger:   log,
					Progress: func() { _ = bar.Add(1) },
				},
			)

			result, err := pipeline.ProcessBatch(cmd.Context(), photos, radius)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := utils.EnsureDir(dir); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			if err := os.WriteFile(output, result.Archive, 0644); err != nil {
				return fmt.Errorf("failed to write archive: %w", err)
			}

			fmt.Printf("%d badges written to %s (%s), %d failures\n",
				len(result.Succeeded), output,
				utils.FormatFileSize(int64(len(result.Archive))),
				len(result.Failed))
			for _, f := range result.Failed {
				fmt.Printf("  failed: %s: %s\n", f.Filename, f.Reason)
			}

			if reportPath != "" {
				report, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal report: %w", err)
				}
				if err := os.WriteFile(reportPath, report, 0644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "directory of employee photos")
	cmd.Flags().StringVarP(&output, "output", "o", "badges.zip", "output archive path")
	cmd.Flags().StringVar(&reportPath, "report", "", "optional path for a JSON processing report")
	cmd.Flags().IntVarP(&radius, "radius", "r", 0, "crop radius percent, 5-100 (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "worker pool size (default from config)")
	cmd.MarkFlagRequired("input")

	return cmd
}
