package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexoria/badgephoto"
	"github.com/nexoria/badgephoto/internal/config"
	"github.com/nexoria/badgephoto/pkg/client"
	"github.com/nexoria/badgephoto/pkg/detection"
	"github.com/nexoria/badgephoto/pkg/llamacpp"
	"github.com/nexoria/badgephoto/pkg/logger"
	"github.com/nexoria/badgephoto/pkg/ollama"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "badgephoto: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "badgephoto",
		Short:   "Employee badge photo standardization",
		Long: `badgephoto turns directories or uploads of employee photographs into
face-centered 400x400 badge thumbnails, packaged as one ZIP archive and named
by the employee identifier extracted from each filename.`,
		Version:      badgephoto.Version,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.AddCommand(
		newProcessCmd(),
		newServeCmd(),
	)
	return cmd
}

// loadConfig reads configuration and brings up the logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// newDetector builds the configured vision backend and wraps it as a face
// detector
func newDetector(cfg *config.Config) (*detection.Detector, error) {
	var (
		vc  client.VisionClient
		err error
	)
	switch cfg.Detection.Backend {
	case config.BackendOllama:
		vc, err = ollama.NewClient(cfg.Detection.URL)
	case config.BackendLlamaCpp:
		vc, err = llamacpp.NewClient(cfg.Detection.URL)
	default:
		err = fmt.Errorf("unknown detection backend %q", cfg.Detection.Backend)
	}
	if err != nil {
		return nil, err
	}
	return detection.NewDetector(vc, cfg.Detection.Model), nil
}
