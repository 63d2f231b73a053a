// nblog creates, writes, merges and dumps non-blocking event timelines.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mrzor/nblog/internal/config"
	"github.com/mrzor/nblog/internal/timeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information injected at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	dir    string
}

// newLogger builds a console logger at the configured level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.ZapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "nblog",
		Short:         "Non-blocking event timelines",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.dir, "dir", a.dir, "directory holding shared timelines")

	root.AddCommand(
		newCreateCmd(a),
		newLogCmd(a),
		newDumpCmd(a),
		newDemoCmd(a),
	)
	return root
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a := &app{cfg: cfg, logger: logger, dir: cfg.ShmDir}
	if a.dir == "" {
		a.dir = timeline.DefaultDir()
	}

	root := newRootCmd(a)
	root.SetArgs(os.Args[1:])
	return root.Execute()
}
