// Spotter detects circular targets in a camera stream, localizes them in
// 3D, and records annotated video plus a coordinate table on demand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-spotter/internal/config"
	"github.com/teslashibe/go-spotter/internal/log"
	"github.com/teslashibe/go-spotter/pkg/camera"
	"github.com/teslashibe/go-spotter/pkg/spotter"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	app, err := spotter.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := app.Init(); err != nil {
		log.Error("initialization failed", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Error("runtime error", "error", err)
		app.Shutdown()
		os.Exit(1)
	}
}

// parseFlags parses command line flags over the environment-adjusted
// defaults and returns the configuration.
func parseFlags() (spotter.Config, error) {
	cfg := spotter.DefaultConfig()
	cfg.LoadEnvConfig()

	debug := flag.Bool("debug", false, "Enable per-frame detector traces")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", cfg.LogFile, "Also write logs to this rotated file")
	source := flag.String("source", cfg.Source, "Camera index or video file")
	depthDir := flag.String("depth-dir", cfg.DepthDir, "Recorded RGB-D directory (selects depth deprojection)")
	preset := flag.String("mode", camera.PresetDefault, "Stream mode preset: default, vga, 720p, fast")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory for output.avi and xyz_coordinates.xlsx")
	timestamps := flag.Bool("timestamps", false, "Suffix output files with the session start time")
	noFlush := flag.Bool("no-flush", false, "Drop an active session's table on shutdown instead of writing it")
	face := flag.String("face", cfg.Face, "Face overlay: none, haar, yunet")
	haar := flag.String("haar-cascade", cfg.HaarCascade, "Haar cascade XML path")
	yunet := flag.String("yunet-model", cfg.YuNetModel, "YuNet ONNX model path")
	refSize := flag.Float64("ref-size", cfg.ReferenceSize, "Monocular reference target size in meters")
	focal := flag.Float64("focal", cfg.FocalLength, "Monocular focal length in pixels")
	pinhole := flag.Bool("pinhole", false, "Monocular x/y from the image center instead of raw pixels")
	headless := flag.Bool("headless", false, "Run without a preview window")
	webPort := flag.String("web-port", cfg.WebPort, "Serve the dashboard on this port (empty disables)")
	flag.Parse()

	mode := camera.GetPreset(*preset)
	if mode == nil {
		return cfg, fmt.Errorf("unknown mode preset %q", *preset)
	}

	cfg.Debug, cfg.LogLevel, cfg.LogFile = *debug, *logLevel, *logFile
	cfg.Source, cfg.DepthDir, cfg.Mode = *source, *depthDir, *mode
	cfg.OutputDir, cfg.Timestamps, cfg.FlushOnExit = *outputDir, *timestamps, !*noFlush
	cfg.Face, cfg.HaarCascade, cfg.YuNetModel = *face, *haar, *yunet
	cfg.ReferenceSize, cfg.FocalLength, cfg.Pinhole = *refSize, *focal, *pinhole
	cfg.Headless, cfg.WebPort = *headless, *webPort
	if cfg.Debug && *logLevel == spotter.DefaultLogLevel {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
