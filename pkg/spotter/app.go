package spotter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/teslashibe/go-spotter/internal/log"
	"github.com/teslashibe/go-spotter/pkg/camera"
	"github.com/teslashibe/go-spotter/pkg/debug"
	"github.com/teslashibe/go-spotter/pkg/detection"
	"github.com/teslashibe/go-spotter/pkg/frame"
	"github.com/teslashibe/go-spotter/pkg/localize"
	"github.com/teslashibe/go-spotter/pkg/pipeline"
	"github.com/teslashibe/go-spotter/pkg/recording"
	"github.com/teslashibe/go-spotter/pkg/web"
)

// commandQueue is how many remote commands may wait for the next poll.
const commandQueue = 8

// App is the spotter application. It owns every component and their
// lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	// Injected collaborators (tests); nil means build from config.
	source    frame.Source
	openVideo recording.VideoOpener
	table     recording.TableWriter

	// Vision
	circles   *detection.HoughDetector
	faces     detection.FaceAnnotator
	localizer localize.Localizer

	// Recording
	session *recording.Session

	// Operator I/O
	commands  *pipeline.ChanSource
	window    *pipeline.Window
	webServer *web.Server

	loop *pipeline.Loop
}

// Option configures an App.
type Option func(*App)

// WithSource replaces the configured camera with src.
func WithSource(src frame.Source) Option {
	return func(a *App) { a.source = src }
}

// WithVideoOpener replaces the OpenCV video writer.
func WithVideoOpener(open recording.VideoOpener) Option {
	return func(a *App) { a.openVideo = open }
}

// WithTableWriter replaces the xlsx writer.
func WithTableWriter(w recording.TableWriter) Option {
	return func(a *App) { a.table = w }
}

// WithLogger sets the application logger instead of the global one.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New validates cfg and creates the application.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug

	app := &App{
		config:    cfg,
		openVideo: recording.OpenVideoWriter,
		table:     recording.XLSXTable{},
		commands:  pipeline.NewChanSource(commandQueue),
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		log.InitFile(cfg.LogLevel, cfg.LogFile)
		app.logger = log.L()
	}
	return app, nil
}

// Init opens the source and builds the pipeline.
// Call this after New() and before Run().
func (a *App) Init() error {
	a.logger.Info("spotter starting", "debug", debug.Enabled)

	if err := a.initSource(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := a.initVision(); err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	if err := a.initRecording(); err != nil {
		return fmt.Errorf("recording: %w", err)
	}
	a.initOperator()

	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithFlushOnExit(a.config.FlushOnExit),
	}
	if a.faces != nil {
		opts = append(opts, pipeline.WithFaces(a.faces))
	}
	sources := pipeline.Sources{a.commands}
	if a.window != nil {
		sources = append(pipeline.Sources{a.window}, sources...)
		opts = append(opts, pipeline.WithDisplay(a.window))
	}
	opts = append(opts, pipeline.WithCommands(sources))
	if a.webServer != nil {
		opts = append(opts, pipeline.WithObserver(a.webServer.Observe))
	}

	a.loop = pipeline.New(a.source, a.circles, a.localizer, a.session, opts...)
	a.logger.Info("pipeline ready",
		"strategy", a.localizer.Name(),
		"faces", a.config.Face,
		"headless", a.window == nil,
		"dashboard", a.webServer != nil,
	)
	return nil
}

// Run drives the pipeline until quit, end of stream, or ctx cancellation.
// Cancellation closes an active session and, with FlushOnExit, writes
// its table.
func (a *App) Run(ctx context.Context) error {
	if a.loop == nil {
		return errors.New("spotter: Run called before Init")
	}
	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}
	a.logger.Info("press 'r' to toggle recording, 'q' to quit")
	return a.loop.Run(ctx)
}

// Commands returns the queue remote operators feed.
func (a *App) Commands() *pipeline.ChanSource { return a.commands }

// Shutdown releases every component. Safe to call after a failed Init.
func (a *App) Shutdown() {
	if a.session != nil {
		if err := a.session.Close(a.config.FlushOnExit); err != nil {
			a.logger.Error("closing recording session", "error", err)
		}
	}
	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.window != nil {
		a.window.Close()
	}
	if a.faces != nil {
		a.faces.Close()
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.logger.Warn("closing source", "error", err)
		}
	}
	a.logger.Info("spotter stopped")
}

func (a *App) initSource() error {
	if a.source != nil {
		return nil
	}
	if a.config.DepthDir != "" {
		src, err := camera.OpenRGBDDirectory(a.config.DepthDir, a.config.Mode, a.logger)
		if err != nil {
			return err
		}
		a.source = src
		return nil
	}
	src, err := camera.OpenCapture(a.config.Source, a.config.Mode, a.logger)
	if err != nil {
		return err
	}
	a.source = src
	return nil
}

func (a *App) initVision() error {
	loc, params, err := localize.ForSource(a.source, a.config.Monocular())
	if err != nil {
		return err
	}
	a.localizer = loc

	a.circles, err = detection.NewHoughDetector(params)
	if err != nil {
		return err
	}

	// A missing face model costs only the overlay.
	switch a.config.Face {
	case FaceHaar:
		hc := detection.DefaultHaarConfig()
		hc.CascadePath = a.config.HaarCascade
		d, err := detection.NewHaar(hc)
		if err != nil {
			a.logger.Warn("face overlay disabled", "backend", FaceHaar, "error", err)
			break
		}
		a.faces = d
	case FaceYuNet:
		yc := detection.DefaultYuNetConfig()
		yc.ModelPath = a.config.YuNetModel
		d, err := detection.NewYuNet(yc)
		if err != nil {
			a.logger.Warn("face overlay disabled", "backend", FaceYuNet, "error", err)
			break
		}
		a.faces = d
	}
	return nil
}

func (a *App) initRecording() error {
	if err := os.MkdirAll(a.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	a.session = recording.NewSession(a.config.Recording(), a.openVideo, a.table,
		recording.WithLogger(a.logger),
	)
	return nil
}

func (a *App) initOperator() {
	if !a.config.Headless {
		a.window = pipeline.NewWindow(WindowTitle)
	}
	if a.config.WebPort != "" {
		wc := web.DefaultConfig()
		wc.Port = a.config.WebPort
		a.webServer = web.NewServer(wc, a.logger)
		a.webServer.OnCommand = a.commands.Send
	}
}
