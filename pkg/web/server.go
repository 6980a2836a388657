// Package web serves the live spotter dashboard: a status API, a command
// endpoint for the operator, and websocket streams of status updates and
// annotated preview frames.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-spotter/pkg/hub"
	"github.com/teslashibe/go-spotter/pkg/pipeline"
	"gocv.io/x/gocv"
)

// PointView is a localized point as shown on the dashboard.
type PointView struct {
	U int     `json:"u"`
	V int     `json:"v"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Status is the dashboard view of the pipeline.
type Status struct {
	pipeline.Snapshot
	LastFrame  uint64      `json:"last_frame"`
	LastStatus string      `json:"last_status"`
	LastReason string      `json:"last_reason,omitempty"`
	LastPoints []PointView `json:"last_points"`
	Faces      int         `json:"faces"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Config tunes the dashboard.
type Config struct {
	Port            string
	StatusInterval  time.Duration // minimum spacing of status broadcasts
	PreviewInterval time.Duration // minimum spacing of preview frames
	PreviewQuality  int           // JPEG quality 1-100
}

// DefaultConfig returns a 10 Hz status and 15 fps preview on port 8080.
func DefaultConfig() Config {
	return Config{
		Port:            "8080",
		StatusInterval:  100 * time.Millisecond,
		PreviewInterval: 66 * time.Millisecond,
		PreviewQuality:  70,
	}
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	status   Status
	statusMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub  *hub.Hub
	previewHub *hub.Hub

	// Observe throttling; only touched from the pipeline goroutine.
	lastStatus  time.Time
	lastPreview time.Time

	cancel context.CancelFunc

	// OnCommand delivers an operator command to the pipeline. It returns
	// false when the command could not be queued.
	OnCommand func(cmd pipeline.Command) bool
}

// NewServer creates a dashboard server. A nil logger means slog.Default().
func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		statusHub:  hub.New("status", logger),
		previewHub: hub.New("preview", logger),
	}
	s.status.LastPoints = []PointView{}

	app := fiber.New(fiber.Config{
		AppName:               "Spotter Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/command/:name", s.handleCommand)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	s.app = app
	return s
}

// App exposes the fiber app (tests drive it with app.Test).
func (s *Server) App() *fiber.App { return s.app }

// RunHubs starts the broadcast hubs. They stop when ctx is cancelled or
// the server shuts down.
func (s *Server) RunHubs(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.statusHub.Run(ctx)
	go s.previewHub.Run(ctx)
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start(ctx context.Context) error {
	s.RunHubs(ctx)
	s.logger.Info("web dashboard listening", "url", "http://localhost:"+s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// StartAsync starts the server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Status returns a copy of the current status.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st := s.status
	st.LastPoints = append([]PointView(nil), s.status.LastPoints...)
	return st
}

// Publish records the latest outcome and broadcasts the status.
func (s *Server) Publish(o pipeline.Outcome, snap pipeline.Snapshot) {
	st := Status{
		Snapshot:   snap,
		LastFrame:  o.Seq,
		LastStatus: o.Status.String(),
		LastPoints: make([]PointView, 0, len(o.Points)),
		Faces:      len(o.Faces),
		UpdatedAt:  time.Now(),
	}
	if o.Reason != nil {
		st.LastReason = o.Reason.Error()
	}
	for _, p := range o.Points {
		st.LastPoints = append(st.LastPoints, PointView{
			U: p.U, V: p.V,
			X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
		})
	}

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	if err := s.statusHub.BroadcastJSON(st); err != nil {
		s.logger.Warn("status encode failed", "error", err)
	}
}

// PublishFrame sends an encoded preview frame to preview clients.
func (s *Server) PublishFrame(jpeg []byte) {
	s.previewHub.BroadcastBinary(jpeg)
}

// Observe is a pipeline.Observer. It throttles status and preview
// updates and skips JPEG encoding when nobody is watching.
func (s *Server) Observe(img gocv.Mat, o pipeline.Outcome, snap pipeline.Snapshot) {
	now := time.Now()
	if now.Sub(s.lastStatus) >= s.cfg.StatusInterval {
		s.lastStatus = now
		s.Publish(o, snap)
	}

	if s.previewHub.ClientCount() == 0 || now.Sub(s.lastPreview) < s.cfg.PreviewInterval {
		return
	}
	s.lastPreview = now
	data, err := EncodeJPEG(img, s.cfg.PreviewQuality)
	if err != nil {
		s.logger.Debug("preview encode failed", "error", err)
		return
	}
	s.PublishFrame(data)
}

// EncodeJPEG compresses img. The returned bytes are owned by the caller.
func EncodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	if img.Empty() {
		return nil, errEmptyImage
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// PreviewClients returns the number of connected preview viewers.
func (s *Server) PreviewClients() int { return s.previewHub.ClientCount() }

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.app.Shutdown()
}
