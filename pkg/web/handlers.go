package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-spotter/pkg/hub"
	"github.com/teslashibe/go-spotter/pkg/pipeline"
)

var errEmptyImage = errors.New("empty image")

// handleStatus returns the latest pipeline status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleCommand queues an operator command for the pipeline. Unknown
// names are rejected so a typo cannot be mistaken for "none".
func (s *Server) handleCommand(c *fiber.Ctx) error {
	name := c.Params("name")
	cmd := pipeline.ParseCommand(name)
	if cmd == pipeline.None {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown command: " + name,
		})
	}

	if s.OnCommand == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "command handling not configured",
		})
	}
	if !s.OnCommand(cmd) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "command queue full",
		})
	}

	s.logger.Info("operator command queued", "command", cmd.String(), "remote", c.IP())
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"command": cmd.String(),
	})
}

// handleStatusWS streams status updates, starting with the current one.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	if client == nil {
		return
	}
	// The write pump is not running yet, so this write cannot race it.
	if err := c.WriteJSON(s.Status()); err != nil {
		s.logger.Debug("status ws initial write failed", "error", err)
	}
	client.Run()
}

// handlePreviewWS streams annotated JPEG frames.
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	client := hub.NewClient(s.previewHub, c)
	if client == nil {
		return
	}
	client.Run()
}
