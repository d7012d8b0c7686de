package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-facecam/pkg/camera"
	"github.com/teslashibe/go-facecam/pkg/capture"
)

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handlePreviewStart(c *fiber.Ctx) error {
	s.ctrl.StartLivePreview()
	return c.Status(fiber.StatusAccepted).JSON(s.status())
}

func (s *Server) handlePreviewStop(c *fiber.Ctx) error {
	s.ctrl.StopLivePreview()
	return c.Status(fiber.StatusAccepted).JSON(s.status())
}

// handleTakePhoto requests a capture; the photo arrives on /ws/events.
func (s *Server) handleTakePhoto(c *fiber.Ctx) error {
	err := s.ctrl.TakePhoto(c.UserContext())
	switch {
	case err == nil:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "capturing"})
	case errors.Is(err, capture.ErrSessionNotRunning):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, capture.ErrCaptureInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func (s *Server) handleCountdownReset(c *fiber.Ctx) error {
	if s.OnCountdownReset == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "countdown not configured",
		})
	}
	s.OnCountdownReset()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListPhotos(c *fiber.Ctx) error {
	return c.JSON(s.photos.List())
}

func (s *Server) handleGetPhoto(c *fiber.Ctx) error {
	_, data, ok := s.photos.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "photo not found"})
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(data)
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	return c.JSON(s.cams.GetConfigJSON())
}

// handleUpdateCamera accepts a partial config and/or a "preset" name.
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if err := s.cams.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.cams.GetConfigJSON())
}

func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"presets": camera.PresetNames()})
}
