// Package activity exposes the live session engine over HTTP. Handlers only
// translate between the wire and the engine; all lifecycle and aggregation
// logic lives in internal/engine.
package activity

import (
	"errors"

	"backend-stride/internal/engine"
	"backend-stride/internal/sensor"

	"github.com/gofiber/fiber/v2"
)

type startRequest struct {
	SessionRef string `json:"session_ref"`
	SportType  string `json:"sport_type"`
}

type batteryRequest struct {
	Level float64 `json:"level"`
}

func RegisterRoutes(r fiber.Router, eng *engine.Engine, ready *engine.ReadinessChecker,
	feed *sensor.Feed, battery *sensor.BatteryReporter, authMiddleware fiber.Handler) {

	r.Post("/countdown", authMiddleware, func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil || req.SessionRef == "" {
			return fiber.NewError(fiber.StatusBadRequest, "session_ref required")
		}
		if err := eng.StartCountdown(req.SessionRef, req.SportType); err != nil {
			return engineError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(eng.Snapshot())
	})

	r.Delete("/countdown", authMiddleware, func(c *fiber.Ctx) error {
		if err := eng.CancelCountdown(); err != nil {
			return engineError(err)
		}
		return c.JSON(eng.Snapshot())
	})

	r.Post("/samples", authMiddleware, func(c *fiber.Ctx) error {
		var s engine.Sample
		if err := c.BodyParser(&s); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid sample")
		}
		feed.Publish(s)
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/pause", authMiddleware, func(c *fiber.Ctx) error {
		if err := eng.Pause(); err != nil {
			return engineError(err)
		}
		return c.JSON(eng.Snapshot())
	})

	r.Post("/resume", authMiddleware, func(c *fiber.Ctx) error {
		if err := eng.Resume(); err != nil {
			return engineError(err)
		}
		return c.JSON(eng.Snapshot())
	})

	r.Post("/autopause", authMiddleware, func(c *fiber.Ctx) error {
		if err := eng.AutoPause(); err != nil {
			return engineError(err)
		}
		return c.JSON(eng.Snapshot())
	})

	r.Post("/autoresume", authMiddleware, func(c *fiber.Ctx) error {
		if err := eng.AutoResume(); err != nil {
			return engineError(err)
		}
		return c.JSON(eng.Snapshot())
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		metrics, err := eng.Stop(c.Context())
		if err != nil {
			return engineError(err)
		}
		return c.JSON(metrics)
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		if err := eng.Discard(); err != nil {
			return engineError(err)
		}
		return c.JSON(eng.Snapshot())
	})

	r.Get("/snapshot", func(c *fiber.Ctx) error {
		return c.JSON(eng.Snapshot())
	})

	r.Get("/readiness", func(c *fiber.Ctx) error {
		return c.JSON(ready.CheckReadiness())
	})

	r.Get("/gps", func(c *fiber.Ctx) error {
		return c.JSON(ready.CheckGPSAvailability())
	})

	r.Post("/battery", authMiddleware, func(c *fiber.Ctx) error {
		var req batteryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := battery.Report(req.Level); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})
}

func engineError(err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrSessionActive),
		errors.Is(err, engine.ErrNoActiveSession):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrSaveFailed):
		// The session is still in summary; the client may retry or discard.
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
