package store

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/import", authMiddleware, func(c *fiber.Ctx) error {
		var req ImportRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		workout, err := svc.Import(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(workout)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		workouts, err := svc.List(c.Context(), c.QueryInt("limit"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if workouts == nil {
			workouts = []Workout{}
		}
		return c.JSON(workouts)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		workout, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(workout)
	})
}
