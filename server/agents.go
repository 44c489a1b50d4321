package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/pipeboard/pipeboard"
)

func (s *Server) mountAgents(api fiber.Router) {
	api.Get("/agents", func(c fiber.Ctx) error {
		agents, err := s.store.ListAgents(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"agents": agents, "count": len(agents)})
	})

	api.Get("/agents/:id", func(c fiber.Ctx) error {
		a, err := s.store.GetAgent(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if a == nil {
			return c.Status(404).JSON(fiber.Map{"error": "agent not found"})
		}
		return c.JSON(a)
	})

	api.Post("/agents", func(c fiber.Ctx) error {
		var a pipeboard.Agent
		if err := c.Bind().JSON(&a); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := s.store.CreateAgent(c.Context(), &a)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	api.Put("/agents/:id", func(c fiber.Ctx) error {
		var a pipeboard.Agent
		if err := c.Bind().JSON(&a); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		a.ID = c.Params("id")
		err := s.store.UpdateAgent(c.Context(), &a)
		if errors.Is(err, pipeboard.ErrAgentNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "agent not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	api.Delete("/agents/:id", func(c fiber.Ctx) error {
		if err := s.store.DeleteAgent(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}
