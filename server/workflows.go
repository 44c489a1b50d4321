package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/pipeboard/pipeboard"
	"github.com/pipeboard/pipeboard/layout"
)

func (s *Server) mountWorkflows(api fiber.Router) {
	api.Get("/workflows", func(c fiber.Ctx) error {
		workflows, err := s.store.ListWorkflows(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"workflows": workflows, "count": len(workflows)})
	})

	api.Post("/workflows", func(c fiber.Ctx) error {
		var w pipeboard.Workflow
		if err := c.Bind().JSON(&w); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		result, err := s.store.CreateWorkflow(c.Context(), &w)
		if errors.Is(err, pipeboard.ErrUnknownEndpoint) {
			return c.Status(422).JSON(fiber.Map{"error": "edge endpoint references unknown node"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(result)
	})

	api.Get("/workflows/:id", func(c fiber.Ctx) error {
		w, err := s.store.GetWorkflow(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if w == nil {
			return c.Status(404).JSON(fiber.Map{"error": "workflow not found"})
		}
		return c.JSON(w)
	})

	api.Put("/workflows/:id", func(c fiber.Ctx) error {
		var w pipeboard.Workflow
		if err := c.Bind().JSON(&w); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		w.ID = c.Params("id")
		err := s.store.SaveWorkflow(c.Context(), &w)
		if errors.Is(err, pipeboard.ErrWorkflowNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "workflow not found"})
		}
		if errors.Is(err, pipeboard.ErrUnknownEndpoint) {
			return c.Status(422).JSON(fiber.Map{"error": "edge endpoint references unknown node"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	api.Delete("/workflows/:id", func(c fiber.Ctx) error {
		if err := s.store.DeleteWorkflow(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// Auto-layout: reassign node positions by BFS depth and save.
	api.Post("/workflows/:id/layout", func(c fiber.Ctx) error {
		var req struct {
			HorizontalGap float64 `json:"horizontal_gap"`
			VerticalGap   float64 `json:"vertical_gap"`
		}
		if len(c.Body()) > 0 {
			if err := c.Bind().JSON(&req); err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
			}
		}

		w, err := s.store.GetWorkflow(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if w == nil {
			return c.Status(404).JSON(fiber.Map{"error": "workflow not found"})
		}

		opts := layout.DefaultOptions()
		if req.HorizontalGap > 0 {
			opts.HorizontalGap = req.HorizontalGap
		}
		if req.VerticalGap > 0 {
			opts.VerticalGap = req.VerticalGap
		}
		layout.Apply(w.Nodes, w.Edges, opts)

		if err := s.store.SaveWorkflow(c.Context(), w); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(w)
	})
}
