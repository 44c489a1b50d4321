package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/pipeboard/pipeboard"
)

func (s *Server) mountPipelines(api fiber.Router) {
	api.Get("/pipelines", func(c fiber.Ctx) error {
		pipelines, err := s.store.ListPipelines(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"pipelines": pipelines, "count": len(pipelines)})
	})

	api.Get("/pipelines/:id", func(c fiber.Ctx) error {
		p, err := s.store.GetPipeline(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if p == nil {
			return c.Status(404).JSON(fiber.Map{"error": "pipeline not found"})
		}
		return c.JSON(p)
	})

	api.Post("/pipelines", func(c fiber.Ctx) error {
		var p pipeboard.Pipeline
		if err := c.Bind().JSON(&p); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := s.store.CreatePipeline(c.Context(), &p)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	api.Put("/pipelines/:id", func(c fiber.Ctx) error {
		var p pipeboard.Pipeline
		if err := c.Bind().JSON(&p); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		p.ID = c.Params("id")
		err := s.store.UpdatePipeline(c.Context(), &p)
		if errors.Is(err, pipeboard.ErrPipelineNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "pipeline not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	api.Delete("/pipelines/:id", func(c fiber.Ctx) error {
		if err := s.store.DeletePipeline(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}

func (s *Server) mountTriggers(api fiber.Router) {
	api.Get("/triggers", func(c fiber.Ctx) error {
		triggers, err := s.store.ListTriggers(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"triggers": triggers, "count": len(triggers)})
	})

	api.Get("/triggers/:id", func(c fiber.Ctx) error {
		t, err := s.store.GetTrigger(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if t == nil {
			return c.Status(404).JSON(fiber.Map{"error": "trigger not found"})
		}
		return c.JSON(t)
	})

	api.Post("/triggers", func(c fiber.Ctx) error {
		var t pipeboard.Trigger
		if err := c.Bind().JSON(&t); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := s.store.CreateTrigger(c.Context(), &t)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	api.Put("/triggers/:id", func(c fiber.Ctx) error {
		var t pipeboard.Trigger
		if err := c.Bind().JSON(&t); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		t.ID = c.Params("id")
		err := s.store.UpdateTrigger(c.Context(), &t)
		if errors.Is(err, pipeboard.ErrTriggerNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "trigger not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	api.Delete("/triggers/:id", func(c fiber.Ctx) error {
		if err := s.store.DeleteTrigger(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})
}

func (s *Server) mountTraining(api fiber.Router) {
	api.Get("/training", func(c fiber.Ctx) error {
		jobs, err := s.store.ListTrainingJobs(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"jobs": jobs, "count": len(jobs)})
	})
}
