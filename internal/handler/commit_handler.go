package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/ProdigyRahul/Codojo/internal/adapter/store"
	"github.com/ProdigyRahul/Codojo/internal/port"
	"github.com/ProdigyRahul/Codojo/internal/service"
)

// CommitHandler handles commit ingestion and listing.
type CommitHandler struct {
	commitService *service.CommitService
	store         *store.PostgresStore
}

// NewCommitHandler creates a new commit handler.
func NewCommitHandler(commitService *service.CommitService, pgStore *store.PostgresStore) *CommitHandler {
	return &CommitHandler{commitService: commitService, store: pgStore}
}

// Register sets up commit routes on the projects group.
func (h *CommitHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/commits", h.Ingest)
	router.Get("/projects/:id/commits", h.List)
}

// Ingest runs one commit ingestion pass and returns the records it
// persisted. Running it again with no new upstream commits returns an
// empty list, not an error.
func (h *CommitHandler) Ingest(c fiber.Ctx) error {
	records, err := h.commitService.IngestCommits(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"commits": records, "count": len(records)})
}

// List returns persisted commit records, newest first.
func (h *CommitHandler) List(c fiber.Ctx) error {
	records, err := h.store.ListCommitsByProject(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"commits": records, "count": len(records)})
}
