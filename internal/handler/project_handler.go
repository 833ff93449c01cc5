package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ProdigyRahul/Codojo/internal/adapter/github"
	"github.com/ProdigyRahul/Codojo/internal/adapter/store"
	"github.com/ProdigyRahul/Codojo/internal/port"
)

// ProjectHandler handles project registration and lookup.
type ProjectHandler struct {
	store   *store.PostgresStore
	vectors *store.VectorStore
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(pgStore *store.PostgresStore, vectors *store.VectorStore) *ProjectHandler {
	return &ProjectHandler{store: pgStore, vectors: vectors}
}

// Register sets up project routes.
func (h *ProjectHandler) Register(router fiber.Router) {
	projects := router.Group("/projects")
	projects.Post("/", h.Create)
	projects.Get("/", h.List)
	projects.Get("/:id", h.Get)
}

// Create registers a new project for a GitHub repository.
func (h *ProjectHandler) Create(c fiber.Ctx) error {
	var body struct {
		Name      string `json:"name"`
		GithubURL string `json:"github_url"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	owner, repo, err := github.ParseRepoURL(body.GithubURL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if strings.TrimSpace(body.Name) == "" {
		body.Name = owner + "/" + repo
	}

	project, err := h.store.CreateProject(c.Context(), body.Name, body.GithubURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// List returns all registered projects.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.store.ListProjects(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"projects": projects, "count": len(projects)})
}

// Get returns one project by id, with its embedded-file count.
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	project, err := h.store.GetProjectByID(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	embedded, err := h.vectors.CountEmbeddingsByProject(c.Context(), project.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"project": project, "embedded_files": embedded})
}
