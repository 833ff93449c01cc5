package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/ProdigyRahul/Codojo/internal/adapter/store"
	"github.com/ProdigyRahul/Codojo/internal/port"
	"github.com/ProdigyRahul/Codojo/internal/service"
)

// IndexHandler starts background repository indexing jobs.
type IndexHandler struct {
	indexService  *service.IndexService
	store         *store.PostgresStore
	tracker       *JobTracker
	defaultBranch string
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(indexService *service.IndexService, pgStore *store.PostgresStore, tracker *JobTracker, defaultBranch string) *IndexHandler {
	return &IndexHandler{
		indexService:  indexService,
		store:         pgStore,
		tracker:       tracker,
		defaultBranch: defaultBranch,
	}
}

// Register sets up indexing routes on the projects group.
func (h *IndexHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/index", h.Start)
}

// Start accepts an indexing job and returns 202 immediately. The snapshot
// load and file embedding run in the background; progress is observable
// via the jobs endpoints.
func (h *IndexHandler) Start(c fiber.Ctx) error {
	var body struct {
		Branch string `json:"branch"`
		Token  string `json:"token"`
	}
	// An empty body is fine: branch and token are optional.
	_ = c.Bind().JSON(&body)
	if body.Branch == "" {
		body.Branch = h.defaultBranch
	}

	project, err := h.store.GetProjectByID(c.Context(), c.Params("id"))
	if errors.Is(err, port.ErrProjectNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	jobID := uuid.New().String()
	h.tracker.CreateJob(jobID, project.ID)

	// The request context dies with the response, so the job runs on
	// its own background context.
	go func() {
		ctx := context.Background()
		report, err := h.indexService.IndexRepository(ctx, project.ID, project.GithubURL, body.Branch, body.Token,
			func(r service.IndexReport) { h.tracker.UpdateProgress(jobID, r) },
		)
		h.tracker.CompleteJob(jobID, report, err)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":  jobID,
		"message": "indexing started",
	})
}
