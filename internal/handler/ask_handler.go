package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ProdigyRahul/Codojo/internal/metrics"
	"github.com/ProdigyRahul/Codojo/internal/service"
)

// AskHandler answers questions about a project's code.
type AskHandler struct {
	ragService *service.RAGService
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(ragService *service.RAGService) *AskHandler {
	return &AskHandler{ragService: ragService}
}

// Register sets up the ask route on the projects group.
func (h *AskHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/ask", h.Ask)
}

// Ask answers a question grounded on the project's embedded files. The
// default response is an SSE stream: a "sources" event carrying the
// citations, then "delta" events with answer chunks, closed by either
// "done" or "error". Pass ?stream=false for a single JSON response.
func (h *AskHandler) Ask(c fiber.Ctx) error {
	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Question) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	projectID := c.Params("id")
	if c.Query("stream") == "false" {
		return h.askSync(c, projectID, body.Question)
	}

	citations, stream, err := h.ragService.Answer(c.Context(), projectID, body.Question)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		// Citations are final before the first delta is written.
		sources, _ := json.Marshal(citations)
		fmt.Fprintf(w, "event: sources\ndata: %s\n\n", string(sources))
		w.Flush()

		for delta := range stream {
			if delta.Err != nil {
				metrics.RecordRAGStreamError()
				slog.Warn("answer stream failed", "project_id", projectID, "error", delta.Err)
				msg, _ := json.Marshal(fiber.Map{"error": delta.Err.Error()})
				fmt.Fprintf(w, "event: error\ndata: %s\n\n", string(msg))
				w.Flush()
				return
			}
			chunk, _ := json.Marshal(fiber.Map{"content": delta.Content})
			fmt.Fprintf(w, "event: delta\ndata: %s\n\n", string(chunk))
			w.Flush()
		}

		fmt.Fprint(w, "event: done\ndata: {}\n\n")
		w.Flush()
	})
}

func (h *AskHandler) askSync(c fiber.Ctx, projectID, question string) error {
	answer, citations, err := h.ragService.AnswerSync(c.Context(), projectID, question)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"answer": answer, "sources": citations})
}
