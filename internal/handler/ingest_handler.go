package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/neusearch/product-assistant/internal/adapter/store"
	"github.com/neusearch/product-assistant/internal/service"
)

// IngestHandler triggers background ingestion runs and reports data
// availability. Products come from the bundled catalog set; live scraping
// is handled outside this service.
type IngestHandler struct {
	ingest  *service.IngestService
	source  *store.StaticCatalog
	tracker *JobTracker
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingest *service.IngestService, source *store.StaticCatalog, tracker *JobTracker) *IngestHandler {
	return &IngestHandler{ingest: ingest, source: source, tracker: tracker}
}

// Register sets up ingestion routes.
func (h *IngestHandler) Register(router fiber.Router) {
	ingest := router.Group("/ingest")
	ingest.Post("/", h.Trigger)
	ingest.Get("/status", h.Status)
}

// Trigger starts a background ingestion job.
func (h *IngestHandler) Trigger(c fiber.Ctx) error {
	var body struct {
		MaxProducts int `json:"max_products"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.MaxProducts <= 0 {
		body.MaxProducts = 30
	}

	jobID := uuid.NewString()
	if !h.tracker.Start(jobID) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "ingestion already running"})
	}

	maxProducts := body.MaxProducts
	go func() {
		result, err := h.ingest.Ingest(context.Background(), h.source.Products(), maxProducts)
		if err != nil {
			slog.Error("ingestion failed", "job_id", jobID, "error", err)
			h.tracker.Fail(jobID, err.Error())
			return
		}
		h.tracker.Complete(jobID, result)
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Ingestion started in background",
		"job_id":  jobID,
	})
}

// Status reports catalog and index counts.
func (h *IngestHandler) Status(c fiber.Ctx) error {
	return c.JSON(h.ingest.Status(c.Context()))
}
