package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/neusearch/product-assistant/internal/port"
	"github.com/neusearch/product-assistant/internal/service"
)

// DiscoveryHandler handles the conversational discovery endpoints.
type DiscoveryHandler struct {
	discovery *service.DiscoveryService
}

// NewDiscoveryHandler creates a new discovery handler.
func NewDiscoveryHandler(discovery *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discovery: discovery}
}

// Register sets up discovery routes.
func (h *DiscoveryHandler) Register(router fiber.Router) {
	chat := router.Group("/chat")
	chat.Post("/", h.Chat)
	chat.Get("/search/:query", h.Search)
}

// Chat turns a free-text message into a product recommendation or a
// clarifying question.
func (h *DiscoveryHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	resp, err := h.discovery.Discover(c.Context(), body.Message)
	if err != nil {
		if errors.Is(err, port.ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message cannot be empty"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(resp)
}

// Search runs a raw semantic search without interpretation.
func (h *DiscoveryHandler) Search(c fiber.Ctx) error {
	query := c.Params("query")

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	products, err := h.discovery.Search(c.Context(), query, limit)
	if err != nil {
		if errors.Is(err, port.ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query cannot be empty"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"products": products})
}
