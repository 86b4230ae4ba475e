package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/neusearch/product-assistant/internal/port"
	"github.com/neusearch/product-assistant/internal/service"
)

// ProductHandler handles plain catalog listing endpoints.
type ProductHandler struct {
	catalog *service.CatalogService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// Register sets up product routes.
func (h *ProductHandler) Register(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.List)
	products.Get("/category/:category", h.ListByCategory)
	products.Get("/:id", h.Get)
}

// List returns products with offset/limit pagination.
func (h *ProductHandler) List(c fiber.Ctx) error {
	offset := queryInt(c, "offset", 0)
	limit := queryInt(c, "limit", 100)

	return c.JSON(h.catalog.List(c.Context(), offset, limit))
}

// Get returns a specific product by ID.
func (h *ProductHandler) Get(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	product, err := h.catalog.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, port.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(product)
}

// ListByCategory returns products matching a category.
func (h *ProductHandler) ListByCategory(c fiber.Ctx) error {
	return c.JSON(h.catalog.ListByCategory(c.Context(), c.Params("category")))
}

// queryInt reads an integer query param with a default value.
func queryInt(c fiber.Ctx, key string, defaultVal int) int {
	v := c.Query(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
