package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qwinza/tani-web/models"
	"github.com/qwinza/tani-web/utils"
)

type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{DB: db}
}

// ProductRequest is the create/update payload.
type ProductRequest struct {
	Name           string          `json:"name"`
	CategoryID     uint            `json:"category_id"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Unit           string          `json:"unit"`
	Stock          int             `json:"stock"`
	MinOrder       int             `json:"min_order"`
	ImageURL       string          `json:"image_url"`
	Images         []string        `json:"images"`
	Features       []string        `json:"features"`
	Certifications []string        `json:"certifications"`
	Origin         string          `json:"origin"`
	HarvestDate    string          `json:"harvest_date"` // YYYY-MM-DD
}

func (r *ProductRequest) apply(product *models.Product) *fiber.Error {
	if r.Name == "" {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Product name is required")
	}
	if r.Price.IsNegative() {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Price must be a non-negative number")
	}
	if r.Stock < 0 {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Stock must not be negative")
	}

	product.Name = r.Name
	product.CategoryID = r.CategoryID
	product.Description = r.Description
	product.Price = r.Price
	product.Unit = r.Unit
	if product.Unit == "" {
		product.Unit = "kg"
	}
	product.Stock = r.Stock
	product.MinOrder = r.MinOrder
	if product.MinOrder < 1 {
		product.MinOrder = 1
	}
	product.ImageURL = r.ImageURL
	product.Images = r.Images
	product.Features = r.Features
	product.Certifications = r.Certifications
	product.Origin = r.Origin

	if r.HarvestDate != "" {
		date, err := time.Parse("2006-01-02", r.HarvestDate)
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "Harvest date must be YYYY-MM-DD")
		}
		product.HarvestDate = &date
	} else {
		product.HarvestDate = nil
	}
	return nil
}

// CreateProduct - POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	product := models.Product{UserID: userID}
	if ferr := req.apply(&product); ferr != nil {
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	var category models.Category
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Unknown category"})
	}

	if err := h.DB.Create(&product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create product"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// GetAllProducts - GET /api/products
func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	var products []models.Product
	query := h.DB.Preload("Farmer", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name")
	}).Preload("Category")

	// Filter by Category
	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", category)
	}

	// Search by Name
	if q := c.Query("q"); q != "" {
		query = query.Where("products.name LIKE ?", "%"+q+"%")
	}

	// Sort by Newest
	query = query.Order("products.created_at desc")

	if err := query.Find(&products).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch products"})
	}

	return c.JSON(fiber.Map{"data": products})
}

// GetProduct - GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	var product models.Product

	if err := h.DB.Preload("Farmer", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name, email") // Include email for contact
	}).Preload("Category").First(&product, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	return c.JSON(fiber.Map{"data": product})
}

// GetMyProducts - GET /api/my-products
func (h *ProductHandler) GetMyProducts(c *fiber.Ctx) error {
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var products []models.Product
	if err := h.DB.Preload("Category").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch products"})
	}

	return c.JSON(fiber.Map{"data": products})
}

// UpdateProduct - PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	// Check ownership
	if product.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if ferr := req.apply(&product); ferr != nil {
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	if err := h.DB.Save(&product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update product"})
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

// DeleteProduct - DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	userID, ok := utils.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user session"})
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	// Check ownership
	if product.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not delete product"})
	}

	return c.JSON(fiber.Map{"message": "Product deleted"})
}
