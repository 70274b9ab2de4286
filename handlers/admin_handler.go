package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/qwinza/tani-web/models"
)

type AdminHandler struct {
	DB *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{DB: db}
}

// GetStats - GET /api/admin/stats
func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	var totalUsers, totalFarmers, pendingFarmers, totalBuyers, totalProducts, totalOrders int64

	h.DB.Model(&models.User{}).Count(&totalUsers)
	h.DB.Model(&models.User{}).Where("role = ?", models.RoleFarmer).Count(&totalFarmers)
	h.DB.Model(&models.User{}).Where("role = ? AND status = ?", models.RoleFarmer, models.StatusPending).Count(&pendingFarmers)
	h.DB.Model(&models.User{}).Where("role = ?", models.RoleBuyer).Count(&totalBuyers)
	h.DB.Model(&models.Product{}).Count(&totalProducts)
	h.DB.Model(&models.Order{}).Count(&totalOrders)

	var recentUsers []models.User
	h.DB.Order("created_at desc").Limit(5).Find(&recentUsers)

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"totalUsers":     totalUsers,
			"totalFarmers":   totalFarmers,
			"pendingFarmers": pendingFarmers,
			"totalBuyers":    totalBuyers,
			"totalProducts":  totalProducts,
			"totalOrders":    totalOrders,
		},
		"recentUsers": recentUsers,
	})
}

// GetUsers - GET /api/admin/users
func (h *AdminHandler) GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.DB.Order("created_at desc").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch users"})
	}
	return c.JSON(fiber.Map{"data": users})
}

// ToggleUserStatus - PATCH /api/admin/users/:id/toggle
func (h *AdminHandler) ToggleUserStatus(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := h.DB.Model(&user).Update("is_active", !user.IsActive).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update user"})
	}

	return c.JSON(fiber.Map{"message": "User status updated", "user": user})
}

// VerifyFarmerRequest
type VerifyFarmerRequest struct {
	Status string `json:"status"` // approved | rejected
}

// VerifyFarmer - PATCH /api/admin/users/:id/verify
func (h *AdminHandler) VerifyFarmer(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))

	var req VerifyFarmerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Status != models.StatusApproved && req.Status != models.StatusRejected {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Status must be approved or rejected"})
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if !user.IsFarmer() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "User is not a farmer"})
	}

	if err := h.DB.Model(&user).Update("status", req.Status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update user"})
	}

	return c.JSON(fiber.Map{"message": "Farmer verification updated", "user": user})
}

// GetOrders - GET /api/admin/orders
// Paginated monitoring view over the whole ledger.
func (h *AdminHandler) GetOrders(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	h.DB.Model(&models.Order{}).Count(&total)

	var orders []models.Order
	err := h.DB.Preload("Buyer", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name")
	}).Preload("Product", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, name, user_id")
	}).Order("created_at desc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch orders"})
	}

	return c.JSON(models.SuccessResponse("Orders fetched", orders, models.NewPaginationMeta(page, limit, total)))
}

// GetAnnouncements - GET /api/admin/announcements
func (h *AdminHandler) GetAnnouncements(c *fiber.Ctx) error {
	var announcements []models.Announcement
	if err := h.DB.Order("created_at desc").Find(&announcements).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch announcements"})
	}
	return c.JSON(fiber.Map{"data": announcements})
}

// AnnouncementRequest
type AnnouncementRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	TargetRole string `json:"target_role"`
}

// CreateAnnouncement - POST /api/admin/announcements
func (h *AdminHandler) CreateAnnouncement(c *fiber.Ctx) error {
	var req AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Title == "" || req.Content == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Title and content are required"})
	}
	switch req.TargetRole {
	case models.TargetAll, models.TargetFarmer, models.TargetBuyer:
	default:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Target role must be all, farmer or buyer"})
	}

	announcement := models.Announcement{
		Title:      req.Title,
		Content:    req.Content,
		TargetRole: req.TargetRole,
	}
	if err := h.DB.Create(&announcement).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create announcement"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": announcement})
}

// LatestAnnouncements - GET /api/announcements/latest
// Announcements for the caller's role plus the all-audience ones.
func (h *AdminHandler) LatestAnnouncements(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)

	var announcements []models.Announcement
	err := h.DB.Where("target_role = ? OR target_role = ?", models.TargetAll, role).
		Order("created_at desc").
		Limit(5).
		Find(&announcements).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch announcements"})
	}

	return c.JSON(fiber.Map{"data": announcements})
}
