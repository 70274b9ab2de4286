package config

import (
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qwinza/tani-web/models"
	"github.com/qwinza/tani-web/utils"
)

func SeedCategories(db *gorm.DB) {
	categories := []models.Category{
		{Name: "Sayuran", Icon: "leaf"},
		{Name: "Buah", Icon: "apple"},
		{Name: "Beras & Biji-bijian", Icon: "wheat"},
		{Name: "Rempah", Icon: "pepper"},
	}

	for _, category := range categories {
		category.Slug = utils.Slugify(category.Name)
		var existing models.Category
		if err := db.Where("slug = ?", category.Slug).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&category).Error; err != nil {
				log.Printf("Failed to seed category %s: %v", category.Name, err)
			}
		}
	}
}

func SeedAdmin(db *gorm.DB) {
	var existing models.User
	if err := db.Where("role = ?", models.RoleAdmin).First(&existing).Error; err != gorm.ErrRecordNotFound {
		return
	}

	password, _ := utils.HashPassword("admin12345")
	admin := models.User{
		Name:     "Administrator",
		Email:    "admin@taniweb.local",
		Password: password,
		Role:     models.RoleAdmin,
		Status:   models.StatusApproved,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed admin: %v", err)
	} else {
		log.Printf("Admin seeded: %s (ID: %d)", admin.Email, admin.ID)
	}
}

func SeedUsers(db *gorm.DB) {
	log.Println("🌱 Seeding users...")

	password, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			Name:     "Pak Tani",
			Email:    "farmer@example.com",
			Password: password,
			Role:     models.RoleFarmer,
			Status:   models.StatusApproved,
			IsActive: true,
		},
		{
			Name:     "Budi Pembeli",
			Email:    "buyer@example.com",
			Password: password,
			Role:     models.RoleBuyer,
			Status:   models.StatusApproved,
			IsActive: true,
		},
	}

	for _, user := range users {
		var existingUser models.User
		if err := db.Where("email = ?", user.Email).First(&existingUser).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&user).Error; err != nil {
					log.Printf("Failed to seed user %s: %v", user.Email, err)
				} else {
					log.Printf("User seeded: %s (ID: %d)", user.Email, user.ID)
				}
			}
		} else {
			log.Printf("User already exists: %s", user.Email)
		}
	}

	log.Println("✅ Seeding complete.")
}

func SeedProducts(db *gorm.DB) {
	var farmer models.User
	if err := db.Where("role = ?", models.RoleFarmer).First(&farmer).Error; err != nil {
		return
	}
	var category models.Category
	if err := db.First(&category).Error; err != nil {
		return
	}

	products := []models.Product{
		{
			UserID:     farmer.ID,
			CategoryID: category.ID,
			Name:       "Beras Organik",
			Price:      decimal.NewFromInt(15000),
			Unit:       "kg",
			Stock:      100,
			MinOrder:   1,
			Origin:     "Cianjur",
		},
		{
			UserID:     farmer.ID,
			CategoryID: category.ID,
			Name:       "Cabai Merah Keriting",
			Price:      decimal.NewFromInt(45000),
			Unit:       "kg",
			Stock:      25,
			MinOrder:   1,
			Origin:     "Garut",
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := db.Where("name = ? AND user_id = ?", product.Name, farmer.ID).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&product).Error; err != nil {
				log.Printf("Failed to seed product %s: %v", product.Name, err)
			}
		}
	}
}
