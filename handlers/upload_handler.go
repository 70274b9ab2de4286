package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadHandler handles file uploads
type UploadHandler struct{}

func NewUploadHandler() *UploadHandler {
	return &UploadHandler{}
}

// saveImage validates and stores an uploaded image under ./uploads/<dir> and
// returns its public path. This is the file-storage contract used by product
// images and shipping proofs.
func saveImage(c *fiber.Ctx, file *multipart.FileHeader, dir string) (string, error) {
	ext := filepath.Ext(file.Filename)
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("only .jpg, .jpeg, and .png files are allowed")
	}

	filename := uuid.New().String() + ext
	destination := filepath.Join("uploads", dir, filename)

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return "", err
	}
	if err := c.SaveFile(file, destination); err != nil {
		return "", err
	}

	// Public URL, assuming static files are served from /uploads
	return "/" + filepath.ToSlash(destination), nil
}

// UploadImage - POST /api/upload
// Stores a product image and returns the file URL.
func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image file is required",
		})
	}

	imageURL, err := saveImage(c, file, "products")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"url": imageURL,
	})
}
