package server

import (
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"viralpik/internal/models"
	"viralpik/internal/service"
	"viralpik/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// Upload handles POST /api/upload
// @Summary Upload an asset file
// @Description Stores the file and, for images, a webp thumbnail. The asset row is created separately.
// @Tags assets
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Asset file"
// @Success 201 {object} service.UploadResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Router /upload [post]
func (s *Server) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("file is required"))
	}
	if max := s.uploadSvc().MaxBytes(); fh.Size > max {
		return models.RespondWithError(c, fiber.StatusRequestEntityTooLarge,
			models.NewValidationError("File too large"))
	}

	f, err := fh.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read upload"))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read upload"))
	}

	res, err := s.uploadSvc().Upload(c.UserContext(), service.UploadInput{
		UserID:   currentUserID(c),
		Filename: fh.Filename,
		Data:     data,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// inlineMedia lists the types /media/* renders in place. Everything else is
// sandboxed and downloaded.
var inlineMedia = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
}

// ServeMedia streams objects from the local store under /media/*.
func (s *Server) ServeMedia(c *fiber.Ctx) error {
	key := strings.TrimPrefix(c.Params("*"), "/")
	if key == "" || s.store == nil || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return c.SendStatus(fiber.StatusNotFound)
	}

	rc, err := s.store.Open(c.UserContext(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, ct)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	if !inlineMedia[strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])] {
		// user files such as svg or html can carry script
		c.Set(fiber.HeaderContentSecurityPolicy, "sandbox")
		c.Attachment(path.Base(key))
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	// fasthttp closes rc once the body is written
	return c.SendStream(rc)
}
