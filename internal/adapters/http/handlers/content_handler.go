package handlers

import (
	"errors"
	"strconv"

	"sistema-vacunacion/internal/adapters/http/middleware"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/core/services"
	"sistema-vacunacion/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ContentHandler handles the about-us page, carousel and image uploads
type ContentHandler struct {
	contentService *services.ContentService
	mediaService   *services.MediaService
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService *services.ContentService, mediaService *services.MediaService) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		mediaService:   mediaService,
	}
}

func contentError(c *fiber.Ctx, err error, fallback string) error {
	if ok, resp := invalidInput(c, err); ok {
		return resp
	}
	switch {
	case errors.Is(err, services.ErrContentNotFound):
		return response.NotFound(c, "Page content not found")
	case errors.Is(err, services.ErrSectionIndex):
		return response.BadRequest(c, "Section index out of range")
	case errors.Is(err, services.ErrImageNotFound):
		return response.NotFound(c, "Image not found")
	case errors.Is(err, services.ErrNoFiles),
		errors.Is(err, services.ErrTooManyFiles),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrUnsupportedImage):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}

func sectionIndex(c *fiber.Ctx) (int, bool) {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

// GetAboutUs returns the about-us document
// @Summary Get about-us page
// @Tags Content
// @Produce json
// @Success 200 {object} response.Response{data=models.PageContent}
// @Failure 404 {object} response.Response
// @Router /about-us [get]
func (h *ContentHandler) GetAboutUs(c *fiber.Ctx) error {
	content, err := h.contentService.Get(c.Context(), services.AboutUsSlug)
	if err != nil {
		return contentError(c, err, "Failed to get page content")
	}
	return response.Success(c, "Page content retrieved successfully", content)
}

// ReplaceAboutUs replaces the whole about-us document
// @Summary Replace about-us page
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.PageDocument true "Page document"
// @Success 200 {object} response.Response{data=models.PageContent}
// @Failure 400 {object} response.Response
// @Router /about-us [put]
func (h *ContentHandler) ReplaceAboutUs(c *fiber.Ctx) error {
	var doc domain.PageDocument
	if err := c.BodyParser(&doc); err != nil {
		return response.BadRequest(c, "Invalid page document: "+err.Error())
	}

	content, err := h.contentService.Replace(c.Context(), services.AboutUsSlug, &doc, middleware.Actor(c))
	if err != nil {
		return contentError(c, err, "Failed to save page content")
	}
	return response.Success(c, "Page content saved successfully", content)
}

// AddSection appends a section to the about-us document
// @Summary Add about-us section
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.Section true "Section"
// @Success 201 {object} response.Response{data=models.PageContent}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /about-us/sections [post]
func (h *ContentHandler) AddSection(c *fiber.Ctx) error {
	var section domain.Section
	if err := c.BodyParser(&section); err != nil {
		return response.BadRequest(c, "Invalid section: "+err.Error())
	}

	content, err := h.contentService.AddSection(c.Context(), services.AboutUsSlug, &section, middleware.Actor(c))
	if err != nil {
		return contentError(c, err, "Failed to add section")
	}
	return response.Created(c, "Section added successfully", content)
}

// UpdateSection replaces a section of the about-us document
// @Summary Update about-us section
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param index path int true "Section index"
// @Param body body domain.Section true "Section"
// @Success 200 {object} response.Response{data=models.PageContent}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /about-us/sections/{index} [put]
func (h *ContentHandler) UpdateSection(c *fiber.Ctx) error {
	index, ok := sectionIndex(c)
	if !ok {
		return response.BadRequest(c, "Invalid section index")
	}

	var section domain.Section
	if err := c.BodyParser(&section); err != nil {
		return response.BadRequest(c, "Invalid section: "+err.Error())
	}

	content, err := h.contentService.UpdateSection(c.Context(), services.AboutUsSlug, index, &section, middleware.Actor(c))
	if err != nil {
		return contentError(c, err, "Failed to update section")
	}
	return response.Success(c, "Section updated successfully", content)
}

// DeleteSection removes a section of the about-us document
// @Summary Delete about-us section
// @Tags Content
// @Produce json
// @Security BearerAuth
// @Param index path int true "Section index"
// @Success 200 {object} response.Response{data=models.PageContent}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /about-us/sections/{index} [delete]
func (h *ContentHandler) DeleteSection(c *fiber.Ctx) error {
	index, ok := sectionIndex(c)
	if !ok {
		return response.BadRequest(c, "Invalid section index")
	}

	content, err := h.contentService.DeleteSection(c.Context(), services.AboutUsSlug, index, middleware.Actor(c))
	if err != nil {
		return contentError(c, err, "Failed to delete section")
	}
	return response.Success(c, "Section deleted successfully", content)
}

// UploadAboutUsImage stores an image for the about-us page
// @Summary Upload about-us image
// @Tags Content
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /about-us/image [post]
func (h *ContentHandler) UploadAboutUsImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Field 'file' is required")
	}

	url, err := h.mediaService.UploadAboutUsImage(file, middleware.Actor(c))
	if err != nil {
		return contentError(c, err, "Failed to upload image")
	}
	return response.Created(c, "Image uploaded successfully", fiber.Map{"url": url})
}

// ListCarousel lists carousel image URLs
// @Summary List carousel images
// @Tags Content
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Router /carousel [get]
func (h *ContentHandler) ListCarousel(c *fiber.Ctx) error {
	urls, err := h.mediaService.ListCarousel()
	if err != nil {
		return response.InternalServerError(c, "Failed to list carousel images")
	}
	return response.Success(c, "Carousel images retrieved successfully", urls)
}

// UploadCarousel stores carousel images
// @Summary Upload carousel images
// @Tags Content
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param images formData file true "Images"
// @Success 201 {object} response.Response{data=[]string}
// @Failure 400 {object} response.Response
// @Router /carousel [post]
func (h *ContentHandler) UploadCarousel(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, "Field 'images' is required")
	}

	urls, err := h.mediaService.UploadCarousel(form.File["images"], middleware.Actor(c))
	if err != nil {
		return contentError(c, err, "Failed to upload images")
	}
	return response.Created(c, "Images uploaded successfully", urls)
}

type deleteImageRequest struct {
	URL string `json:"url"`
}

// DeleteCarousel removes a carousel image
// @Summary Delete carousel image
// @Tags Content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body deleteImageRequest true "Image URL"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /carousel [delete]
func (h *ContentHandler) DeleteCarousel(c *fiber.Ctx) error {
	var req deleteImageRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}
	if req.URL == "" {
		req.URL = c.Query("url")
	}
	if req.URL == "" {
		return response.MissingFields(c, "url")
	}

	if err := h.mediaService.DeleteCarousel(req.URL, middleware.Actor(c)); err != nil {
		return contentError(c, err, "Failed to delete image")
	}
	return response.Success(c, "Image deleted successfully", nil)
}
