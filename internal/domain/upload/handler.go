package upload

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"schoolsite/internal/media"
	"schoolsite/internal/pkg/response"
	"schoolsite/internal/pkg/validator"
)

// multipartSlack covers boundaries, part headers and small text fields
// sent along with the file.
const multipartSlack = 64 * 1024

type idParam struct {
	ID string `validate:"required,uuid"`
}

// Handler handles HTTP requests for category uploads.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UploadTo returns the handler of the upload route of one category. The
// category is fixed at registration and never taken from the request.
//
// @Summary Upload a file into a category
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} map[string]interface{}
// @Failure 400,401,403,413,500 {object} map[string]interface{}
func (h *Handler) UploadTo(category media.Category) gin.HandlerFunc {
	policy := media.MustLookup(category)

	return func(c *gin.Context) {
		userID := mustUserID(c)
		if userID == 0 {
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, policy.MaxBytes+multipartSlack)

		fileHeader, err := c.FormFile(policy.FormField)
		if err != nil {
			if isBodyTooLarge(err) {
				writeUploadError(c, invalid(ErrFileTooLarge, policy.SizeMessage()))
				return
			}
			writeUploadError(c, invalid(ErrNoFile, "please choose a file to upload"))
			return
		}

		upload, err := h.service.Accept(c.Request.Context(), userID, category, fileHeader)
		if err != nil {
			writeUploadError(c, err)
			return
		}

		response.Success(c, http.StatusCreated, upload)
	}
}

// GetByID godoc
// @Summary Get upload metadata by ID
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Router /admin/uploads/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	upload, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUploadNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "upload not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load upload")
		return
	}
	response.Success(c, http.StatusOK, upload)
}

// List godoc
// @Summary List uploads, optionally by category
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category"
// @Router /admin/uploads [get]
func (h *Handler) List(c *gin.Context) {
	category := c.Query("category")
	if category != "" {
		parsed, ok := media.ParseCategory(category)
		if !ok {
			response.Error(c, http.StatusBadRequest, "INVALID_CATEGORY", "unknown category")
			return
		}
		category = string(parsed)
	}

	uploads, err := h.service.List(c.Request.Context(), category)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list uploads")
		return
	}
	response.Success(c, http.StatusOK, uploads)
}

// Delete godoc
// @Summary Delete an upload (file + record)
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Router /admin/uploads/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrUploadNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "upload not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "delete failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "deleted"})
}

func writeUploadError(c *gin.Context, err error) {
	msg := UserMessage(err)
	switch {
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", msg)
	case errors.Is(err, ErrUnsupportedType):
		response.Error(c, http.StatusBadRequest, "UNSUPPORTED_TYPE", msg)
	case errors.Is(err, ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", msg)
	case errors.Is(err, ErrNoFile):
		response.Error(c, http.StatusBadRequest, "NO_FILE", msg)
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", msg)
	}
}

func bindID(c *gin.Context) (string, bool) {
	p := idParam{ID: c.Param("id")}
	if errs := validator.Validate(p); errs != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "invalid upload id")
		return "", false
	}
	return p.ID, true
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func mustUserID(c *gin.Context) int64 {
	id, exists := c.Get("user_id")
	if !exists {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return 0
	}
	switch v := id.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid user id")
	return 0
}
