package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"media-store/internal/config"
	"media-store/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UploadResponse mirrors the fields a client needs right after an upload.
type UploadResponse struct {
	FileID   string     `json:"file_id"`
	Filename string     `json:"filename"`
	FileSize int64      `json:"file_size"`
	Status   FileStatus `json:"status"`
	OwnerID  string     `json:"owner_id,omitempty"`
}

type updateRequest struct {
	Tags           *[]string            `json:"tags"`
	Description    *string              `json:"description"`
	Status         *FileStatus          `json:"status"`
	CustomMetadata map[string]MetaValue `json:"custom_metadata"`
}

// Fields fixed at upload time; their presence in a PUT body is rejected
// outright rather than silently ignored.
var immutableFields = map[string]bool{
	"id":           true,
	"_id":          true,
	"filename":     true,
	"content_type": true,
	"size_bytes":   true,
	"owner_id":     true,
	"chunk_count":  true,
	"chunk_ids":    true,
	"created_at":   true,
	"updated_at":   true,
}

type MediaController struct {
	MediaService MediaService
	Config       *config.Config
	Logger       *zap.Logger
}

func NewMediaController(mediaService MediaService, cfg *config.Config, logger *zap.Logger) *MediaController {
	return &MediaController{
		MediaService: mediaService,
		Config:       cfg,
		Logger:       logger,
	}
}

// UploadFile godoc
// @Summary Upload media file
// @Description Upload a new image or video; the payload is chunked and stored with its metadata
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param owner_id formData string false "Owner ID (defaults to the authenticated user)"
// @Param tags formData string false "Comma-separated tags"
// @Param description formData string false "File description"
// @Param custom_metadata formData string false "JSON object of custom metadata (scalar values only)"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /upload [post]
func (ctrl *MediaController) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Error retrieving file",
		})
	}

	ownerID := c.FormValue("owner_id")
	if ownerID == "" {
		if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
			ownerID = claims.UserID
		}
	}

	var custom map[string]MetaValue
	if raw := c.FormValue("custom_metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &custom); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid custom_metadata: %v", err),
			})
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Error reading file",
		})
	}
	defer src.Close()

	filename := fileHeader.Filename
	if filename == "" {
		filename = "unnamed_file"
	}

	file, err := ctrl.MediaService.Upload(c.UserContext(), src, UploadParams{
		Filename:       filename,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		OwnerID:        ownerID,
		Tags:           parseTags(c.FormValue("tags")),
		Description:    c.FormValue("description"),
		CustomMetadata: custom,
	})
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		FileID:   file.ID.Hex(),
		Filename: file.Filename,
		FileSize: file.SizeBytes,
		Status:   file.Status,
		OwnerID:  file.OwnerID,
	})
}

// DownloadFile godoc
// @Summary Download media file
// @Description Stream the file content chunk by chunk
// @Tags media
// @Param id path string true "File ID"
// @Success 200 {file} file "File content"
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /files/{id} [get]
func (ctrl *MediaController) DownloadFile(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file ID"})
	}

	// The body keeps streaming after this handler returns, so the stream
	// must not be tied to the request context.
	file, stream, err := ctrl.MediaService.Open(context.Background(), id)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, contentDisposition(file.Filename))
	c.Set("Accept-Ranges", "bytes")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")

	return c.SendStream(stream, int(file.SizeBytes))
}

// GetFileInfo godoc
// @Summary Get file metadata
// @Description Return the metadata record without reading chunk data
// @Tags media
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} MediaFile
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /files/{id}/info [get]
func (ctrl *MediaController) GetFileInfo(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file ID"})
	}

	file, err := ctrl.MediaService.Info(c.UserContext(), id)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(file)
}

// ListFiles godoc
// @Summary List media files
// @Description List files with optional filtering and pagination; returns the total match count alongside the page
// @Tags media
// @Produce json
// @Param owner_id query string false "Filter by owner ID"
// @Param status query string false "Filter by status (default active)"
// @Param content_type query string false "Filter by content type prefix, e.g. image/"
// @Param tags query string false "Comma-separated tags; matches files containing any of them"
// @Param skip query int false "Number of files to skip"
// @Param limit query int false "Maximum number of files to return"
// @Success 200 {object} ListResult
// @Failure 400 {object} map[string]interface{}
// @Router /files [get]
func (ctrl *MediaController) ListFiles(c *fiber.Ctx) error {
	status := FileStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown status %q", status),
		})
	}

	filter := ListFilter{
		OwnerID:           c.Query("owner_id"),
		Status:            status,
		ContentTypePrefix: c.Query("content_type"),
		Tags:              parseTags(c.Query("tags")),
	}

	result, err := ctrl.MediaService.List(c.UserContext(), filter,
		int64(c.QueryInt("skip", 0)), int64(c.QueryInt("limit", 0)))
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(result)
}

// ExportFiles godoc
// @Summary Export media file listing
// @Description Export the filtered file listing as an XLSX workbook
// @Tags media
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param owner_id query string false "Filter by owner ID"
// @Param status query string false "Filter by status (default active)"
// @Param content_type query string false "Filter by content type prefix, e.g. image/"
// @Param tags query string false "Comma-separated tags; matches files containing any of them"
// @Success 200 {file} file "XLSX workbook"
// @Failure 400 {object} map[string]interface{}
// @Router /files/export [get]
func (ctrl *MediaController) ExportFiles(c *fiber.Ctx) error {
	status := FileStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown status %q", status),
		})
	}

	filter := ListFilter{
		OwnerID:           c.Query("owner_id"),
		Status:            status,
		ContentTypePrefix: c.Query("content_type"),
		Tags:              parseTags(c.Query("tags")),
	}

	data, filename, err := ctrl.MediaService.Export(c.UserContext(), filter)
	if err != nil {
		return ctrl.respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, contentDisposition(filename))
	return c.Send(data)
}

// UpdateFile godoc
// @Summary Update file metadata
// @Description Partially update tags, description, status or custom metadata; custom metadata is merged key-wise
// @Tags media
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param body body updateRequest true "Fields to update"
// @Success 200 {object} MediaFile
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /files/{id} [put]
func (ctrl *MediaController) UpdateFile(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file ID"})
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON body"})
	}
	if field, bad := findImmutableField(raw); bad {
		return ctrl.respondError(c, fmt.Errorf("%w: %q", ErrImmutableField, field))
	}

	var req updateRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("Invalid update: %v", err)})
	}
	if req.Status != nil && !req.Status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unknown status %q", *req.Status),
		})
	}

	file, err := ctrl.MediaService.Update(c.UserContext(), id, UpdatePatch{
		Tags:           req.Tags,
		Description:    req.Description,
		CustomMetadata: req.CustomMetadata,
		Status:         req.Status,
	})
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.JSON(file)
}

// DeleteFile godoc
// @Summary Delete media file
// @Description Soft delete by default (status flip); hard=true removes chunks and metadata permanently
// @Tags media
// @Produce json
// @Param id path string true "File ID"
// @Param hard query bool false "Permanently delete"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /files/{id} [delete]
func (ctrl *MediaController) DeleteFile(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file ID"})
	}

	hard := c.QueryBool("hard", false)
	if err := ctrl.MediaService.Delete(c.UserContext(), id, hard); err != nil {
		return ctrl.respondError(c, err)
	}

	if hard {
		return c.JSON(fiber.Map{"message": "File permanently deleted", "file_id": id.Hex()})
	}
	return c.JSON(fiber.Map{"message": "File marked as deleted", "file_id": id.Hex(), "status": StatusDeleted})
}

// respondError maps the core error taxonomy onto HTTP statuses.
func (ctrl *MediaController) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	case errors.Is(err, ErrInvalidContentType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only images and videos are allowed"})
	case errors.Is(err, ErrEmptyUpload):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Uploaded file is empty"})
	case errors.Is(err, ErrImmutableField):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidPagination):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid pagination bounds"})
	}

	ctrl.Logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func findImmutableField(raw map[string]json.RawMessage) (string, bool) {
	for key := range raw {
		if immutableFields[key] {
			return key, true
		}
	}
	return "", false
}

func parseTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// contentDisposition builds an attachment header, falling back to
// RFC 5987 encoding when the filename is not plain ASCII.
func contentDisposition(filename string) string {
	ascii := true
	for _, r := range filename {
		if r > 127 || r == '"' || r == '\\' {
			ascii = false
			break
		}
	}
	if ascii {
		return fmt.Sprintf("attachment; filename=%q", filename)
	}
	return "attachment; filename*=UTF-8''" + url.PathEscape(filename)
}
