package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

// allowedImageTypes maps sniffed MIME types to the extension files are stored with
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadController stores offer images under a public directory
type UploadController struct {
	dir      string
	maxBytes int64
	// publicPrefix is the URL path the directory is served from
	publicPrefix string
}

func NewUploadController(dir string, maxBytes int64, publicPrefix string) *UploadController {
	return &UploadController{dir: dir, maxBytes: maxBytes, publicPrefix: publicPrefix}
}

// Upload godoc
// @Summary Upload an image
// @Description Store an offer image. The stored name is random, so uploads never overwrite each other.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (jpeg, png, gif or webp)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 413 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/protected/admin/upload [post]
func (uc *UploadController) Upload(c *gin.Context) {
	if _, ok := mustSession(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "No file received"))
		return
	}
	if fileHeader.Size > uc.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.NewAPIError(models.ErrPayloadTooLarge,
			fmt.Sprintf("File exceeds %d bytes", uc.maxBytes)))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("opening upload: %w", err))
		return
	}
	ext, err := sniffImage(src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
		return
	}

	if err := os.MkdirAll(uc.dir, 0o755); err != nil {
		respondError(c, fmt.Errorf("creating upload dir: %w", err))
		return
	}
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(fileHeader, filepath.Join(uc.dir, name)); err != nil {
		respondError(c, fmt.Errorf("saving upload: %w", err))
		return
	}

	path := uc.publicPrefix + "/" + name
	log.WithFields(log.Fields{"path": path, "size": fileHeader.Size}).Info("Image uploaded")
	c.JSON(http.StatusOK, gin.H{"message": "File uploaded", "path": path})
}

// sniffImage reads the first bytes of src and returns the extension for an
// allowed image type.
func sniffImage(src io.Reader) (string, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(src, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	mimeType := http.DetectContentType(buffer[:n])
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		return "", fmt.Errorf("file type %s is not allowed, use jpeg, png, gif or webp", mimeType)
	}
	return ext, nil
}
