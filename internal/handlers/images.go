package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"imageserver/internal/models"
	"imageserver/internal/service"
	"imageserver/internal/validation"
)

type imageResponse struct {
	ID          string            `json:"imageId"`
	URL         string            `json:"imageUrl"`
	Status      string            `json:"status"`
	ReferenceID *string           `json:"referenceId,omitempty"`
	Category    string            `json:"category,omitempty"`
	UploaderID  string            `json:"uploaderId"`
	CreatedAt   time.Time         `json:"createdAt"`
	Variants    []variantResponse `json:"variants,omitempty"`
}

type variantResponse struct {
	Code      string `json:"code"`
	URL       string `json:"url"`
	Thumbnail bool   `json:"thumbnail"`
	Width     *int   `json:"width,omitempty"`
	Height    *int   `json:"height,omitempty"`
}

func toImageResponse(img *models.Image) imageResponse {
	resp := imageResponse{
		ID:          img.ID,
		URL:         img.URL,
		Status:      string(img.Status),
		ReferenceID: img.ReferenceID,
		UploaderID:  img.UploaderID,
		CreatedAt:   img.CreatedAt,
	}
	if img.ReferenceType != nil {
		resp.Category = img.ReferenceType.Code
	}
	return resp
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "FILE_REQUIRED", "message": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	category := c.PostForm("category")
	uploaderID := c.PostForm("uploaderId")

	if result := validation.ValidateUpload(category, header.Filename, header.Size); !result.OK() {
		h.invalid(c, result)
		return
	}

	img, err := h.uploadOne(c, file, header, category, uploaderID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toImageResponse(img))
}

func (h HandlerSet) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MULTIPART_REQUIRED", "message": "multipart form is required"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "FILES_REQUIRED", "message": "multipart field 'files' is required"})
		return
	}

	category := c.PostForm("category")
	uploaderID := c.PostForm("uploaderId")

	for _, header := range files {
		if result := validation.ValidateUpload(category, header.Filename, header.Size); !result.OK() {
			h.invalid(c, result)
			return
		}
	}

	responses := make([]imageResponse, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			h.fail(c, err)
			return
		}
		img, err := h.uploadOne(c, file, header, category, uploaderID)
		file.Close()
		if err != nil {
			h.fail(c, err)
			return
		}
		responses = append(responses, toImageResponse(img))
	}

	c.JSON(http.StatusOK, gin.H{"images": responses})
}

func (h HandlerSet) uploadOne(c *gin.Context, file multipart.File, header *multipart.FileHeader, category, uploaderID string) (*models.Image, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return h.upload.Upload(c.Request.Context(), service.UploadInput{
		Filename:   header.Filename,
		Data:       data,
		UploaderID: uploaderID,
		Category:   category,
	})
}

func (h HandlerSet) GetImage(c *gin.Context) {
	img, err := h.upload.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	variants, err := h.upload.Variants(c.Request.Context(), img.ID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := toImageResponse(img)
	for _, v := range variants {
		resp.Variants = append(resp.Variants, variantResponse{
			Code:      v.VariantCode,
			URL:       v.URL,
			Thumbnail: v.Thumbnail,
			Width:     v.Width,
			Height:    v.Height,
		})
	}
	c.JSON(http.StatusOK, resp)
}

type sequencedImageResponse struct {
	ID             string `json:"imageId"`
	URL            string `json:"imageUrl"`
	SequenceNumber int    `json:"sequenceNumber"`
}

func (h HandlerSet) ListReferenceImages(c *gin.Context) {
	images, err := h.sequences.List(c.Request.Context(), c.Param("referenceId"))
	if err != nil {
		h.fail(c, err)
		return
	}

	responses := make([]sequencedImageResponse, 0, len(images))
	for _, img := range images {
		responses = append(responses, sequencedImageResponse{
			ID:             img.Image.ID,
			URL:            img.Image.URL,
			SequenceNumber: img.SeqNumber,
		})
	}
	c.JSON(http.StatusOK, gin.H{"images": responses})
}
