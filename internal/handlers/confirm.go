package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"imageserver/internal/validation"
)

// ConfirmImage confirms a single image against a reference. An empty
// imageId query value is the detach sentinel: whatever is attached to
// the reference is released.
func (h HandlerSet) ConfirmImage(c *gin.Context) {
	referenceID := c.Param("referenceId")
	imageID := c.Query("imageId")

	if result := validation.ValidateConfirm(referenceID, nil); !result.OK() {
		h.invalid(c, result)
		return
	}

	if err := h.confirm.ConfirmImage(c.Request.Context(), imageID, referenceID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referenceId": referenceID, "imageId": imageID})
}

type confirmRequest struct {
	ReferenceID string   `json:"referenceId"`
	ImageIDs    []string `json:"imageIds"`
}

// ConfirmImages reconciles the reference's full attachment set against
// the ordered id list in the body. An empty list detaches everything.
func (h HandlerSet) ConfirmImages(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_BODY", "message": "malformed request body"})
		return
	}

	if result := validation.ValidateConfirm(req.ReferenceID, req.ImageIDs); !result.OK() {
		h.invalid(c, result)
		return
	}

	if err := h.confirm.ConfirmImages(c.Request.Context(), req.ImageIDs, req.ReferenceID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referenceId": req.ReferenceID, "imageIds": req.ImageIDs})
}
