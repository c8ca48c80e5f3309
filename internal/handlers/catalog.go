package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type referenceTypeResponse struct {
	ID             int    `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	AllowsMultiple bool   `json:"allowsMultiple"`
	MaxImages      *int   `json:"maxImages,omitempty"`
	Description    string `json:"description,omitempty"`
}

type extensionResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h HandlerSet) ListReferenceTypes(c *gin.Context) {
	types := h.registry.ReferenceTypes()
	responses := make([]referenceTypeResponse, 0, len(types))
	for _, rt := range types {
		responses = append(responses, referenceTypeResponse{
			ID:             rt.ID,
			Code:           rt.Code,
			Name:           rt.Name,
			AllowsMultiple: rt.AllowsMultiple,
			MaxImages:      rt.MaxImages,
			Description:    rt.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"referenceTypes": responses})
}

func (h HandlerSet) ListExtensions(c *gin.Context) {
	extensions := h.registry.Extensions()
	responses := make([]extensionResponse, 0, len(extensions))
	for _, ext := range extensions {
		responses = append(responses, extensionResponse{Code: ext.Code, Name: ext.Name})
	}
	c.JSON(http.StatusOK, gin.H{"extensions": responses})
}
