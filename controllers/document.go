package controllers

import (
	"net/http"
	"strings"

	"document-routing-api/models"
	"document-routing-api/services"

	"github.com/gin-gonic/gin"
)

// DocumentController serves the document workflow endpoints.
type DocumentController struct {
	service *services.DocumentService
}

// NewDocumentController returns a controller backed by service.
func NewDocumentController(service *services.DocumentService) *DocumentController {
	return &DocumentController{service: service}
}

type createDocumentRequest struct {
	Title          string   `json:"title" binding:"required"`
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Workflow       string   `json:"workflow" binding:"required"`
	Approvers      []string `json:"approvers"`
	RecipientEmail string   `json:"recipient_email"`
	Draft          bool     `json:"draft"`
}

// CreateDocument registers a new FLOW or DROP document.
func (dc *DocumentController) CreateDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	doc, err := dc.service.CreateDocument(c.Request.Context(), actor, services.CreateDocumentInput{
		Title:          req.Title,
		Type:           req.Type,
		Description:    req.Description,
		Workflow:       models.Workflow(strings.ToUpper(strings.TrimSpace(req.Workflow))),
		Approvers:      req.Approvers,
		RecipientEmail: req.RecipientEmail,
		Draft:          req.Draft,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"document": doc,
	})
}

// GetDocument returns one document.
func (dc *DocumentController) GetDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	doc, err := dc.service.GetDocument(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": doc,
	})
}

// ListDocuments lists what the caller's role should act on or owns.
func (dc *DocumentController) ListDocuments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	docs, err := dc.service.ListDocuments(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": docs,
		"total":     len(docs),
	})
}

// DeleteDocument removes a document owned by the caller.
func (dc *DocumentController) DeleteDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := dc.service.DeleteDocument(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetHistory returns the audit trail.
func (dc *DocumentController) GetHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	history, err := dc.service.GetHistory(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": history,
		"total":   len(history),
	})
}

// GetQRPayload returns the text to encode in the document's QR code.
func (dc *DocumentController) GetQRPayload(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	payload, tag, err := dc.service.QRCode(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payload": payload,
		"tag":     tag,
	})
}
