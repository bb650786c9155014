package controllers

import (
	"net/http"
	"strings"

	"document-routing-api/models"
	"document-routing-api/services"
	"document-routing-api/workflow"

	"github.com/gin-gonic/gin"
)

type actionRequest struct {
	Action           string `json:"action" binding:"required"`
	Comments         string `json:"comments"`
	AcceptSubstitute bool   `json:"accept_substitute"`
}

type scanRequest struct {
	actionRequest
	Payload string `json:"payload" binding:"required"`
	Tag     string `json:"tag"`
}

// SubmitAction applies an action to the document named in the path.
func (dc *DocumentController) SubmitAction(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := dc.service.SubmitAction(c.Request.Context(), actor, req.input(c.Param("id")))
	dc.respondAction(c, result, err)
}

// Scan applies an action to the document a scanned QR payload points at.
func (dc *DocumentController) Scan(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := dc.service.ScanAction(c.Request.Context(), actor, req.Payload, req.Tag, req.input(""))
	dc.respondAction(c, result, err)
}

func (r actionRequest) input(documentID string) services.ActionInput {
	return services.ActionInput{
		DocumentID:       documentID,
		Action:           models.Action(strings.ToLower(strings.TrimSpace(r.Action))),
		Comments:         r.Comments,
		AcceptSubstitute: r.AcceptSubstitute,
	}
}

func (dc *DocumentController) respondAction(c *gin.Context, result *services.ActionResult, err error) {
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Decision.Outcome == workflow.Substitute && result.Record == nil {
		c.JSON(http.StatusConflict, gin.H{
			"success":          false,
			"error":            result.Decision.Reason,
			"suggested_action": result.Decision.Action,
			"document":         result.Document,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"action":   result.Record.Action,
		"record":   result.Record,
		"document": result.Document,
	})
}
