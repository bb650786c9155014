package controllers

import (
	"context"
	"net/http"

	"document-routing-api/services"
	"document-routing-api/workflow"

	"github.com/gin-gonic/gin"
)

type revisionRequest struct {
	Approvers         []string `json:"approvers"`
	ResetAllApprovals bool     `json:"reset_all_approvals"`
	Reason            string   `json:"reason"`
	Title             *string  `json:"title"`
	Type              *string  `json:"type"`
	Description       *string  `json:"description"`
}

type reviseFunc func(ctx context.Context, actor workflow.Actor, id string, input services.RevisionInput) (*workflow.RevisionResult, error)

// CloneDocument derives an edited copy of a document.
func (dc *DocumentController) CloneDocument(c *gin.Context) {
	dc.revise(c, dc.service.CloneDocument)
}

// ResubmitDocument derives a revision of a rejected document.
func (dc *DocumentController) ResubmitDocument(c *gin.Context) {
	dc.revise(c, dc.service.ResubmitDocument)
}

func (dc *DocumentController) revise(c *gin.Context, revise reviseFunc) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req revisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := revise(c.Request.Context(), actor, c.Param("id"), services.RevisionInput{
		Approvers:         req.Approvers,
		ResetAllApprovals: req.ResetAllApprovals,
		Reason:            req.Reason,
		Title:             req.Title,
		Type:              req.Type,
		Description:       req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"document": result.Document,
		"original": result.Original,
	})
}
