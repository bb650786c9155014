package workflow

import (
	"fmt"
	"strings"

	"document-routing-api/models"
	"document-routing-api/utils"

	"github.com/google/uuid"
)

// RevisionRequest describes the document to derive from an original.
type RevisionRequest struct {
	Approvers         []string
	ResetAllApprovals bool
	Reason            string
	RevisedBy         Actor

	// Optional edits, applied by CloneWithEdits only.
	Title       *string
	Type        *string
	Description *string
}

// RevisionResult holds the derived document and the original with its single
// appended audit note.
type RevisionResult struct {
	Document *models.Document
	Original *models.Document
}

// CloneWithEdits derives a new document that always restarts at NEW so the
// originator can review it before release. Cloning is permitted whatever the
// original's status. chainMax is the highest revision number already present
// in the original's chain.
func (e *Engine) CloneWithEdits(original *models.Document, req RevisionRequest, chainMax int) (*RevisionResult, error) {
	doc, err := e.derive(original, req, chainMax)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		title := utils.SanitizeInput(*req.Title)
		if title == "" {
			return nil, utils.Validationf("title is required")
		}
		doc.Title = title
	}
	if req.Type != nil {
		doc.Type = utils.SanitizeInput(*req.Type)
	}
	if req.Description != nil {
		doc.Description = utils.SanitizeInput(*req.Description)
	}
	doc.State = models.State{Verdict: models.VerdictNone, Tracking: models.TrackingNew}
	doc.CurrentStepIndex = 0

	return e.finish(original, doc, req, models.ActionCloneCreated), nil
}

// Resubmit derives a new document from a rejected one and resumes the
// workflow: it is released for pickup immediately and currentStepIndex skips
// the preserved approvals. A FLOW resubmission must leave at least one step
// pending.
func (e *Engine) Resubmit(original *models.Document, req RevisionRequest, chainMax int) (*RevisionResult, error) {
	if !original.HasRejection() {
		return nil, utils.Deniedf("document %s has no rejection to resubmit", original.ID)
	}
	doc, err := e.derive(original, req, chainMax)
	if err != nil {
		return nil, err
	}
	if doc.Workflow == models.WorkflowFlow && doc.AllApproved() {
		return nil, utils.Validationf("every approval would be preserved; add an approver or reset approvals")
	}
	verdict := models.VerdictNone
	if len(doc.Revision.PreservedApprovals) > 0 {
		verdict = models.VerdictAccepted
	}
	doc.State = models.State{Verdict: verdict, Tracking: models.TrackingReadyForPickup}
	doc.CurrentStepIndex = doc.FirstPendingIndex()

	return e.finish(original, doc, req, models.ActionResubmitted), nil
}

// derive builds the revision's steps and provenance. original is not touched.
func (e *Engine) derive(original *models.Document, req RevisionRequest, chainMax int) (*models.Document, error) {
	revisedBy := utils.NormalizeEmail(req.RevisedBy.Email)
	if revisedBy != original.CreatedBy {
		return nil, utils.Deniedf("only the creator may revise document %s", original.ID)
	}

	var approvers []string
	switch original.Workflow {
	case models.WorkflowFlow:
		list, err := utils.NormalizeApproverList(req.Approvers)
		if err != nil {
			return nil, err
		}
		approvers = list
	default:
		if len(req.Approvers) > 0 {
			return nil, utils.Validationf("direct deliveries have no approvers")
		}
	}

	sourceRevision := original.RevisionNo()
	previous := make(map[string]models.ApprovalStep, len(original.ApprovalSteps))
	for _, step := range original.ApprovalSteps {
		previous[step.ApproverEmail] = step
	}

	steps := make([]models.ApprovalStep, 0, len(approvers))
	preserved := make([]models.ApprovalStep, 0)
	for i, email := range approvers {
		step := models.ApprovalStep{Order: i + 1, ApproverEmail: email, Status: models.StepPending}
		if old, ok := previous[email]; ok && !req.ResetAllApprovals && old.Status == models.StepApproved {
			step.Status = models.StepApproved
			if old.Timestamp != nil {
				ts := *old.Timestamp
				step.Timestamp = &ts
			}
			step.Comments = preservedComment(old.Comments, sourceRevision)
			preserved = append(preserved, step)
		}
		steps = append(steps, step)
	}

	number := chainMax
	if sourceRevision > number {
		number = sourceRevision
	}
	at := e.Now()

	return &models.Document{
		ID:             uuid.NewString(),
		Title:          original.Title,
		Type:           original.Type,
		Description:    original.Description,
		Workflow:       original.Workflow,
		CreatedBy:      original.CreatedBy,
		RecipientEmail: original.RecipientEmail,
		ApprovalSteps:  steps,
		Revision: &models.Revision{
			RevisionNumber:     number + 1,
			OriginalDocumentID: original.ChainRootID(),
			PreviousRevisionID: original.ID,
			RevisionReason:     strings.TrimSpace(req.Reason),
			RevisedBy:          revisedBy,
			RevisedAt:          at,
			PreservedApprovals: preserved,
		},
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

// finish appends the audit notes: the original only gains originalAction, its
// own status and steps stay as they were.
func (e *Engine) finish(original, doc *models.Document, req RevisionRequest, originalAction models.Action) *RevisionResult {
	at := doc.Revision.RevisedAt
	actor := req.RevisedBy
	actor.Email = doc.Revision.RevisedBy

	doc.ActionHistory = []models.AuditRecord{
		newRecord(doc.ID, models.ActionCreateRevision, actor, at, models.State{}, doc.State,
			fmt.Sprintf("revision %d of %s", doc.Revision.RevisionNumber, original.ID)),
	}

	updated := original.Clone()
	updated.ActionHistory = append(updated.ActionHistory,
		newRecord(original.ID, originalAction, actor, at, original.State, original.State,
			fmt.Sprintf("revision %d created as %s", doc.Revision.RevisionNumber, doc.ID)))

	return &RevisionResult{Document: doc, Original: updated}
}

func preservedComment(comment string, revision int) string {
	note := fmt.Sprintf("preserved from revision %d", revision)
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return note
	}
	return fmt.Sprintf("%s (%s)", comment, note)
}
