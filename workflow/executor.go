package workflow

import (
	"strings"
	"time"

	"document-routing-api/models"
	"document-routing-api/utils"

	"github.com/google/uuid"
)

// Engine applies transitions and derives revisions. It holds no mutable
// state; the clock is injectable for tests.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an Engine using now as its clock, or time.Now when nil.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Execute performs exactly one transition for an authorized action and appends
// one audit record. doc is never modified: the returned document is a copy.
// An action outside the transition table fails with ErrUnreachableTransition.
func (e *Engine) Execute(doc *models.Document, req ActionRequest) (*models.Document, models.AuditRecord, error) {
	next := doc.Clone()
	at := e.now().UTC()
	comments := strings.TrimSpace(req.Comments)
	req.Actor.Email = utils.NormalizeEmail(req.Actor.Email)

	switch req.Action {
	case models.ActionClose:
		next.State = models.State{Verdict: models.VerdictNone, Tracking: models.TrackingCompleted}
	case models.ActionCancel:
		next.State = models.State{Verdict: models.VerdictNone, Tracking: models.TrackingRejected}
	default:
		if err := transition(next, req.Action, req.Actor.Email, comments, at); err != nil {
			return nil, models.AuditRecord{}, err
		}
	}
	next.CurrentStepIndex = next.FirstPendingIndex()

	record := newRecord(next.ID, req.Action, req.Actor, at, doc.State, next.State, comments)
	next.ActionHistory = append(next.ActionHistory, record)
	return next, record, nil
}

func transition(doc *models.Document, action models.Action, email, comments string, at time.Time) error {
	tracking := doc.State.Tracking
	switch {
	case tracking == models.TrackingNew && action == models.ActionPickup:
		doc.State.Tracking = models.TrackingReadyForPickup
	case tracking == models.TrackingReadyForPickup && action == models.ActionPickup:
		doc.State.Tracking = models.TrackingPickedUp
	case tracking == models.TrackingPickedUp && action == models.ActionDeliver:
		doc.State.Tracking = models.TrackingDelivered
	case tracking == models.TrackingDelivered && action == models.ActionReceive:
		doc.State = models.State{Verdict: models.VerdictPending, Tracking: models.TrackingReceived}
	case tracking == models.TrackingReceived && action == models.ActionApprove:
		if err := markStep(doc, email, models.StepApproved, comments, at); err != nil {
			return err
		}
		if doc.AllApproved() {
			doc.State = models.State{Verdict: models.VerdictNone, Tracking: models.TrackingCompleted}
		} else {
			// Back to the courier, who may carry it to any remaining approver.
			doc.State = models.State{Verdict: models.VerdictAccepted, Tracking: models.TrackingReadyForPickup}
		}
	case tracking == models.TrackingReceived && action == models.ActionReject:
		if comments == "" {
			return utils.Validationf("a rejection reason is required")
		}
		if err := markStep(doc, email, models.StepRejected, comments, at); err != nil {
			return err
		}
		doc.RejectionReason = comments
		doc.State = models.State{Verdict: models.VerdictRejected, Tracking: models.TrackingReadyForPickup}
	default:
		return utils.Unreachablef("%s from %s", action, doc.State)
	}
	return nil
}

// markStep moves email's step out of pending. Steps never leave approved or
// rejected.
func markStep(doc *models.Document, email string, status models.StepStatus, comments string, at time.Time) error {
	idx := doc.StepIndex(email)
	if idx < 0 {
		return utils.Unreachablef("%s has no step on document %s", email, doc.ID)
	}
	step := &doc.ApprovalSteps[idx]
	if step.Status != models.StepPending {
		return utils.Unreachablef("step of %s is already %s", email, step.Status)
	}
	step.Status = status
	step.Timestamp = &at
	step.Comments = comments
	return nil
}

func newRecord(documentID string, action models.Action, actor Actor, at time.Time, prev, next models.State, comments string) models.AuditRecord {
	record := models.AuditRecord{
		ID:             uuid.NewString(),
		DocumentID:     documentID,
		Action:         action,
		PerformedBy:    actor.Email,
		PerformedAt:    at,
		PreviousStatus: prev.Legacy(),
		NewStatus:      next.Legacy(),
		PreviousState:  prev,
		NewState:       next,
		Comments:       comments,
	}
	if actor.Role != nil {
		record.PerformedRole = actor.Role.Name()
	}
	return record
}

// NewDocumentRecord returns the audit record written when doc is first created.
func (e *Engine) NewDocumentRecord(doc *models.Document, actor Actor) models.AuditRecord {
	return newRecord(doc.ID, models.ActionCreate, actor, e.now().UTC(), models.State{}, doc.State, "")
}

// Now returns the engine clock's current time in UTC.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}
