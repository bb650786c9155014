package workflow

import (
	"fmt"
	"strings"

	"document-routing-api/models"
	"document-routing-api/utils"
)

// ActionRequest is a proposed action on one document.
type ActionRequest struct {
	DocumentID string
	Action     models.Action
	Actor      Actor
	Comments   string
}

// Outcome classifies an authorization decision.
type Outcome int

const (
	Allow Outcome = iota
	Deny
	Substitute
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Substitute:
		return "substitute"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is the Authorizer's answer. For Allow and Substitute, Action is the
// action that may run; for Substitute it differs from the requested one.
type Decision struct {
	Outcome Outcome
	Action  models.Action
	Reason  string
}

func allow(action models.Action) Decision {
	return Decision{Outcome: Allow, Action: action}
}

func deny(reason string) Decision {
	return Decision{Outcome: Deny, Reason: reason}
}

func substitute(action models.Action, reason string) Decision {
	return Decision{Outcome: Substitute, Action: action, Reason: reason}
}

// DeniedError reports a Deny decision as an error.
type DeniedError struct {
	Action models.Action
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Action, e.Reason)
}

func (e *DeniedError) Unwrap() error {
	return utils.ErrAuthorizationDenied
}

// Err returns a *DeniedError for Deny decisions and nil otherwise.
func (d Decision) Err(requested models.Action) error {
	if d.Outcome != Deny {
		return nil
	}
	return &DeniedError{Action: requested, Reason: d.Reason}
}

var submittable = map[models.Action]struct{}{
	models.ActionPickup:  {},
	models.ActionDeliver: {},
	models.ActionReceive: {},
	models.ActionApprove: {},
	models.ActionReject:  {},
	models.ActionClose:   {},
	models.ActionCancel:  {},
}

// ValidateRequest rejects malformed requests before authorization. A reject
// without comments never gets past this point.
func ValidateRequest(req ActionRequest) error {
	if req.Actor.Role == nil {
		return utils.Validationf("actor role is required")
	}
	if !utils.ValidateEmail(utils.NormalizeEmail(req.Actor.Email)) {
		return utils.Validationf("invalid actor email %q", req.Actor.Email)
	}
	if _, ok := submittable[req.Action]; !ok {
		return utils.Validationf("unknown action %q", req.Action)
	}
	if req.Action == models.ActionReject && strings.TrimSpace(req.Comments) == "" {
		return utils.Validationf("a rejection reason is required")
	}
	return nil
}

// Authorize decides whether req is legal on doc right now. It assumes req has
// passed ValidateRequest. Any Allow or Substitute it returns names an action
// the Executor's transition table accepts from doc's current state.
func Authorize(doc *models.Document, req ActionRequest) Decision {
	req.Actor.Email = utils.NormalizeEmail(req.Actor.Email)
	return req.Actor.Role.authorize(doc, req)
}

func (Courier) authorize(doc *models.Document, req ActionRequest) Decision {
	if req.Action != models.ActionPickup && req.Action != models.ActionDeliver {
		return deny("couriers may only pickup or deliver")
	}
	if doc.State.Terminal() {
		return deny("document is closed")
	}
	next, ok := nextCourierAction(doc, req.Actor.Email)
	if !ok {
		return deny("awaiting approver")
	}
	if reason := courierStateGuard(doc, next); reason != "" {
		return deny(reason)
	}
	if next != req.Action {
		return substitute(next, fmt.Sprintf("expected %s, not %s", next, req.Action))
	}
	return allow(next)
}

// nextCourierAction derives the courier's legal action from their own history
// on doc. The second result is false when no courier action is legal. A pickup
// scan that only released a NEW document does not count as a pickup.
func nextCourierAction(doc *models.Document, email string) (models.Action, bool) {
	for i := len(doc.ActionHistory) - 1; i >= 0; i-- {
		rec := doc.ActionHistory[i]
		switch rec.Action {
		case models.ActionApprove, models.ActionReject:
			return models.ActionPickup, true
		case models.ActionPickup, models.ActionDeliver:
			if rec.PerformedBy != email {
				continue
			}
			if rec.Action == models.ActionDeliver {
				return "", false
			}
			if rec.NewState.Tracking == models.TrackingReadyForPickup {
				continue
			}
			return models.ActionDeliver, true
		}
	}
	return models.ActionPickup, true
}

// courierStateGuard returns a deny reason when the document is not physically
// where action expects it.
func courierStateGuard(doc *models.Document, action models.Action) string {
	tracking := doc.State.Tracking
	switch action {
	case models.ActionPickup:
		switch tracking {
		case models.TrackingNew, models.TrackingReadyForPickup:
			return ""
		case models.TrackingPickedUp:
			return "picked up by another courier"
		case models.TrackingDelivered, models.TrackingReceived:
			return "awaiting approver"
		}
	case models.ActionDeliver:
		if tracking == models.TrackingPickedUp {
			return ""
		}
	}
	return "not ready for " + string(action)
}

func (Approver) authorize(doc *models.Document, req ActionRequest) Decision {
	switch req.Action {
	case models.ActionReceive, models.ActionApprove, models.ActionReject:
	default:
		return deny("approvers may only receive, approve or reject")
	}
	if doc.Workflow != models.WorkflowFlow {
		return deny("document has no approval chain")
	}
	if doc.State.Terminal() {
		return deny("document is closed")
	}
	idx := doc.StepIndex(req.Actor.Email)
	if idx < 0 {
		return deny("not in approval list")
	}
	if status := doc.ApprovalSteps[idx].Status; status != models.StepPending {
		return deny("already " + string(status))
	}

	// Any pending approver may act; list order is not enforced.
	if req.Action == models.ActionReceive {
		if doc.State.Tracking != models.TrackingDelivered {
			return deny("document has not been delivered")
		}
		return allow(req.Action)
	}
	if doc.State.Tracking != models.TrackingReceived {
		return deny("document has not been received")
	}
	return allow(req.Action)
}

func (Recipient) authorize(doc *models.Document, req ActionRequest) Decision {
	if req.Action != models.ActionReceive {
		return deny("recipients may only receive")
	}
	if doc.Workflow != models.WorkflowDrop {
		return deny("document is not a direct delivery")
	}
	if doc.RecipientEmail != req.Actor.Email {
		return deny("not the recipient")
	}
	if doc.State.Terminal() {
		return deny("document is closed")
	}
	if doc.State.Tracking != models.TrackingDelivered {
		return deny("document has not been delivered")
	}
	return allow(req.Action)
}

func (Originator) authorize(doc *models.Document, req ActionRequest) Decision {
	if req.Action != models.ActionClose && req.Action != models.ActionCancel {
		return deny("originators may only close or cancel")
	}
	if doc.CreatedBy != req.Actor.Email {
		return deny("only the creator may " + string(req.Action))
	}
	if doc.State.Terminal() {
		return deny("document is already closed")
	}
	if req.Action == models.ActionCancel {
		return allow(req.Action)
	}
	if !doc.AllApproved() {
		return deny("not all approvals are complete")
	}
	if doc.Workflow == models.WorkflowDrop && doc.State.Tracking != models.TrackingReceived {
		return deny("document has not been received")
	}
	return allow(req.Action)
}
