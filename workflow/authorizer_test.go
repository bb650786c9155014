package workflow

import (
	"errors"
	"testing"

	"document-routing-api/models"
	"document-routing-api/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	courier := actor(t, courierA, "courier")
	approver := actor(t, approvA, "approver")

	tests := []struct {
		name string
		req  ActionRequest
		ok   bool
	}{
		{"pickup", ActionRequest{Action: models.ActionPickup, Actor: courier}, true},
		{"reject with reason", ActionRequest{Action: models.ActionReject, Actor: approver, Comments: "wrong totals"}, true},
		{"reject without reason", ActionRequest{Action: models.ActionReject, Actor: approver, Comments: "   "}, false},
		{"unknown action", ActionRequest{Action: "teleport", Actor: courier}, false},
		{"audit-only action", ActionRequest{Action: models.ActionCloneCreated, Actor: courier}, false},
		{"missing role", ActionRequest{Action: models.ActionPickup, Actor: Actor{Email: courierA}}, false},
		{"bad email", ActionRequest{Action: models.ActionPickup, Actor: Actor{Email: "nope", Role: Courier{}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, utils.ErrValidation), "got %v", err)
		})
	}
}

func TestCourierNeverActedIsOfferedPickup(t *testing.T) {
	doc := flowDocument(approvA)
	courier := actor(t, courierA, "courier")

	decision := Authorize(doc, ActionRequest{Action: models.ActionPickup, Actor: courier})
	assert.Equal(t, Allow, decision.Outcome)
	assert.Equal(t, models.ActionPickup, decision.Action)

	decision = Authorize(doc, ActionRequest{Action: models.ActionDeliver, Actor: courier})
	assert.Equal(t, Substitute, decision.Outcome)
	assert.Equal(t, models.ActionPickup, decision.Action)
	assert.NoError(t, decision.Err(models.ActionDeliver))
}

func TestCourierAfterPickupMustDeliver(t *testing.T) {
	e := newTestEngine()
	courier := actor(t, courierA, "courier")
	doc := act(t, e, flowDocument(approvA), courier, models.ActionPickup, "")

	decision := Authorize(doc, ActionRequest{Action: models.ActionPickup, Actor: courier})
	assert.Equal(t, Substitute, decision.Outcome)
	assert.Equal(t, models.ActionDeliver, decision.Action)
}

func TestCourierAfterDeliverIsDeniedUntilApproverActs(t *testing.T) {
	e := newTestEngine()
	courier := actor(t, courierA, "courier")
	doc := act(t, e, flowDocument(approvA, approvB), courier, models.ActionPickup, "")
	doc = act(t, e, doc, courier, models.ActionDeliver, "")
	require.Equal(t, models.TrackingDelivered, doc.State.Tracking)

	for _, action := range []models.Action{models.ActionPickup, models.ActionDeliver} {
		decision := Authorize(doc, ActionRequest{Action: action, Actor: courier})
		assert.Equal(t, Deny, decision.Outcome, "action %s", action)
		assert.Equal(t, "awaiting approver", decision.Reason)
	}

	// Receiving is not an approver verdict; the courier is still waiting.
	doc = act(t, e, doc, actor(t, approvA, "approver"), models.ActionReceive, "")
	assert.Equal(t, Deny, Authorize(doc, ActionRequest{Action: models.ActionPickup, Actor: courier}).Outcome)

	doc = act(t, e, doc, actor(t, approvA, "approver"), models.ActionApprove, "")
	decision := Authorize(doc, ActionRequest{Action: models.ActionPickup, Actor: courier})
	assert.Equal(t, Allow, decision.Outcome)
}

func TestCourierReleaseScanDoesNotCountAsPickup(t *testing.T) {
	e := newTestEngine()
	courier := actor(t, courierA, "courier")
	doc := flowDocument(approvA)
	doc.State.Tracking = models.TrackingNew

	doc = act(t, e, doc, courier, models.ActionPickup, "")
	require.Equal(t, models.TrackingReadyForPickup, doc.State.Tracking)

	doc = act(t, e, doc, courier, models.ActionPickup, "")
	assert.Equal(t, models.TrackingPickedUp, doc.State.Tracking)
}

func TestOtherCourierCannotTakeOverPickedUpDocument(t *testing.T) {
	e := newTestEngine()
	doc := act(t, e, flowDocument(approvA), actor(t, courierA, "courier"), models.ActionPickup, "")

	decision := Authorize(doc, ActionRequest{Action: models.ActionDeliver, Actor: actor(t, courierB, "courier")})
	assert.Equal(t, Deny, decision.Outcome)
	assert.Equal(t, "picked up by another courier", decision.Reason)
}

func TestCourierCannotRequestApproverActions(t *testing.T) {
	decision := Authorize(flowDocument(approvA), ActionRequest{Action: models.ActionApprove, Actor: actor(t, courierA, "courier")})
	assert.Equal(t, Deny, decision.Outcome)

	err := decision.Err(models.ActionApprove)
	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.True(t, errors.Is(err, utils.ErrAuthorizationDenied))
}

func TestApproverAuthorization(t *testing.T) {
	doc := flowDocument(approvA, approvB)
	doc.State = models.State{Verdict: models.VerdictPending, Tracking: models.TrackingReceived}
	doc.ApprovalSteps[0].Status = models.StepApproved

	tests := []struct {
		name    string
		email   string
		action  models.Action
		outcome Outcome
		reason  string
	}{
		{"pending approver approves", approvB, models.ActionApprove, Allow, ""},
		{"pending approver rejects", approvB, models.ActionReject, Allow, ""},
		{"already approved", approvA, models.ActionApprove, Deny, "already approved"},
		{"outsider", approvC, models.ActionApprove, Deny, "not in approval list"},
		{"receive when already received", approvB, models.ActionReceive, Deny, "document has not been delivered"},
		{"approver cannot close", approvB, models.ActionClose, Deny, "approvers may only receive, approve or reject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Authorize(doc, ActionRequest{Action: tt.action, Actor: actor(t, tt.email, "approver"), Comments: "ok"})
			assert.Equal(t, tt.outcome, decision.Outcome)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, decision.Reason)
			}
		})
	}
}

func TestApproverOrderIsNotEnforced(t *testing.T) {
	doc := flowDocument(approvA, approvB, approvC)
	doc.State = models.State{Verdict: models.VerdictPending, Tracking: models.TrackingReceived}

	decision := Authorize(doc, ActionRequest{Action: models.ActionApprove, Actor: actor(t, approvC, "approver")})
	assert.Equal(t, Allow, decision.Outcome)
}

func TestApproverMustWaitForReceipt(t *testing.T) {
	doc := flowDocument(approvA)
	decision := Authorize(doc, ActionRequest{Action: models.ActionApprove, Actor: actor(t, approvA, "approver")})
	assert.Equal(t, Deny, decision.Outcome)
	assert.Equal(t, "document has not been received", decision.Reason)
}

func TestRecipientAuthorization(t *testing.T) {
	doc := dropDocument()
	doc.State.Tracking = models.TrackingDelivered

	assert.Equal(t, Allow, Authorize(doc, ActionRequest{Action: models.ActionReceive, Actor: actor(t, dropTo, "recipient")}).Outcome)
	assert.Equal(t, Deny, Authorize(doc, ActionRequest{Action: models.ActionReceive, Actor: actor(t, approvA, "recipient")}).Outcome)
	assert.Equal(t, Deny, Authorize(doc, ActionRequest{Action: models.ActionApprove, Actor: actor(t, dropTo, "recipient")}).Outcome)
	assert.Equal(t, Deny, Authorize(flowDocument(approvA), ActionRequest{Action: models.ActionReceive, Actor: actor(t, dropTo, "recipient")}).Outcome)
}

func TestOriginatorCloseAndCancel(t *testing.T) {
	owner := actor(t, creator, "admin")
	stranger := actor(t, "other.admin@example.com", "admin")

	doc := flowDocument(approvA, approvB)
	doc.ApprovalSteps[0].Status = models.StepApproved

	closing := Authorize(doc, ActionRequest{Action: models.ActionClose, Actor: owner})
	assert.Equal(t, Deny, closing.Outcome)
	assert.Equal(t, "not all approvals are complete", closing.Reason)

	assert.Equal(t, Allow, Authorize(doc, ActionRequest{Action: models.ActionCancel, Actor: owner}).Outcome)
	assert.Equal(t, Deny, Authorize(doc, ActionRequest{Action: models.ActionCancel, Actor: stranger}).Outcome)

	doc.ApprovalSteps[1].Status = models.StepApproved
	assert.Equal(t, Allow, Authorize(doc, ActionRequest{Action: models.ActionClose, Actor: owner}).Outcome)
	assert.Equal(t, Deny, Authorize(doc, ActionRequest{Action: models.ActionClose, Actor: stranger}).Outcome)

	doc.State = models.State{Tracking: models.TrackingCompleted}
	assert.Equal(t, Deny, Authorize(doc, ActionRequest{Action: models.ActionCancel, Actor: owner}).Outcome)
}

func TestVisible(t *testing.T) {
	e := newTestEngine()
	courier := actor(t, courierA, "courier")
	approver := actor(t, approvA, "approver")

	doc := flowDocument(approvA)
	assert.True(t, Visible(doc, courier))
	assert.False(t, Visible(doc, approver))
	assert.True(t, Visible(doc, actor(t, creator, "admin")))

	doc = act(t, e, doc, courier, models.ActionPickup, "")
	doc = act(t, e, doc, courier, models.ActionDeliver, "")
	assert.False(t, Visible(doc, courier))
	assert.True(t, Visible(doc, approver))
	assert.False(t, Visible(doc, actor(t, approvB, "approver")))

	drop := dropDocument()
	assert.True(t, Visible(drop, actor(t, dropTo, "recipient")))
	assert.False(t, Visible(drop, actor(t, approvA, "recipient")))
}
