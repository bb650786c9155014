package workflow

import (
	"testing"
	"time"

	"document-routing-api/models"

	"github.com/stretchr/testify/require"
)

const (
	creator  = "admin@example.com"
	courierA = "courier.a@example.com"
	courierB = "courier.b@example.com"
	approvA  = "a@example.com"
	approvB  = "b@example.com"
	approvC  = "c@example.com"
	dropTo   = "recipient@example.com"
)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestEngine() *Engine {
	clock := &fixedClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewEngine(clock.now)
}

func actor(t *testing.T, email, role string) Actor {
	t.Helper()
	a, err := NewActor(email, role)
	require.NoError(t, err)
	return a
}

func flowDocument(approvers ...string) *models.Document {
	steps := make([]models.ApprovalStep, len(approvers))
	for i, email := range approvers {
		steps[i] = models.ApprovalStep{Order: i + 1, ApproverEmail: email, Status: models.StepPending}
	}
	return &models.Document{
		ID:            "doc-1",
		Title:         "Purchase order",
		Workflow:      models.WorkflowFlow,
		State:         models.State{Tracking: models.TrackingReadyForPickup},
		CreatedBy:     creator,
		ApprovalSteps: steps,
	}
}

func dropDocument() *models.Document {
	return &models.Document{
		ID:             "doc-2",
		Title:          "Signed contract",
		Workflow:       models.WorkflowDrop,
		State:          models.State{Tracking: models.TrackingReadyForPickup},
		CreatedBy:      creator,
		RecipientEmail: dropTo,
		ApprovalSteps:  []models.ApprovalStep{},
	}
}

// act authorizes and executes, failing the test unless the decision is Allow.
func act(t *testing.T, e *Engine, doc *models.Document, who Actor, action models.Action, comments string) *models.Document {
	t.Helper()
	req := ActionRequest{DocumentID: doc.ID, Action: action, Actor: who, Comments: comments}
	require.NoError(t, ValidateRequest(req))
	decision := Authorize(doc, req)
	require.Equal(t, Allow, decision.Outcome, "%s by %s denied: %s", action, who, decision.Reason)
	next, record, err := e.Execute(doc, req)
	require.NoError(t, err)
	require.Equal(t, action, record.Action)
	return next
}
