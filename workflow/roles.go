// Package workflow decides which action is legal next on a routed document,
// applies it as a single deterministic transition, and derives revisions.
// Every operation is an in-memory transform; persistence belongs to callers.
package workflow

import (
	"fmt"
	"strings"

	"document-routing-api/models"
	"document-routing-api/utils"
)

// Role is the closed set of actor roles. The unexported methods keep the set
// sealed: a new role has to supply its own authorization and listing rules.
type Role interface {
	Name() string
	authorize(doc *models.Document, req ActionRequest) Decision
	visible(doc *models.Document, email string) bool
}

// Courier carries the document between checkpoints.
type Courier struct{}

// Approver holds one step of a FLOW document.
type Approver struct{}

// Recipient is the single addressee of a DROP document.
type Recipient struct{}

// Originator created the document and may close or cancel it.
type Originator struct{}

func (Courier) Name() string    { return "courier" }
func (Approver) Name() string   { return "approver" }
func (Recipient) Name() string  { return "recipient" }
func (Originator) Name() string { return "admin" }

// ParseRole resolves a role name as carried in tokens and requests.
func ParseRole(name string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "courier":
		return Courier{}, nil
	case "approver":
		return Approver{}, nil
	case "recipient":
		return Recipient{}, nil
	case "admin", "originator":
		return Originator{}, nil
	}
	return nil, utils.Validationf("unknown role %q", name)
}

// Actor is the identity performing or requesting an action.
type Actor struct {
	Email string
	Role  Role
}

// NewActor normalizes email and resolves roleName.
func NewActor(email, roleName string) (Actor, error) {
	role, err := ParseRole(roleName)
	if err != nil {
		return Actor{}, err
	}
	email = utils.NormalizeEmail(email)
	if !utils.ValidateEmail(email) {
		return Actor{}, utils.Validationf("invalid actor email %q", email)
	}
	return Actor{Email: email, Role: role}, nil
}

func (a Actor) String() string {
	if a.Role == nil {
		return a.Email
	}
	return fmt.Sprintf("%s(%s)", a.Role.Name(), a.Email)
}

// Visible reports whether doc belongs in actor's role-filtered listing.
func Visible(doc *models.Document, actor Actor) bool {
	if actor.Role == nil {
		return false
	}
	return actor.Role.visible(doc, utils.NormalizeEmail(actor.Email))
}

// CanView reports whether actor may read doc: it is listed for them, or they
// created it, are named on it, or appear in its history.
func CanView(doc *models.Document, actor Actor) bool {
	if Visible(doc, actor) {
		return true
	}
	email := utils.NormalizeEmail(actor.Email)
	if email == "" {
		return false
	}
	if doc.CreatedBy == email || doc.RecipientEmail == email || doc.StepIndex(email) >= 0 {
		return true
	}
	for _, record := range doc.ActionHistory {
		if record.PerformedBy == email {
			return true
		}
	}
	return false
}

func (Courier) visible(doc *models.Document, email string) bool {
	if doc.State.Terminal() {
		return false
	}
	next, ok := nextCourierAction(doc, email)
	return ok && courierStateGuard(doc, next) == ""
}

func (Approver) visible(doc *models.Document, email string) bool {
	if doc.Workflow != models.WorkflowFlow {
		return false
	}
	if doc.State.Tracking != models.TrackingDelivered && doc.State.Tracking != models.TrackingReceived {
		return false
	}
	idx := doc.StepIndex(email)
	return idx >= 0 && doc.ApprovalSteps[idx].Status == models.StepPending
}

func (Recipient) visible(doc *models.Document, email string) bool {
	return doc.Workflow == models.WorkflowDrop && doc.RecipientEmail == email
}

func (Originator) visible(doc *models.Document, email string) bool {
	return doc.CreatedBy == email
}
