package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Workflow selects between a multi-approver chain and a single direct delivery.
type Workflow string

const (
	WorkflowFlow Workflow = "FLOW"
	WorkflowDrop Workflow = "DROP"
)

// Action names a workflow action or an audit-only event.
type Action string

const (
	ActionPickup  Action = "pickup"
	ActionDeliver Action = "deliver"
	ActionReceive Action = "receive"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionClose   Action = "close"
	ActionCancel  Action = "cancel"

	// Audit-only events, never submitted by callers.
	ActionCreate         Action = "create"
	ActionCloneCreated   Action = "clone_created"
	ActionCreateRevision Action = "create_revision"
	ActionResubmitted    Action = "resubmitted"
)

// StepStatus is the state of one approver's step.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// ApprovalStep is one approver's position in the chain. ApproverEmail is unique
// within a document.
type ApprovalStep struct {
	Order         int        `json:"order"`
	ApproverEmail string     `json:"approver_email"`
	Status        StepStatus `json:"status"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	Comments      string     `json:"comments,omitempty"`
}

// AuditRecord is one immutable entry of a document's action history.
type AuditRecord struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	Action         Action    `json:"action"`
	PerformedBy    string    `json:"performed_by"`
	PerformedRole  string    `json:"performed_role,omitempty"`
	PerformedAt    time.Time `json:"performed_at"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	PreviousState  State     `json:"previous_state"`
	NewState       State     `json:"new_state"`
	Comments       string    `json:"comments,omitempty"`
}

// Revision links a document back to the document it was derived from.
type Revision struct {
	RevisionNumber     int            `json:"revision_number"`
	OriginalDocumentID string         `json:"original_document_id"`
	PreviousRevisionID string         `json:"previous_revision_id"`
	RevisionReason     string         `json:"revision_reason,omitempty"`
	RevisedBy          string         `json:"revised_by"`
	RevisedAt          time.Time      `json:"revised_at"`
	PreservedApprovals []ApprovalStep `json:"preserved_approvals"`
}

// Document is the workflow aggregate. State is the single source of truth for
// status; the legacy label is computed only when serialized.
type Document struct {
	ID               string         `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Title            string         `gorm:"column:title" json:"title"`
	Type             string         `gorm:"column:type" json:"type"`
	Description      string         `gorm:"column:description" json:"description"`
	Workflow         Workflow       `gorm:"column:workflow;type:varchar(8)" json:"workflow"`
	State            State          `gorm:"embedded" json:"-"`
	CreatedBy        string         `gorm:"column:created_by;index" json:"created_by"`
	RecipientEmail   string         `gorm:"column:recipient_email;index" json:"recipient_email,omitempty"`
	ApprovalSteps    []ApprovalStep `gorm:"column:approval_steps;serializer:json;type:json" json:"approval_steps"`
	CurrentStepIndex int            `gorm:"column:current_step_index" json:"current_step_index"`
	RejectionReason  string         `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	ActionHistory    []AuditRecord  `gorm:"column:action_history;serializer:json;type:json" json:"action_history"`
	Revision         *Revision      `gorm:"column:revision;serializer:json;type:json" json:"revision,omitempty"`
	Version          int            `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt        time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at" json:"updated_at"`

	// Query columns mirrored from Revision by BeforeSave.
	RevisionRootID string `gorm:"column:revision_root_id;type:varchar(36);index" json:"-"`
	RevisionNumber int    `gorm:"column:revision_number" json:"-"`
}

// TableName specifies the table for Document.
func (Document) TableName() string {
	return "documents"
}

// BeforeSave keeps the revision query columns in step with Revision.
func (d *Document) BeforeSave(tx *gorm.DB) error {
	if d.Revision != nil {
		d.RevisionRootID = d.Revision.OriginalDocumentID
		d.RevisionNumber = d.Revision.RevisionNumber
	} else {
		d.RevisionRootID = ""
		d.RevisionNumber = 0
	}
	return nil
}

// MarshalJSON adds the dual status and its derived legacy label.
func (d Document) MarshalJSON() ([]byte, error) {
	type alias Document
	return json.Marshal(struct {
		alias
		DocumentStatus *DocumentStatus `json:"document_status"`
		TrackingStatus TrackingStatus  `json:"tracking_status"`
		Status         string          `json:"status"`
	}{
		alias:          alias(d),
		DocumentStatus: d.State.verdictOrNil(),
		TrackingStatus: d.State.Tracking,
		Status:         d.State.Legacy(),
	})
}

// Clone returns a deep copy so callers can mutate it without touching d.
func (d *Document) Clone() *Document {
	out := *d
	out.ApprovalSteps = cloneSteps(d.ApprovalSteps)
	if d.ActionHistory != nil {
		out.ActionHistory = make([]AuditRecord, len(d.ActionHistory))
		copy(out.ActionHistory, d.ActionHistory)
	}
	if d.Revision != nil {
		rev := *d.Revision
		rev.PreservedApprovals = cloneSteps(d.Revision.PreservedApprovals)
		out.Revision = &rev
	}
	return &out
}

func cloneSteps(steps []ApprovalStep) []ApprovalStep {
	if steps == nil {
		return nil
	}
	out := make([]ApprovalStep, len(steps))
	for i, step := range steps {
		out[i] = step
		if step.Timestamp != nil {
			ts := *step.Timestamp
			out[i].Timestamp = &ts
		}
	}
	return out
}

// StepIndex returns the index of email's step, or -1.
func (d *Document) StepIndex(email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	for i, step := range d.ApprovalSteps {
		if step.ApproverEmail == email {
			return i
		}
	}
	return -1
}

// AllApproved reports whether every step is approved, regardless of order.
// A document without steps is vacuously approved.
func (d *Document) AllApproved() bool {
	for _, step := range d.ApprovalSteps {
		if step.Status != StepApproved {
			return false
		}
	}
	return true
}

// HasRejection reports whether the verdict or any step records a rejection.
func (d *Document) HasRejection() bool {
	if d.State.Verdict == VerdictRejected {
		return true
	}
	for _, step := range d.ApprovalSteps {
		if step.Status == StepRejected {
			return true
		}
	}
	return false
}

// FirstPendingIndex returns the index of the first pending step in order, or
// len(ApprovalSteps) when nothing is pending.
func (d *Document) FirstPendingIndex() int {
	for i, step := range d.ApprovalSteps {
		if step.Status == StepPending {
			return i
		}
	}
	return len(d.ApprovalSteps)
}

// RevisionNo returns the document's revision number, 0 when unrevised.
func (d *Document) RevisionNo() int {
	if d.Revision == nil {
		return 0
	}
	return d.Revision.RevisionNumber
}

// ChainRootID returns the id of the first document of d's revision chain.
func (d *Document) ChainRootID() string {
	if d.Revision != nil && d.Revision.OriginalDocumentID != "" {
		return d.Revision.OriginalDocumentID
	}
	return d.ID
}
