package services

import (
	"context"
	"log"
	"sync"

	"document-routing-api/models"
	"document-routing-api/utils"
	"document-routing-api/workflow"

	"github.com/google/uuid"
)

// DocumentService is the engine's caller: it authorizes, executes and persists
// one action at a time per document.
type DocumentService struct {
	store    DocumentStore
	engine   *workflow.Engine
	notifier Notifier
	qrKey    []byte
	locks    *documentLocks
}

// NewDocumentService wires a service. notifier may be nil; qrKey signs QR
// payloads and may be empty to disable tagging.
func NewDocumentService(store DocumentStore, engine *workflow.Engine, notifier Notifier, qrKey []byte) *DocumentService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &DocumentService{
		store:    store,
		engine:   engine,
		notifier: notifier,
		qrKey:    qrKey,
		locks:    newDocumentLocks(),
	}
}

// CreateDocumentInput is a new document as submitted by its originator.
type CreateDocumentInput struct {
	Title          string
	Type           string
	Description    string
	Workflow       models.Workflow
	Approvers      []string
	RecipientEmail string
	// Draft keeps the document at NEW until the first courier scan releases it.
	Draft bool
}

// CreateDocument validates input and persists a new document with its create
// audit record.
func (s *DocumentService) CreateDocument(ctx context.Context, actor workflow.Actor, input CreateDocumentInput) (*models.Document, error) {
	if _, ok := actor.Role.(workflow.Originator); !ok {
		return nil, utils.Deniedf("only an admin may create documents")
	}
	title := utils.SanitizeInput(input.Title)
	if title == "" {
		return nil, utils.Validationf("title is required")
	}

	doc := &models.Document{
		ID:          uuid.NewString(),
		Title:       title,
		Type:        utils.SanitizeInput(input.Type),
		Description: utils.SanitizeInput(input.Description),
		Workflow:    input.Workflow,
		CreatedBy:   utils.NormalizeEmail(actor.Email),
	}

	switch input.Workflow {
	case models.WorkflowFlow:
		approvers, err := utils.NormalizeApproverList(input.Approvers)
		if err != nil {
			return nil, err
		}
		doc.ApprovalSteps = make([]models.ApprovalStep, len(approvers))
		for i, email := range approvers {
			doc.ApprovalSteps[i] = models.ApprovalStep{Order: i + 1, ApproverEmail: email, Status: models.StepPending}
		}
	case models.WorkflowDrop:
		if len(input.Approvers) > 0 {
			return nil, utils.Validationf("direct deliveries have no approvers")
		}
		recipient := utils.NormalizeEmail(input.RecipientEmail)
		if !utils.ValidateEmail(recipient) {
			return nil, utils.Validationf("invalid recipient email %q", input.RecipientEmail)
		}
		doc.RecipientEmail = recipient
		doc.ApprovalSteps = []models.ApprovalStep{}
	default:
		return nil, utils.Validationf("unknown workflow %q", input.Workflow)
	}

	doc.State = models.State{Verdict: models.VerdictNone, Tracking: models.TrackingReadyForPickup}
	if input.Draft {
		doc.State.Tracking = models.TrackingNew
	}
	doc.CreatedAt = s.engine.Now()
	doc.UpdatedAt = doc.CreatedAt
	doc.ActionHistory = []models.AuditRecord{s.engine.NewDocumentRecord(doc, actor)}

	if err := s.store.Create(ctx, doc); err != nil {
		return nil, err
	}
	log.Printf("document %s created by %s (%s)", doc.ID, doc.CreatedBy, doc.Workflow)
	return doc, nil
}

// GetDocument loads one document actor may view.
func (s *DocumentService) GetDocument(ctx context.Context, actor workflow.Actor, id string) (*models.Document, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !workflow.CanView(doc, actor) {
		return nil, utils.Deniedf("%s may not view document %s", actor, id)
	}
	return doc, nil
}

// GetHistory returns a document's audit trail, oldest first.
func (s *DocumentService) GetHistory(ctx context.Context, actor workflow.Actor, id string) ([]models.AuditRecord, error) {
	doc, err := s.GetDocument(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return doc.ActionHistory, nil
}

// ListDocuments returns the documents actor's role should see now.
func (s *DocumentService) ListDocuments(ctx context.Context, actor workflow.Actor) ([]*models.Document, error) {
	return s.store.ListForRole(ctx, actor)
}

// ActionInput is a caller's proposed action.
type ActionInput struct {
	DocumentID string
	Action     models.Action
	Comments   string
	// AcceptSubstitute applies a Substitute decision instead of returning it.
	AcceptSubstitute bool
}

// ActionResult reports what happened. Record is nil when nothing was written,
// which only happens for an unaccepted Substitute.
type ActionResult struct {
	Document *models.Document
	Record   *models.AuditRecord
	Decision workflow.Decision
}

// SubmitAction validates, authorizes, executes and persists one action.
func (s *DocumentService) SubmitAction(ctx context.Context, actor workflow.Actor, input ActionInput) (*ActionResult, error) {
	req := workflow.ActionRequest{
		DocumentID: input.DocumentID,
		Action:     input.Action,
		Actor:      actor,
		Comments:   input.Comments,
	}
	if err := workflow.ValidateRequest(req); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(input.DocumentID)
	defer unlock()

	doc, err := s.store.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}

	decision := workflow.Authorize(doc, req)
	switch decision.Outcome {
	case workflow.Deny:
		return nil, decision.Err(req.Action)
	case workflow.Substitute:
		if !input.AcceptSubstitute {
			return &ActionResult{Document: doc, Decision: decision}, nil
		}
		req.Action = decision.Action
	}

	next, record, err := s.engine.Execute(doc, req)
	if err != nil {
		log.Printf("document %s: %s by %s failed: %v", doc.ID, req.Action, actor, err)
		return nil, err
	}
	if err := s.store.Update(ctx, next); err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(persistentContext(ctx), next, record); err != nil {
		log.Printf("document %s: notification for %s failed: %v", next.ID, record.Action, err)
	}
	return &ActionResult{Document: next, Record: &record, Decision: decision}, nil
}

// ScanAction submits an action named by a scanned QR payload. Only the payload's
// document id is used; tag is checked when the service signs payloads.
func (s *DocumentService) ScanAction(ctx context.Context, actor workflow.Actor, payload, tag string, input ActionInput) (*ActionResult, error) {
	if len(s.qrKey) > 0 && !utils.VerifyPayload(s.qrKey, payload, tag) {
		return nil, utils.Validationf("qr payload tag does not match")
	}
	decoded, err := models.DecodeQRPayload(payload)
	if err != nil {
		return nil, err
	}
	input.DocumentID = decoded.DocumentID
	return s.SubmitAction(ctx, actor, input)
}

// QRCode returns the QR text for a document and its tag (empty when unsigned).
func (s *DocumentService) QRCode(ctx context.Context, actor workflow.Actor, id string) (string, string, error) {
	doc, err := s.GetDocument(ctx, actor, id)
	if err != nil {
		return "", "", err
	}
	text, err := models.NewQRPayload(doc).Encode()
	if err != nil {
		return "", "", err
	}
	if len(s.qrKey) == 0 {
		return text, "", nil
	}
	tag, err := utils.SignPayload(s.qrKey, text)
	if err != nil {
		return "", "", err
	}
	return text, tag, nil
}

// RevisionInput describes a clone or resubmission.
type RevisionInput struct {
	Approvers         []string
	ResetAllApprovals bool
	Reason            string
	Title             *string
	Type              *string
	Description       *string
}

// CloneDocument derives an edited copy that restarts at NEW.
func (s *DocumentService) CloneDocument(ctx context.Context, actor workflow.Actor, id string, input RevisionInput) (*workflow.RevisionResult, error) {
	return s.revise(ctx, actor, id, input, s.engine.CloneWithEdits)
}

// ResubmitDocument derives a revision of a rejected document that resumes at
// READY_FOR_PICKUP.
func (s *DocumentService) ResubmitDocument(ctx context.Context, actor workflow.Actor, id string, input RevisionInput) (*workflow.RevisionResult, error) {
	return s.revise(ctx, actor, id, input, s.engine.Resubmit)
}

type reviseFunc func(*models.Document, workflow.RevisionRequest, int) (*workflow.RevisionResult, error)

// revise locks the chain root, then the source document, so revisions within
// one chain claim revision numbers in turn. No other path holds two locks.
func (s *DocumentService) revise(ctx context.Context, actor workflow.Actor, id string, input RevisionInput, derive reviseFunc) (*workflow.RevisionResult, error) {
	source, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	root := source.ChainRootID()
	unlockRoot := s.locks.lock(root)
	defer unlockRoot()
	if root != id {
		unlock := s.locks.lock(id)
		defer unlock()
	}

	original, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	chainMax, err := s.store.MaxRevisionNumber(ctx, original.ChainRootID())
	if err != nil {
		return nil, err
	}

	result, err := derive(original, workflow.RevisionRequest{
		Approvers:         input.Approvers,
		ResetAllApprovals: input.ResetAllApprovals,
		Reason:            input.Reason,
		RevisedBy:         actor,
		Title:             input.Title,
		Type:              input.Type,
		Description:       input.Description,
	}, chainMax)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveRevision(ctx, result.Document, result.Original); err != nil {
		return nil, err
	}
	log.Printf("document %s: revision %d created as %s",
		original.ID, result.Document.Revision.RevisionNumber, result.Document.ID)
	return result, nil
}

// DeleteDocument removes a document. Only its creator may delete it.
func (s *DocumentService) DeleteDocument(ctx context.Context, actor workflow.Actor, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, ok := actor.Role.(workflow.Originator); !ok || doc.CreatedBy != utils.NormalizeEmail(actor.Email) {
		return utils.Deniedf("only the creator may delete document %s", id)
	}
	return s.store.Delete(ctx, id)
}

// documentLocks serializes writers per document id inside this process. The
// store's version check covers writers in other processes.
type documentLocks struct {
	mu    sync.Mutex
	locks map[string]*documentLock
}

type documentLock struct {
	mu   sync.Mutex
	refs int
}

func newDocumentLocks() *documentLocks {
	return &documentLocks{locks: make(map[string]*documentLock)}
}

func (l *documentLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &documentLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
