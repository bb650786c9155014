package services

import (
	"context"
	"errors"
	"fmt"

	"document-routing-api/models"
	"document-routing-api/utils"
	"document-routing-api/workflow"

	"gorm.io/gorm"
)

// DocumentStore is the persistence gateway. Get must return a fully
// materialized document, action history and steps included, and Update must
// receive the complete post-transition document.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	ListForRole(ctx context.Context, actor workflow.Actor) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error

	// MaxRevisionNumber returns the highest revision number in the chain rooted
	// at rootID, 0 when the chain has no revisions.
	MaxRevisionNumber(ctx context.Context, rootID string) (int, error)
	// SaveRevision creates revised and updates original atomically.
	SaveRevision(ctx context.Context, revised, original *models.Document) error
}

// GormDocumentStore keeps one documents row per document. Steps, history and
// revision live in JSON columns.
type GormDocumentStore struct {
	db *gorm.DB
}

// NewGormDocumentStore returns a store backed by db.
func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db}
}

func (s *GormDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	return create(s.db.WithContext(ctx), doc)
}

func create(tx *gorm.DB, doc *models.Document) error {
	if doc.Version == 0 {
		doc.Version = 1
	}
	if err := tx.Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *GormDocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", utils.ErrNotFound, id)
		}
		return nil, err
	}
	return &doc, nil
}

// Update writes doc if nobody else has since it was read, bumping Version.
func (s *GormDocumentStore) Update(ctx context.Context, doc *models.Document) error {
	return update(s.db.WithContext(ctx), doc)
}

func update(tx *gorm.DB, doc *models.Document) error {
	prev := doc.Version
	doc.Version = prev + 1

	result := tx.Model(doc).Where("version = ?", prev).Select("*").Updates(doc)
	if result.Error != nil {
		doc.Version = prev
		return result.Error
	}
	if result.RowsAffected == 0 {
		doc.Version = prev
		return fmt.Errorf("%w: %s at version %d", utils.ErrVersionConflict, doc.ID, prev)
	}
	return nil
}

func (s *GormDocumentStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Document{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", utils.ErrNotFound, id)
	}
	return nil
}

// ListForRole narrows candidates in SQL and applies workflow.Visible for the
// exact per-role contract.
func (s *GormDocumentStore) ListForRole(ctx context.Context, actor workflow.Actor) ([]*models.Document, error) {
	email := utils.NormalizeEmail(actor.Email)
	query := s.db.WithContext(ctx).Model(&models.Document{})

	switch actor.Role.(type) {
	case workflow.Originator:
		query = query.Where("created_by = ?", email)
	case workflow.Recipient:
		query = query.Where("workflow = ? AND recipient_email = ?", models.WorkflowDrop, email)
	case workflow.Approver:
		query = query.Where("workflow = ? AND tracking_status IN ?", models.WorkflowFlow,
			[]models.TrackingStatus{models.TrackingDelivered, models.TrackingReceived})
	case workflow.Courier:
		query = query.Where("tracking_status IN ?",
			[]models.TrackingStatus{models.TrackingNew, models.TrackingReadyForPickup, models.TrackingPickedUp})
	default:
		return nil, utils.Validationf("no listing for role of %s", email)
	}

	var rows []models.Document
	if err := query.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*models.Document, 0, len(rows))
	for i := range rows {
		if workflow.Visible(&rows[i], actor) {
			docs = append(docs, &rows[i])
		}
	}
	return docs, nil
}

func (s *GormDocumentStore) MaxRevisionNumber(ctx context.Context, rootID string) (int, error) {
	var highest int
	err := s.db.WithContext(ctx).Model(&models.Document{}).
		Select("COALESCE(MAX(revision_number), 0)").
		Where("revision_root_id = ?", rootID).
		Scan(&highest).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read revision chain %s: %w", rootID, err)
	}
	return highest, nil
}

func (s *GormDocumentStore) SaveRevision(ctx context.Context, revised, original *models.Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := create(tx, revised); err != nil {
			return err
		}
		return update(tx, original)
	})
}
