package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"document-routing-api/models"

	"gorm.io/gorm"
)

// legacyStatusRow is a documents row written before the dual-status columns.
type legacyStatusRow struct {
	ID     string `gorm:"column:id"`
	Status string `gorm:"column:status"`
}

// StatusFix is the dual status resolved for one legacy row.
type StatusFix struct {
	DocumentID string
	Legacy     string
	State      models.State
}

// NormalizeReport summarizes a normalization run.
type NormalizeReport struct {
	Scanned int
	Fixes   []StatusFix
}

// StatusNormalizer backfills document_status/tracking_status from the legacy
// status column.
type StatusNormalizer struct {
	db *gorm.DB
}

// NewStatusNormalizer returns a normalizer using db.
func NewStatusNormalizer(db *gorm.DB) *StatusNormalizer {
	return &StatusNormalizer{db: db}
}

// Run resolves every row lacking a tracking status. Any unknown legacy status
// aborts the run before anything is written. With dryRun nothing is written.
func (n *StatusNormalizer) Run(ctx context.Context, dryRun bool) (*NormalizeReport, error) {
	var rows []legacyStatusRow
	err := n.db.WithContext(ctx).
		Table(models.Document{}.TableName()).
		Select("id", "status").
		Where("tracking_status IS NULL OR tracking_status = ''").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load legacy rows: %w", err)
	}

	fixes, err := planStatusFixes(rows)
	if err != nil {
		return nil, err
	}
	report := &NormalizeReport{Scanned: len(rows), Fixes: fixes}
	if dryRun || len(fixes) == 0 {
		return report, nil
	}

	err = n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fix := range fixes {
			var verdict interface{}
			if fix.State.Verdict != models.VerdictNone {
				verdict = string(fix.State.Verdict)
			}
			result := tx.Table(models.Document{}.TableName()).
				Where("id = ?", fix.DocumentID).
				Updates(map[string]interface{}{
					"document_status": verdict,
					"tracking_status": string(fix.State.Tracking),
				})
			if result.Error != nil {
				return fmt.Errorf("failed to update document %s: %w", fix.DocumentID, result.Error)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// planStatusFixes maps every row, collecting all unknown statuses into one error.
func planStatusFixes(rows []legacyStatusRow) ([]StatusFix, error) {
	fixes := make([]StatusFix, 0, len(rows))
	var unknown []error
	for _, row := range rows {
		state, err := models.ParseLegacyStatus(row.Status)
		if err != nil {
			unknown = append(unknown, fmt.Errorf("document %s: %w", row.ID, err))
			continue
		}
		fixes = append(fixes, StatusFix{DocumentID: row.ID, Legacy: strings.TrimSpace(row.Status), State: state})
	}
	if len(unknown) > 0 {
		return nil, errors.Join(unknown...)
	}
	return fixes, nil
}
