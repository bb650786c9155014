package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"document-routing-api/utils"
)

// QRPayload is the text carried by a document's QR code. Only DocumentID is
// trusted when a scan is processed; the rest is informational for scanners.
type QRPayload struct {
	DocumentID   string    `json:"documentId"`
	Title        string    `json:"title"`
	Workflow     Workflow  `json:"workflow"`
	CurrentStep  int       `json:"currentStep"`
	ExpectedRole string    `json:"expectedRole"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int       `json:"version"`
}

// NewQRPayload builds the payload describing doc's current position.
func NewQRPayload(doc *Document) QRPayload {
	return QRPayload{
		DocumentID:   doc.ID,
		Title:        doc.Title,
		Workflow:     doc.Workflow,
		CurrentStep:  doc.CurrentStepIndex,
		ExpectedRole: expectedRole(doc),
		CreatedAt:    doc.CreatedAt,
		Version:      doc.Version,
	}
}

func expectedRole(doc *Document) string {
	switch doc.State.Tracking {
	case TrackingNew, TrackingReadyForPickup, TrackingPickedUp:
		return "courier"
	case TrackingDelivered, TrackingReceived:
		if doc.Workflow == WorkflowDrop {
			return "recipient"
		}
		return "approver"
	}
	return "admin"
}

// Encode serializes the payload as QR text.
func (p QRPayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr payload: %w", err)
	}
	return string(raw), nil
}

// DecodeQRPayload parses scanned QR text.
func DecodeQRPayload(text string) (QRPayload, error) {
	var p QRPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return QRPayload{}, utils.Validationf("invalid qr payload: %v", err)
	}
	if strings.TrimSpace(p.DocumentID) == "" {
		return QRPayload{}, utils.Validationf("invalid qr payload: documentId is missing")
	}
	return p, nil
}
