package models

import (
	"encoding/json"
	"fmt"

	"document-routing-api/utils"
)

// DocumentStatus is the approval verdict axis. The zero value means no verdict
// currently applies.
type DocumentStatus string

const (
	VerdictNone     DocumentStatus = ""
	VerdictPending  DocumentStatus = "PENDING"
	VerdictAccepted DocumentStatus = "ACCEPTED"
	VerdictRejected DocumentStatus = "REJECTED"
)

// TrackingStatus is the physical checkpoint axis.
type TrackingStatus string

const (
	TrackingNew            TrackingStatus = "NEW"
	TrackingReadyForPickup TrackingStatus = "READY_FOR_PICKUP"
	TrackingPickedUp       TrackingStatus = "PICKED_UP"
	TrackingDelivered      TrackingStatus = "DELIVERED"
	TrackingReceived       TrackingStatus = "RECEIVED"
	TrackingCompleted      TrackingStatus = "COMPLETED"
	TrackingRejected       TrackingStatus = "REJECTED"
)

// State is the authoritative (documentStatus, trackingStatus) pair.
type State struct {
	Verdict  DocumentStatus `gorm:"column:document_status;type:varchar(16)" json:"document_status"`
	Tracking TrackingStatus `gorm:"column:tracking_status;type:varchar(24);index" json:"tracking_status"`
}

var legacyToState = map[string]State{
	utils.LegacyDraft:             {VerdictNone, TrackingNew},
	utils.LegacyReadyForPickup:    {VerdictNone, TrackingReadyForPickup},
	utils.LegacyPartiallyApproved: {VerdictAccepted, TrackingReadyForPickup},
	utils.LegacyRejected:          {VerdictRejected, TrackingReadyForPickup},
	utils.LegacyInTransit:         {VerdictNone, TrackingPickedUp},
	utils.LegacyDelivered:         {VerdictNone, TrackingDelivered},
	utils.LegacyPendingApproval:   {VerdictPending, TrackingReceived},
	utils.LegacyCompleted:         {VerdictNone, TrackingCompleted},
	utils.LegacyCancelled:         {VerdictNone, TrackingRejected},
}

// ParseLegacyStatus maps a legacy single-status string onto the dual status.
// An unrecognized status is an error wrapping utils.ErrUnknownStatus.
func ParseLegacyStatus(raw string) (State, error) {
	canonical, ok := utils.CanonicalLegacyStatus(raw)
	if !ok {
		return State{}, fmt.Errorf("%w: %q", utils.ErrUnknownStatus, raw)
	}
	state, ok := legacyToState[canonical]
	if !ok {
		return State{}, fmt.Errorf("%w: %q has no dual mapping", utils.ErrUnknownStatus, canonical)
	}
	return state, nil
}

// Legacy projects the pair to its legacy label. Pairs outside the canonical
// vocabulary project by their tracking axis.
func (s State) Legacy() string {
	switch s.Tracking {
	case TrackingNew:
		return utils.LegacyDraft
	case TrackingReadyForPickup:
		switch s.Verdict {
		case VerdictAccepted:
			return utils.LegacyPartiallyApproved
		case VerdictRejected:
			return utils.LegacyRejected
		}
		return utils.LegacyReadyForPickup
	case TrackingPickedUp:
		return utils.LegacyInTransit
	case TrackingDelivered:
		return utils.LegacyDelivered
	case TrackingReceived:
		return utils.LegacyPendingApproval
	case TrackingCompleted:
		return utils.LegacyCompleted
	case TrackingRejected:
		return utils.LegacyCancelled
	}
	return ""
}

// Terminal reports whether no further workflow action applies.
func (s State) Terminal() bool {
	return s.Tracking == TrackingCompleted || s.Tracking == TrackingRejected
}

// MarshalJSON writes VerdictNone as null, matching the document encoding.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Verdict  *DocumentStatus `json:"document_status"`
		Tracking TrackingStatus  `json:"tracking_status"`
	}{s.verdictOrNil(), s.Tracking})
}

func (s State) verdictOrNil() *DocumentStatus {
	if s.Verdict == VerdictNone {
		return nil
	}
	v := s.Verdict
	return &v
}

func (s State) String() string {
	verdict := string(s.Verdict)
	if verdict == "" {
		verdict = "null"
	}
	return fmt.Sprintf("(%s, %s)", verdict, s.Tracking)
}
