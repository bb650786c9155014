package utils

import (
	"strings"
)

const (
	// Canonical legacy status labels, as written by documents that predate the
	// dual-status scheme.
	LegacyDraft             = "DRAFT"
	LegacyReadyForPickup    = "READY_FOR_PICKUP"
	LegacyPartiallyApproved = "PARTIALLY_APPROVED"
	LegacyRejected          = "REJECTED"
	LegacyInTransit         = "IN_TRANSIT"
	LegacyDelivered         = "DELIVERED"
	LegacyPendingApproval   = "PENDING_APPROVAL"
	LegacyCompleted         = "COMPLETED"
	LegacyCancelled         = "CANCELLED"
)

var (
	legacyStatusSynonyms = map[string][]string{
		LegacyDraft: {
			"draft",
			"new",
			"created",
		},
		LegacyReadyForPickup: {
			"ready",
			"ready_for_pickup",
			"awaiting_pickup",
			"released",
		},
		LegacyPartiallyApproved: {
			"partially_approved",
			"accepted",
			"in_review",
		},
		LegacyRejected: {
			"rejected",
			"returned",
		},
		LegacyInTransit: {
			"in_transit",
			"picked_up",
			"pickedup",
		},
		LegacyDelivered: {
			"delivered",
		},
		LegacyPendingApproval: {
			"pending_approval",
			"pending",
			"received",
		},
		LegacyCompleted: {
			"completed",
			"approved",
			"closed",
			"done",
		},
		LegacyCancelled: {
			"cancelled",
			"canceled",
		},
	}
	legacyAliasToCanonical = buildLegacyAliasMap()
)

func buildLegacyAliasMap() map[string]string {
	aliasMap := make(map[string]string)
	for canonical, synonyms := range legacyStatusSynonyms {
		if key := normalizeLegacyStatus(canonical); key != "" {
			aliasMap[key] = canonical
		}
		for _, alias := range synonyms {
			if key := normalizeLegacyStatus(alias); key != "" {
				aliasMap[key] = canonical
			}
		}
	}
	return aliasMap
}

// normalizeLegacyStatus folds case and treats spaces and dashes as underscores.
func normalizeLegacyStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

// CanonicalLegacyStatus resolves a raw legacy status (any known alias) to its
// canonical label. The second result is false when the status is unknown.
func CanonicalLegacyStatus(raw string) (string, bool) {
	key := normalizeLegacyStatus(raw)
	if key == "" {
		return "", false
	}
	canonical, ok := legacyAliasToCanonical[key]
	return canonical, ok
}

// LegacyStatuses returns every canonical legacy label.
func LegacyStatuses() []string {
	return []string{
		LegacyDraft,
		LegacyReadyForPickup,
		LegacyPartiallyApproved,
		LegacyRejected,
		LegacyInTransit,
		LegacyDelivered,
		LegacyPendingApproval,
		LegacyCompleted,
		LegacyCancelled,
	}
}
