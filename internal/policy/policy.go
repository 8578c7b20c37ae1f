// Package policy centralizes role-based capability checks. Handlers consult
// these instead of scattering role conditionals per endpoint.
package policy

import "backend/internal/models"

// CanViewDetection reports whether a user may see a given detection.
// Investigators are limited to detections assigned to them plus anything
// escalated; every other role with detection access sees all rows.
func CanViewDetection(user *models.User, det *models.DetectionResult) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleAnalyst, models.RoleViewer:
		return true
	case models.RoleInvestigator:
		if det.Status == models.DetectionEscalated {
			return true
		}
		return det.AssignedTo != nil && *det.AssignedTo == user.ID
	case models.RoleMonitor:
		return false
	}
	return false
}

// CanReview reports whether a user may review, confirm, or mark detections
// as false positives.
func CanReview(user *models.User) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleAnalyst, models.RoleInvestigator:
		return true
	}
	return false
}

// CanAssign reports whether a user may hand a detection to an investigator.
func CanAssign(user *models.User) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleAnalyst:
		return true
	}
	return false
}

// CanEscalate reports whether a user may escalate or resolve detections.
func CanEscalate(user *models.User) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleInvestigator:
		return true
	}
	return false
}

// CanManageSessions reports whether a user may create and drive monitoring
// sessions and platform connections.
func CanManageSessions(user *models.User) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleMonitor:
		return true
	}
	return false
}

// CanConfigure reports whether a user may manage platforms, patterns, and
// categories.
func CanConfigure(user *models.User) bool {
	return user.Role == models.RoleAdmin
}

// CanViewAnalytics reports whether a user may read rollups and dashboards.
func CanViewAnalytics(user *models.User) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleAnalyst, models.RoleViewer:
		return true
	}
	return false
}
