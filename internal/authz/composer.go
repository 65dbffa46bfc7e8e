// Package authz composes a user's effective permissions for one challenge
// from their workspace membership, per-challenge manager assignment, and
// enrollment. Resolution is pure; callers resolve freshly per request and
// never cache a result across a request boundary.
package authz

import (
	"questhub/internal/models"
)

// EffectivePermissions is the composed authorization for one (user, challenge)
// pair. Capabilities are additive: a user can be a manager and a participant
// at the same time, and both capability sets apply.
type EffectivePermissions struct {
	IsAdmin       bool `json:"is_admin"`
	IsManager     bool `json:"is_manager"`
	IsParticipant bool `json:"is_participant"`

	CanManage             bool `json:"can_manage"`
	CanApproveSubmissions bool `json:"can_approve_submissions"`
	CanEnroll             bool `json:"can_enroll"`

	// Role is a composite display label, e.g. "Managing & Enrolled".
	Role string `json:"role"`
}

// Resolve computes effective permissions from the three role signals.
// membership is mandatory; callers without one must be rejected before this
// point. assignment is non-nil only when the user is assigned as a manager
// of this specific challenge. enrollment is non-nil only when the user has
// ever been invited to or enrolled in this challenge. allowSelfEnroll is the
// combined workspace and challenge self-enrollment rule.
func Resolve(membership models.Membership, assignment *models.ChallengeAssignment, enrollment *models.Enrollment, allowSelfEnroll bool) EffectivePermissions {
	perms := EffectivePermissions{
		IsAdmin:   membership.Role == models.MembershipRoleAdmin,
		IsManager: membership.Role == models.MembershipRoleManager || assignment != nil,
	}

	// INVITED alone does not count as participation.
	if enrollment != nil {
		perms.IsParticipant = enrollment.HasParticipated()
	}

	// An admin manages and approves regardless of assignment or enrollment.
	if perms.IsAdmin {
		perms.IsManager = true
	}
	perms.CanManage = perms.IsAdmin || perms.IsManager
	perms.CanApproveSubmissions = perms.IsAdmin || perms.IsManager

	// WITHDRAWN users may re-enroll; ENROLLED and COMPLETED may not.
	activeParticipant := enrollment != nil && enrollment.IsActive()
	perms.CanEnroll = allowSelfEnroll && !activeParticipant

	perms.Role = roleLabel(perms, enrollment)
	return perms
}

func roleLabel(perms EffectivePermissions, enrollment *models.Enrollment) string {
	switch {
	case perms.IsAdmin && perms.IsParticipant:
		return "Admin & Enrolled"
	case perms.IsAdmin:
		return "Admin"
	case perms.IsManager && perms.IsParticipant:
		return "Managing & Enrolled"
	case perms.IsManager:
		return "Managing"
	case perms.IsParticipant:
		return "Enrolled"
	case enrollment != nil && enrollment.Status == models.EnrollmentStatusInvited:
		return "Invited"
	default:
		return "Member"
	}
}

// CanApprove is the single gate for review decisions. The self-approval
// check runs before any capability check and cannot be overridden by role.
func CanApprove(perms EffectivePermissions, ownerID, reviewerID uint) error {
	if reviewerID == ownerID {
		return models.NewForbiddenError("you cannot approve your own submission")
	}
	if !perms.CanApproveSubmissions {
		return models.NewForbiddenError("you do not have permission to review submissions in this challenge")
	}
	return nil
}
