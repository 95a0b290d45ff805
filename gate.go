package shopsession

import (
	"fmt"
	"strings"
)

// Route destinations handed back by the gate. These are the role homes a UI
// redirects to after a successful login.
const (
	DestinationHome      = "/"
	DestinationCustomer  = "/customer"
	DestinationSeller    = "/seller"
	DestinationDeliverer = "/deliverer"
	DestinationAdmin     = "/admin"
)

// Decision is the outcome of the role/approval gate. Exactly one of
// Destination (Allowed=true) or Reason (Allowed=false) is meaningful.
type Decision struct {
	Allowed     bool
	Destination string
	Reason      string
}

// Decide maps a role and approval status to an allowed destination or a
// rejection. It is pure: no I/O, no clock, no engine state.
//
// Customers and admins are never gated on approval. Sellers and deliverers
// pass only with an approved profile; pending, rejected, missing, and unknown
// statuses all reject. An unknown role is accepted toward the generic home for
// forward compatibility — role comparison is exact-string, so this default can
// never bypass the seller/deliverer checks.
func Decide(role Role, status ApprovalStatus, reason string) Decision {
	switch role {
	case RoleCustomer:
		return Decision{Allowed: true, Destination: DestinationCustomer}
	case RoleAdmin:
		return Decision{Allowed: true, Destination: DestinationAdmin}
	case RoleSeller, RoleDeliverer:
		if status != StatusApproved {
			return rejectFor(status, reason)
		}
		if role == RoleSeller {
			return Decision{Allowed: true, Destination: DestinationSeller}
		}
		return Decision{Allowed: true, Destination: DestinationDeliverer}
	default:
		return Decision{Allowed: true, Destination: DestinationHome}
	}
}

func rejectFor(status ApprovalStatus, reason string) Decision {
	switch status {
	case StatusPending:
		return Decision{Reason: "pending approval"}
	case StatusRejected:
		if reason != "" {
			return Decision{Reason: "rejected: " + reason}
		}
		return Decision{Reason: "rejected"}
	default:
		return Decision{Reason: "not approved"}
	}
}

// RejectionError converts a rejecting [Decision] into the sentinel error the
// engine surfaces. Accepting decisions map to nil.
func RejectionError(d Decision) error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case "pending approval":
		return ErrApprovalPending
	case "not approved":
		return ErrNotApproved
	default:
		if detail, ok := strings.CutPrefix(d.Reason, "rejected: "); ok {
			return fmt.Errorf("%w: %s", ErrApprovalRejected, detail)
		}
		return ErrApprovalRejected
	}
}

// RequiredRole maps a protected path prefix to the role it demands. The
// boolean is false for paths outside the guarded set.
func RequiredRole(prefix string) (Role, bool) {
	switch prefix {
	case DestinationCustomer:
		return RoleCustomer, true
	case DestinationSeller:
		return RoleSeller, true
	case DestinationDeliverer:
		return RoleDeliverer, true
	case DestinationAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}
