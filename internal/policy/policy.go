package policy

import "github.com/civiops/helpdesk-service/internal/domain"

// Action enumerates the capabilities an actor can request.
type Action string

const (
	ActionCreateTicket   Action = "ticket:create"
	ActionViewTicket     Action = "ticket:view"
	ActionAssignTicket   Action = "ticket:assign"
	ActionUpdateStatus   Action = "ticket:update_status"
	ActionConfirmClosure Action = "ticket:confirm_closure"
	ActionManageIdentity Action = "identity:manage"
	ActionManageOrg      Action = "organization:manage"
	ActionExportReport   Action = "report:export"
	ActionRunSweep       Action = "maintenance:sweep"
	ActionManageStock    Action = "inventory:manage"
)

// Resource carries the ownership facts a decision depends on. Zero values
// mean the fact does not apply to the action at hand.
type Resource struct {
	// OrganizationID scopes the resource; nil for provider-side resources.
	OrganizationID *string
	// CreatorID is the identity that filed a ticket.
	CreatorID string
	// TechnicianID is the technician assigned to a ticket, if any.
	TechnicianID *string
	// SubjectRole is the role of the identity being managed, where the
	// resource itself is an identity.
	SubjectRole domain.Role
}

// Decision is the result of an authorization check. Denials carry a reason so
// the boundary can report them distinctly from not-found, never as a silent
// redirect.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize is a pure decision: (actor role, action, ownership) to allow or
// deny. Rules are evaluated in order, first match wins, default deny.
func Authorize(actor *domain.Identity, action Action, res Resource) Decision {
	if actor == nil {
		return deny("no authenticated identity")
	}

	// Rule 1: provider admins may do anything.
	if actor.Role == domain.RoleProviderAdmin {
		return allow()
	}

	switch actor.Role {
	case domain.RoleReferent:
		return authorizeReferent(actor, action, res)
	case domain.RoleSitePersonnel:
		return authorizeSitePersonnel(actor, action, res)
	case domain.RoleTechnician:
		return authorizeTechnician(actor, action, res)
	}
	return deny("role has no granted capabilities")
}

// Rule 2: referents manage site-personnel accounts and tickets inside their
// own organization only.
func authorizeReferent(actor *domain.Identity, action Action, res Resource) Decision {
	if !sameOrganization(actor.OrganizationID, res.OrganizationID) {
		return deny("resource belongs to another organization")
	}
	switch action {
	case ActionManageIdentity:
		if res.SubjectRole != domain.RoleSitePersonnel && res.SubjectRole != "" {
			return deny("referents manage site-personnel accounts only")
		}
		return allow()
	case ActionCreateTicket, ActionViewTicket:
		return allow()
	case ActionConfirmClosure:
		if res.CreatorID == actor.ID {
			return allow()
		}
		return deny("only the ticket creator may confirm closure")
	case ActionExportReport:
		return allow()
	}
	return deny("action not granted to referents")
}

// Rule 3: site personnel file tickets for themselves and see only their own.
func authorizeSitePersonnel(actor *domain.Identity, action Action, res Resource) Decision {
	switch action {
	case ActionCreateTicket:
		return allow()
	case ActionViewTicket, ActionConfirmClosure:
		if res.CreatorID == actor.ID {
			return allow()
		}
		return deny("ticket was filed by another identity")
	}
	return deny("action not granted to site personnel")
}

// Rule 4: technicians act only on tickets assigned to them, and closure
// confirmation stays with the creator even then.
func authorizeTechnician(actor *domain.Identity, action Action, res Resource) Decision {
	assigned := res.TechnicianID != nil && *res.TechnicianID == actor.ID
	switch action {
	case ActionViewTicket, ActionUpdateStatus:
		if assigned {
			return allow()
		}
		return deny("ticket is not assigned to this technician")
	case ActionConfirmClosure:
		return deny("closure is confirmed by the creator, not the technician")
	}
	return deny("action not granted to technicians")
}

func sameOrganization(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}
