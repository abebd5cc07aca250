package services

import (
	"github.com/rmejia/cobranza-api/internal/models"
)

// Capability is an operation class a role may be granted.
type Capability string

const (
	CapabilityView              Capability = "view"
	CapabilityVerifyAndComplete Capability = "verify-and-complete"
	CapabilityDelete            Capability = "delete"
	CapabilityExport            Capability = "export"
)

var roleCapabilities = map[string][]Capability{
	models.RoleAdmin:     {CapabilityView, CapabilityVerifyAndComplete, CapabilityDelete, CapabilityExport},
	models.RoleManager:   {CapabilityView, CapabilityVerifyAndComplete, CapabilityExport},
	models.RoleCollector: {CapabilityView, CapabilityVerifyAndComplete},
	models.RoleViewer:    {CapabilityView},
}

// RoleCan reports whether a role carries a capability.
func RoleCan(role string, cap Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

// Actor identifies the authenticated caller of a lifecycle operation. The
// engine holds no ambient caller state; every operation receives its actor
// explicitly.
type Actor struct {
	ID   uint
	Name string
	Role string
}

// Can reports whether the actor's role carries a capability.
func (a Actor) Can(cap Capability) bool {
	return RoleCan(a.Role, cap)
}

// requireCapability rejects the operation before any validation or I/O when
// the caller lacks the needed capability.
func requireCapability(actor Actor, cap Capability) error {
	if !actor.Can(cap) {
		return &AuthorizationError{Capability: string(cap)}
	}
	return nil
}
