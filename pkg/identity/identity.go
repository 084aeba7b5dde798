// Package identity defines the caller identity contract for stardust.
//
// An Identity is the already-authenticated view of a caller: a subject
// string plus the set of capabilities granted by the authentication layer.
// The storage orchestrator and permission evaluator consume identities;
// they never parse tokens themselves. Token verification lives in token.go
// and is used only by the transport adapter.
package identity

// Capability is a coarse-grained right granted to a caller.
type Capability string

const (
	// CapabilityWriter allows mutating operations (upload, update, delete).
	CapabilityWriter Capability = "writer"

	// CapabilityAdmin bypasses per-entity permission specs.
	CapabilityAdmin Capability = "admin"
)

// Identity is an authenticated caller.
type Identity struct {
	// Subject is the caller's unique subject identifier.
	Subject string

	// Capabilities is the set of capabilities granted to the caller.
	Capabilities map[Capability]bool
}

// New creates an Identity with the given subject and capabilities.
func New(subject string, caps ...Capability) Identity {
	set := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		set[c] = true
	}
	return Identity{Subject: subject, Capabilities: set}
}

// Has reports whether the identity holds the given capability.
func (i Identity) Has(c Capability) bool {
	return i.Capabilities[c]
}

// IsAdmin reports whether the identity holds the admin capability.
func (i Identity) IsAdmin() bool {
	return i.Has(CapabilityAdmin)
}
