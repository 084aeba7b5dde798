// Package permission implements per-entity access control for stardust.
//
// Every file and group carries a Spec: either public (anyone may access)
// or restricted to an explicit set of subject identifiers. Specs arrive
// from callers in a legacy wire form - a JSON array of subject strings -
// and are decoded exactly once, at the boundary, into the tagged Spec
// representation. Malformed input is never treated as public: decoding
// fails closed.
package permission

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/integrable/stardust/pkg/identity"
)

// ErrInvalidSpec indicates a caller-supplied permission spec is not a JSON
// array of subject strings, or does not include the caller's own subject.
var ErrInvalidSpec = errors.New("invalid permission spec")

// Spec is the access control specification for a file or group.
//
// The zero value is public. A restricted spec holds the ordered list of
// subjects allowed to access the entity; admins always pass regardless.
type Spec struct {
	// Restricted distinguishes an explicit subject list from public
	// access. An empty Subjects list with Restricted set denies all
	// non-admin callers.
	Restricted bool `json:"restricted"`

	// Subjects is the ordered list of allowed subject identifiers.
	Subjects []string `json:"subjects,omitempty"`
}

// Public returns a spec granting access to anyone.
func Public() Spec {
	return Spec{}
}

// RestrictedTo returns a spec limiting access to the given subjects.
func RestrictedTo(subjects ...string) Spec {
	return Spec{Restricted: true, Subjects: subjects}
}

// IsPublic reports whether the spec grants access to anyone.
func (s Spec) IsPublic() bool {
	return !s.Restricted
}

// Parse decodes the legacy wire form of a permission spec: a JSON array of
// subject strings, e.g. ["alice","bob"].
//
// An empty or all-whitespace raw value means no spec was supplied and
// yields a public Spec. Anything else must decode to a list of strings;
// a JSON object, a bare string, or a list holding non-string elements
// fails with ErrInvalidSpec (fail-closed, never "public").
func Parse(raw string) (Spec, error) {
	if strings.TrimSpace(raw) == "" {
		return Public(), nil
	}

	var subjects []string
	if err := json.Unmarshal([]byte(raw), &subjects); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	return RestrictedTo(subjects...), nil
}

// CanAccess decides whether the caller may access an entity guarded by
// spec.
//
// Public specs admit everyone. Admin-capable callers pass regardless of
// the spec. Otherwise the caller's subject must appear in the subject
// list.
func CanAccess(caller identity.Identity, spec Spec) bool {
	if spec.IsPublic() {
		return true
	}

	if caller.IsAdmin() {
		return true
	}

	return lo.Contains(spec.Subjects, caller.Subject)
}

// Validate checks a caller-supplied spec before it is stored.
//
// A restricted spec must include the caller's own subject so a writer
// cannot lock themselves out of an entity they just created. Public specs
// are always valid.
func Validate(caller identity.Identity, spec Spec) error {
	if spec.IsPublic() {
		return nil
	}

	if !lo.Contains(spec.Subjects, caller.Subject) {
		return fmt.Errorf("%w: caller %q not in subject list", ErrInvalidSpec, caller.Subject)
	}

	return nil
}
