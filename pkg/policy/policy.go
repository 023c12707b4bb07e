package policy

import (
	"strings"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
)

// Policy is an immutable assembly allowlist. Construct once at startup;
// lookups are safe for concurrent use.
type Policy struct {
	exact    map[string]struct{}
	prefixes []string
}

// New builds a policy from allowlist entries. Each entry matches its
// assembly name exactly and acts as a dotted prefix: "HostLink.Hosting"
// also admits "HostLink.Hosting.Redis".
func New(entries []string) *Policy {
	p := &Policy{exact: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		if e == "" {
			continue
		}
		p.exact[e] = struct{}{}
		p.prefixes = append(p.prefixes, e+".")
	}
	return p
}

// FromSurface builds a policy from a capability surface's allowlist.
func FromSurface(s *capability.Surface) *Policy {
	return New(s.Allowlist())
}

// IsAssemblyAllowed reports whether a fresh lookup may target the named
// assembly.
func (p *Policy) IsAssemblyAllowed(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := p.exact[name]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// ValidateAssemblyAccess fails with ErrUnauthorized when the assembly is
// not allowlisted. The error deliberately omits the assembly name;
// callers surface it as not-found anyway.
func (p *Policy) ValidateAssemblyAccess(name string) error {
	if !p.IsAssemblyAllowed(name) {
		return capability.ErrUnauthorized
	}
	return nil
}
