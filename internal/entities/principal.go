package entities

import "fmt"

// Principal represents the authenticated identity attempting an action
// Example: Principal{Name: "alice"}
// The name is an arbitrary Unicode string and is never canonicalized
type Principal struct {
	Name       string // Display name used for rule matching (e.g., "alice")
	Credential string // Optional authenticated credential identity (e.g., "alice@EXAMPLE.COM")
}

// NewPrincipal creates a new principal with a display name only
func NewPrincipal(name string) *Principal {
	return &Principal{Name: name}
}

// String returns a string representation of the principal
// Format: name[credential]
func (p *Principal) String() string {
	if p.Credential != "" {
		return fmt.Sprintf("%s[%s]", p.Name, p.Credential)
	}
	return p.Name
}

// Validate checks if the principal is valid
func (p *Principal) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("principal name is required")
	}
	return nil
}
