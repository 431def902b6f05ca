package repositories

import (
	"github.com/asakaida/monban/internal/entities"
)

// RuleRepository defines the interface for rule document access
type RuleRepository interface {
	// Load reads and decodes the rule document
	// A malformed or unreadable document is a configuration error;
	// Load is never invoked on the per-request check path
	Load() (*entities.RuleSet, error)

	// Path returns the location of the rule document, for diagnostics
	// and for file watching
	Path() string
}
