package entities

import "fmt"

// RuleSet is a decoded rule document: four ordered rule lists, one per
// resource kind. Order is significant — evaluation is first-match-wins —
// and is preserved exactly as declared in the document.
//
// Pattern fields are opaque regular expressions; an empty pattern matches
// anything. Boolean payloads default to false, privilege lists to empty.
type RuleSet struct {
	Catalogs          []CatalogRule         `mapstructure:"catalogs"`
	Schemas           []SchemaRule          `mapstructure:"schemas"`
	Tables            []TableRule           `mapstructure:"tables"`
	Views             []TableRule           `mapstructure:"views"`
	SessionProperties []SessionPropertyRule `mapstructure:"session_properties"`

	// HasViews records whether the document declared a views list at all.
	// When false, view operations fall back to the table rules.
	HasViews bool `mapstructure:"-"`
}

// CatalogRule grants or denies catalog visibility
type CatalogRule struct {
	User    string `mapstructure:"user"`    // Principal name pattern
	Catalog string `mapstructure:"catalog"` // Catalog name pattern
	Allow   bool   `mapstructure:"allow"`   // Whether a match grants access
}

// SchemaRule declares schema ownership
// Owners may create, drop, and rename schemas in the matched scope
type SchemaRule struct {
	User    string `mapstructure:"user"`
	Catalog string `mapstructure:"catalog"`
	Schema  string `mapstructure:"schema"`
	Owner   bool   `mapstructure:"owner"`
}

// TableRule grants a set of table privileges in the matched scope
// The same shape serves the optional view rule list
type TableRule struct {
	User       string      `mapstructure:"user"`
	Catalog    string      `mapstructure:"catalog"`
	Schema     string      `mapstructure:"schema"`
	Table      string      `mapstructure:"table"`
	Privileges []Privilege `mapstructure:"privileges"`
}

// HasPrivilege reports whether the rule grants the given privilege
func (r *TableRule) HasPrivilege(p Privilege) bool {
	for _, granted := range r.Privileges {
		if granted == p {
			return true
		}
	}
	return false
}

// SessionPropertyRule grants or denies setting a catalog session property
type SessionPropertyRule struct {
	User     string `mapstructure:"user"`
	Catalog  string `mapstructure:"catalog"`
	Property string `mapstructure:"property"`
	Allow    bool   `mapstructure:"allow"`
}

// Validate checks that every privilege named in the document is recognized
func (rs *RuleSet) Validate() error {
	for i, rule := range rs.Tables {
		for _, p := range rule.Privileges {
			if !p.Valid() {
				return fmt.Errorf("table rule %d: unknown privilege: %q", i, p)
			}
		}
	}
	for i, rule := range rs.Views {
		for _, p := range rule.Privileges {
			if !p.Valid() {
				return fmt.Errorf("view rule %d: unknown privilege: %q", i, p)
			}
		}
	}
	return nil
}
