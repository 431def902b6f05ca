package accesscontrol

import (
	"fmt"
	"regexp"

	"github.com/asakaida/monban/internal/entities"
)

// compilePattern compiles a rule pattern into an anchored matcher.
// Matching is full-string and case-sensitive; candidates are compared as
// literal code-point sequences with no Unicode normalization. An empty
// pattern matches anything.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}

// catalogMatcher is a compiled catalog visibility rule
type catalogMatcher struct {
	user    *regexp.Regexp
	catalog *regexp.Regexp
	allow   bool
}

func (m *catalogMatcher) matches(user, catalog string) bool {
	return m.user.MatchString(user) && m.catalog.MatchString(catalog)
}

// schemaMatcher is a compiled schema ownership rule
type schemaMatcher struct {
	user    *regexp.Regexp
	catalog *regexp.Regexp
	schema  *regexp.Regexp
	owner   bool
}

func (m *schemaMatcher) matches(user string, schema entities.SchemaName) bool {
	return m.user.MatchString(user) &&
		m.catalog.MatchString(schema.Catalog) &&
		m.schema.MatchString(schema.Schema)
}

// matchesCatalog reports whether the rule applies anywhere in the catalog,
// used by the relaxed show-schemas visibility check
func (m *schemaMatcher) matchesCatalog(user, catalog string) bool {
	return m.user.MatchString(user) && m.catalog.MatchString(catalog)
}

// tableMatcher is a compiled table (or view) privilege rule
type tableMatcher struct {
	user       *regexp.Regexp
	catalog    *regexp.Regexp
	schema     *regexp.Regexp
	table      *regexp.Regexp
	privileges map[entities.Privilege]bool
}

func (m *tableMatcher) matches(user string, table entities.TableName) bool {
	return m.user.MatchString(user) &&
		m.catalog.MatchString(table.Catalog) &&
		m.schema.MatchString(table.Schema) &&
		m.table.MatchString(table.Table)
}

func (m *tableMatcher) hasPrivilege(p entities.Privilege) bool {
	return m.privileges[p]
}

// grantsAnything reports whether the rule grants at least one privilege,
// used for table visibility filtering
func (m *tableMatcher) grantsAnything() bool {
	return len(m.privileges) > 0
}

// sessionPropertyMatcher is a compiled session property rule
type sessionPropertyMatcher struct {
	user     *regexp.Regexp
	catalog  *regexp.Regexp
	property *regexp.Regexp
	allow    bool
}

func (m *sessionPropertyMatcher) matches(user, catalog, property string) bool {
	return m.user.MatchString(user) &&
		m.catalog.MatchString(catalog) &&
		m.property.MatchString(property)
}

// compiledRules is an immutable rule snapshot. Policy instances swap whole
// snapshots atomically; a snapshot is never mutated after compilation.
type compiledRules struct {
	catalogs          []*catalogMatcher
	schemas           []*schemaMatcher
	tables            []*tableMatcher
	views             []*tableMatcher
	sessionProperties []*sessionPropertyMatcher

	// hasViews records whether a distinct view rule list was declared;
	// when false, view operations evaluate against the table rules
	hasViews bool

	// generation identifies this snapshot for decision-cache scoping
	generation uint64
}

// viewRules returns the rule list applicable to view operations
func (r *compiledRules) viewRules() []*tableMatcher {
	if r.hasViews {
		return r.views
	}
	return r.tables
}

// compileRules compiles a decoded rule document into an immutable snapshot.
// Every pattern is compiled eagerly so that a malformed pattern surfaces as
// a configuration error at load time, never at check time.
func compileRules(ruleSet *entities.RuleSet) (*compiledRules, error) {
	compiled := &compiledRules{hasViews: ruleSet.HasViews}

	for i, rule := range ruleSet.Catalogs {
		m, err := compileCatalogRule(&rule)
		if err != nil {
			return nil, fmt.Errorf("catalog rule %d: %w", i, err)
		}
		compiled.catalogs = append(compiled.catalogs, m)
	}

	for i, rule := range ruleSet.Schemas {
		m, err := compileSchemaRule(&rule)
		if err != nil {
			return nil, fmt.Errorf("schema rule %d: %w", i, err)
		}
		compiled.schemas = append(compiled.schemas, m)
	}

	for i, rule := range ruleSet.Tables {
		m, err := compileTableRule(&rule)
		if err != nil {
			return nil, fmt.Errorf("table rule %d: %w", i, err)
		}
		compiled.tables = append(compiled.tables, m)
	}

	for i, rule := range ruleSet.Views {
		m, err := compileTableRule(&rule)
		if err != nil {
			return nil, fmt.Errorf("view rule %d: %w", i, err)
		}
		compiled.views = append(compiled.views, m)
	}

	for i, rule := range ruleSet.SessionProperties {
		m, err := compileSessionPropertyRule(&rule)
		if err != nil {
			return nil, fmt.Errorf("session property rule %d: %w", i, err)
		}
		compiled.sessionProperties = append(compiled.sessionProperties, m)
	}

	return compiled, nil
}

func compileCatalogRule(rule *entities.CatalogRule) (*catalogMatcher, error) {
	user, err := compilePattern(rule.User)
	if err != nil {
		return nil, err
	}
	catalog, err := compilePattern(rule.Catalog)
	if err != nil {
		return nil, err
	}
	return &catalogMatcher{user: user, catalog: catalog, allow: rule.Allow}, nil
}

func compileSchemaRule(rule *entities.SchemaRule) (*schemaMatcher, error) {
	user, err := compilePattern(rule.User)
	if err != nil {
		return nil, err
	}
	catalog, err := compilePattern(rule.Catalog)
	if err != nil {
		return nil, err
	}
	schema, err := compilePattern(rule.Schema)
	if err != nil {
		return nil, err
	}
	return &schemaMatcher{user: user, catalog: catalog, schema: schema, owner: rule.Owner}, nil
}

func compileTableRule(rule *entities.TableRule) (*tableMatcher, error) {
	user, err := compilePattern(rule.User)
	if err != nil {
		return nil, err
	}
	catalog, err := compilePattern(rule.Catalog)
	if err != nil {
		return nil, err
	}
	schema, err := compilePattern(rule.Schema)
	if err != nil {
		return nil, err
	}
	table, err := compilePattern(rule.Table)
	if err != nil {
		return nil, err
	}
	privileges := make(map[entities.Privilege]bool, len(rule.Privileges))
	for _, p := range rule.Privileges {
		privileges[p] = true
	}
	return &tableMatcher{
		user:       user,
		catalog:    catalog,
		schema:     schema,
		table:      table,
		privileges: privileges,
	}, nil
}

func compileSessionPropertyRule(rule *entities.SessionPropertyRule) (*sessionPropertyMatcher, error) {
	user, err := compilePattern(rule.User)
	if err != nil {
		return nil, err
	}
	catalog, err := compilePattern(rule.Catalog)
	if err != nil {
		return nil, err
	}
	property, err := compilePattern(rule.Property)
	if err != nil {
		return nil, err
	}
	return &sessionPropertyMatcher{user: user, catalog: catalog, property: property, allow: rule.Allow}, nil
}
