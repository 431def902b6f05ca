package accesscontrol

import (
	"reflect"
	"testing"

	"github.com/asakaida/monban/internal/entities"
)

func mustCompile(t *testing.T, ruleSet *entities.RuleSet) *compiledRules {
	t.Helper()
	compiled, err := compileRules(ruleSet)
	if err != nil {
		t.Fatalf("compileRules() error = %v", err)
	}
	return compiled
}

func TestDecide_DefaultDeny(t *testing.T) {
	tests := []struct {
		name    string
		ruleSet *entities.RuleSet
		user    string
		catalog string
		want    bool
	}{
		{
			name:    "empty rule list denies",
			ruleSet: &entities.RuleSet{},
			user:    "alice",
			catalog: "any",
			want:    false,
		},
		{
			name: "no matching rule denies",
			ruleSet: &entities.RuleSet{
				Catalogs: []entities.CatalogRule{{User: "bob", Catalog: ".*", Allow: true}},
			},
			user:    "alice",
			catalog: "any",
			want:    false,
		},
		{
			name: "matching allow rule allows",
			ruleSet: &entities.RuleSet{
				Catalogs: []entities.CatalogRule{{User: "alice", Catalog: "any", Allow: true}},
			},
			user:    "alice",
			catalog: "any",
			want:    true,
		},
		{
			name: "matching deny rule denies",
			ruleSet: &entities.RuleSet{
				Catalogs: []entities.CatalogRule{{User: "alice", Catalog: "any", Allow: false}},
			},
			user:    "alice",
			catalog: "any",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := mustCompile(t, tt.ruleSet)
			if got := canAccessCatalog(rules, tt.user, tt.catalog); got != tt.want {
				t.Errorf("canAccessCatalog(%q, %q) = %v, want %v", tt.user, tt.catalog, got, tt.want)
			}
		})
	}
}

func TestDecide_FirstMatchAuthority(t *testing.T) {
	// The first matching rule is authoritative even when a later rule
	// matching the same principal and resource would allow
	rules := mustCompile(t, &entities.RuleSet{
		Catalogs: []entities.CatalogRule{
			{User: "alice", Catalog: "sales", Allow: false},
			{User: ".*", Catalog: "sales", Allow: true},
		},
	})

	if canAccessCatalog(rules, "alice", "sales") {
		t.Error("first matching deny rule must stop the scan")
	}
	if !canAccessCatalog(rules, "bob", "sales") {
		t.Error("bob skips the alice-only rule and reaches the allow rule")
	}
}

func TestFirstMatch_ReturnsFirst(t *testing.T) {
	rules := mustCompile(t, &entities.RuleSet{
		Schemas: []entities.SchemaRule{
			{User: "alice", Schema: "first", Owner: false},
			{User: "alice", Schema: ".*", Owner: true},
		},
	})

	schema := entities.SchemaName{Catalog: "c", Schema: "first"}
	rule := firstMatch(rules.schemas, func(m *schemaMatcher) bool { return m.matches("alice", schema) })
	if rule == nil {
		t.Fatal("firstMatch() = nil, want a rule")
	}
	if rule.owner {
		t.Error("firstMatch() returned the second rule, want the first")
	}

	none := firstMatch(rules.schemas, func(m *schemaMatcher) bool { return m.matches("bob", schema) })
	if none != nil {
		t.Errorf("firstMatch() for unmatched principal = %v, want nil", none)
	}
}

func TestFilter_MatchesDecidePerElement(t *testing.T) {
	rules := mustCompile(t, &entities.RuleSet{
		Catalogs: []entities.CatalogRule{
			{User: "alice", Catalog: "a|b", Allow: true},
			{User: "alice", Catalog: "c", Allow: false},
			{Catalog: "open", Allow: true},
		},
	})

	candidates := []string{"a", "b", "c", "open", "unknown"}
	got := filter(candidates, func(catalog string) bool {
		return canAccessCatalog(rules, "alice", catalog)
	})

	// Membership must be exactly the per-element decisions, in input order
	var want []string
	for _, catalog := range candidates {
		if canAccessCatalog(rules, "alice", catalog) {
			want = append(want, catalog)
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("filter() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(got, []string{"a", "b", "open"}) {
		t.Errorf("filter() = %v, want [a b open]", got)
	}
}

func TestFilter_EmptyInput(t *testing.T) {
	got := filter(nil, func(string) bool { return true })
	if len(got) != 0 {
		t.Errorf("filter(nil) = %v, want empty", got)
	}
}
