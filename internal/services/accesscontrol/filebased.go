package accesscontrol

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/asakaida/monban/internal/entities"
	"github.com/asakaida/monban/internal/infrastructure/metrics"
	"github.com/asakaida/monban/internal/repositories"
	"github.com/asakaida/monban/pkg/cache"
)

// AccessControl is the capability surface of one policy instance.
// Every operation is a pure function of the current rule snapshot, the
// principal, and the resource; the transaction token is carried through
// unopened for collaborators that need transactional consistency.
type AccessControl interface {
	// Catalog visibility
	FilterCatalogs(txn entities.TransactionID, principal *entities.Principal, catalogs []string) []string
	CheckCanAccessCatalog(txn entities.TransactionID, principal *entities.Principal, catalog string) error

	// Schema operations
	FilterSchemas(txn entities.TransactionID, principal *entities.Principal, catalog string, schemas []string) []string
	CheckCanCreateSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName) error
	CheckCanDropSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName) error
	CheckCanRenameSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName, newSchemaName string) error
	CheckCanShowSchemas(txn entities.TransactionID, principal *entities.Principal, catalog string) error

	// Table operations
	FilterTables(txn entities.TransactionID, principal *entities.Principal, catalog string, tables []entities.SchemaTableName) []entities.SchemaTableName
	CheckCanCreateTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error
	CheckCanDropTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error
	CheckCanSelectFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error
	CheckCanInsertIntoTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error
	CheckCanDeleteFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error
	CheckCanAddColumns(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error
	CheckCanRenameColumn(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error

	// View operations
	CheckCanCreateView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error
	CheckCanDropView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error
	CheckCanSelectFromView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error
	CheckCanCreateViewWithSelectFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error
	CheckCanCreateViewWithSelectFromView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error

	// Session properties
	CheckCanSetCatalogSessionProperty(txn entities.TransactionID, principal *entities.Principal, catalog, property string) error

	// Privilege administration
	CheckCanGrantTablePrivilege(txn entities.TransactionID, principal *entities.Principal, privilege entities.Privilege, table entities.TableName, grantee string, grantOption bool) error
	CheckCanRevokeTablePrivilege(txn entities.TransactionID, principal *entities.Principal, privilege entities.Privilege, table entities.TableName, revokee string, grantOption bool) error
}

// FileBasedAccessControl is a policy instance evaluating one rule document.
// The compiled rule snapshot is replaced wholesale on reload; it is never
// mutated in place, so concurrent checks need no locking.
type FileBasedAccessControl struct {
	repo           repositories.RuleRepository
	rules          atomic.Pointer[compiledRules]
	nextGeneration atomic.Uint64

	cache    cache.DecisionCache // Optional cache for check decisions
	cacheTTL time.Duration       // TTL for cached decisions

	watcher *ruleWatcher // Optional rule-file watcher for hot reload
}

// NewFileBasedAccessControl creates a policy instance and performs the
// initial rule load. A malformed document or pattern is a fatal
// configuration error: the instance never becomes active.
func NewFileBasedAccessControl(repo repositories.RuleRepository) (*FileBasedAccessControl, error) {
	ac := &FileBasedAccessControl{repo: repo}
	if err := ac.Reload(); err != nil {
		return nil, err
	}
	return ac, nil
}

// NewFileBasedAccessControlWithCache creates a policy instance with
// decision caching enabled. Cache keys are scoped to the rule snapshot
// generation, so a reload can never serve decisions from old rules.
func NewFileBasedAccessControlWithCache(
	repo repositories.RuleRepository,
	decisionCache cache.DecisionCache,
	cacheTTL time.Duration,
) (*FileBasedAccessControl, error) {
	ac := &FileBasedAccessControl{
		repo:     repo,
		cache:    decisionCache,
		cacheTTL: cacheTTL,
	}
	if err := ac.Reload(); err != nil {
		return nil, err
	}
	return ac, nil
}

// Reload loads, compiles, and atomically installs a new rule snapshot.
// On failure the previous snapshot, if any, stays installed.
func (a *FileBasedAccessControl) Reload() error {
	ruleSet, err := a.repo.Load()
	if err != nil {
		return &ConfigError{Message: "failed to load rules", Err: err}
	}

	compiled, err := compileRules(ruleSet)
	if err != nil {
		return &ConfigError{Message: fmt.Sprintf("failed to compile rules from %s", a.repo.Path()), Err: err}
	}
	compiled.generation = a.nextGeneration.Add(1)

	a.rules.Store(compiled)
	if a.cache != nil {
		a.cache.Clear()
	}

	metrics.SetRulesLoaded("catalog", len(compiled.catalogs))
	metrics.SetRulesLoaded("schema", len(compiled.schemas))
	metrics.SetRulesLoaded("table", len(compiled.tables))
	metrics.SetRulesLoaded("view", len(compiled.views))
	metrics.SetRulesLoaded("session_property", len(compiled.sessionProperties))

	return nil
}

// Watch starts watching the rule document for external changes, reloading
// with at most one reload per debounce period. A failed reload keeps the
// last known good snapshot.
func (a *FileBasedAccessControl) Watch(debounce time.Duration) error {
	if a.watcher != nil {
		return &ConfigError{Message: "rule watcher already started"}
	}
	w, err := newRuleWatcher(a, a.repo.Path(), debounce)
	if err != nil {
		return err
	}
	a.watcher = w
	return nil
}

// Close stops the watcher and releases the decision cache, if present
func (a *FileBasedAccessControl) Close() error {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			return err
		}
		a.watcher = nil
	}
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// snapshot returns the currently installed rule snapshot
func (a *FileBasedAccessControl) snapshot() *compiledRules {
	return a.rules.Load()
}

// cacheKey builds a cache key scoped to one rule snapshot generation
func cacheKey(generation uint64, user, action, resource string) string {
	keyData := fmt.Sprintf("%d:%s:%s:%s", generation, user, action, resource)
	hash := sha256.Sum256([]byte(keyData))
	return hex.EncodeToString(hash[:])
}

// authorize evaluates one decision against the current snapshot, consulting
// the decision cache when one is configured. The snapshot reference is held
// for the duration of the call, so a concurrent reload cannot expose a
// partially updated rule list.
func (a *FileBasedAccessControl) authorize(user, action, resource string, evaluate func(*compiledRules) bool) bool {
	rules := a.snapshot()

	var key string
	if a.cache != nil {
		key = cacheKey(rules.generation, user, action, resource)
		if allowed, found := a.cache.Get(key); found {
			return allowed
		}
	}

	allowed := evaluate(rules)
	metrics.RecordDecision(action, allowed)

	if a.cache != nil {
		a.cache.Set(key, allowed, a.cacheTTL)
	}
	return allowed
}

// canAccessCatalog is the catalog visibility decision shared by every
// finer-grained check
func canAccessCatalog(rules *compiledRules, user, catalog string) bool {
	return decide(rules.catalogs,
		func(m *catalogMatcher) bool { return m.matches(user, catalog) },
		func(m *catalogMatcher) bool { return m.allow })
}

// isSchemaOwner reports whether the first matching schema rule declares
// ownership; catalog visibility is required first
func isSchemaOwner(rules *compiledRules, user string, schema entities.SchemaName) bool {
	if !canAccessCatalog(rules, user, schema.Catalog) {
		return false
	}
	return decide(rules.schemas,
		func(m *schemaMatcher) bool { return m.matches(user, schema) },
		func(m *schemaMatcher) bool { return m.owner })
}

// hasTablePrivilege reports whether the first matching rule in the given
// list grants the privilege; catalog visibility is required first
func hasTablePrivilege(rules *compiledRules, list []*tableMatcher, user string, table entities.TableName, privilege entities.Privilege) bool {
	if !canAccessCatalog(rules, user, table.Catalog) {
		return false
	}
	return decide(list,
		func(m *tableMatcher) bool { return m.matches(user, table) },
		func(m *tableMatcher) bool { return m.hasPrivilege(privilege) })
}

// FilterCatalogs reduces the candidate catalogs to the visible subset.
// Membership agrees exactly with CheckCanAccessCatalog per element.
func (a *FileBasedAccessControl) FilterCatalogs(txn entities.TransactionID, principal *entities.Principal, catalogs []string) []string {
	rules := a.snapshot()
	return filter(catalogs, func(catalog string) bool {
		return canAccessCatalog(rules, principal.Name, catalog)
	})
}

// CheckCanAccessCatalog checks catalog visibility for a single catalog
func (a *FileBasedAccessControl) CheckCanAccessCatalog(txn entities.TransactionID, principal *entities.Principal, catalog string) error {
	if !a.authorize(principal.Name, "access catalog", catalog, func(rules *compiledRules) bool {
		return canAccessCatalog(rules, principal.Name, catalog)
	}) {
		return deny(principal, "access catalog", catalog)
	}
	return nil
}

// FilterSchemas reduces the candidate schemas of one catalog to the subset
// visible to the principal. A schema is visible when the catalog is visible
// and some schema rule matches, whatever its ownership payload.
func (a *FileBasedAccessControl) FilterSchemas(txn entities.TransactionID, principal *entities.Principal, catalog string, schemas []string) []string {
	rules := a.snapshot()
	return filter(schemas, func(schema string) bool {
		return canSeeSchema(rules, principal.Name, entities.SchemaName{Catalog: catalog, Schema: schema})
	})
}

func canSeeSchema(rules *compiledRules, user string, schema entities.SchemaName) bool {
	if !canAccessCatalog(rules, user, schema.Catalog) {
		return false
	}
	return firstMatch(rules.schemas, func(m *schemaMatcher) bool { return m.matches(user, schema) }) != nil
}

// CheckCanCreateSchema checks schema creation, which requires ownership
func (a *FileBasedAccessControl) CheckCanCreateSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName) error {
	return a.checkSchemaOwnership(principal, "create schema", schema)
}

// CheckCanDropSchema checks schema removal, which requires ownership
func (a *FileBasedAccessControl) CheckCanDropSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName) error {
	return a.checkSchemaOwnership(principal, "drop schema", schema)
}

// CheckCanRenameSchema checks a schema rename, which requires ownership of
// both the current schema and the target name
func (a *FileBasedAccessControl) CheckCanRenameSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName, newSchemaName string) error {
	target := entities.SchemaName{Catalog: schema.Catalog, Schema: newSchemaName}
	if !a.authorize(principal.Name, "rename schema", schema.String()+"->"+target.String(), func(rules *compiledRules) bool {
		return isSchemaOwner(rules, principal.Name, schema) && isSchemaOwner(rules, principal.Name, target)
	}) {
		return deny(principal, "rename schema", schema.String())
	}
	return nil
}

// CheckCanShowSchemas checks schema listing in a catalog. This is the
// relaxed form: any schema rule matching the principal and catalog grants
// it, regardless of ownership.
func (a *FileBasedAccessControl) CheckCanShowSchemas(txn entities.TransactionID, principal *entities.Principal, catalog string) error {
	if !a.authorize(principal.Name, "show schemas in", catalog, func(rules *compiledRules) bool {
		if !canAccessCatalog(rules, principal.Name, catalog) {
			return false
		}
		return firstMatch(rules.schemas, func(m *schemaMatcher) bool {
			return m.matchesCatalog(principal.Name, catalog)
		}) != nil
	}) {
		return deny(principal, "show schemas in", catalog)
	}
	return nil
}

func (a *FileBasedAccessControl) checkSchemaOwnership(principal *entities.Principal, action string, schema entities.SchemaName) error {
	if !a.authorize(principal.Name, action, schema.String(), func(rules *compiledRules) bool {
		return isSchemaOwner(rules, principal.Name, schema)
	}) {
		return deny(principal, action, schema.String())
	}
	return nil
}

// FilterTables reduces the candidate tables of one catalog to the subset
// visible to the principal. A table is visible when the catalog is visible
// and its first matching rule grants at least one privilege.
func (a *FileBasedAccessControl) FilterTables(txn entities.TransactionID, principal *entities.Principal, catalog string, tables []entities.SchemaTableName) []entities.SchemaTableName {
	rules := a.snapshot()
	return filter(tables, func(table entities.SchemaTableName) bool {
		return canSeeTable(rules, principal.Name, table.In(catalog))
	})
}

func canSeeTable(rules *compiledRules, user string, table entities.TableName) bool {
	if !canAccessCatalog(rules, user, table.Catalog) {
		return false
	}
	return decide(rules.tables,
		func(m *tableMatcher) bool { return m.matches(user, table) },
		func(m *tableMatcher) bool { return m.grantsAnything() })
}

// CheckCanCreateTable checks table creation (CREATE privilege)
func (a *FileBasedAccessControl) CheckCanCreateTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "create table", table, entities.PrivilegeCreate)
}

// CheckCanDropTable checks table removal (DROP privilege)
func (a *FileBasedAccessControl) CheckCanDropTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "drop table", table, entities.PrivilegeDrop)
}

// CheckCanSelectFromTable checks reading from a table (SELECT privilege)
func (a *FileBasedAccessControl) CheckCanSelectFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "select from table", table, entities.PrivilegeSelect)
}

// CheckCanInsertIntoTable checks writing to a table (INSERT privilege)
func (a *FileBasedAccessControl) CheckCanInsertIntoTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "insert into table", table, entities.PrivilegeInsert)
}

// CheckCanDeleteFromTable checks deleting from a table (DELETE privilege)
func (a *FileBasedAccessControl) CheckCanDeleteFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "delete from table", table, entities.PrivilegeDelete)
}

// CheckCanAddColumns checks adding columns (ADD_COLUMN privilege)
func (a *FileBasedAccessControl) CheckCanAddColumns(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "add columns to table", table, entities.PrivilegeAddColumn)
}

// CheckCanRenameColumn checks renaming a column (RENAME_COLUMN privilege)
func (a *FileBasedAccessControl) CheckCanRenameColumn(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "rename column in table", table, entities.PrivilegeRenameColumn)
}

func (a *FileBasedAccessControl) checkTablePrivilege(principal *entities.Principal, action string, table entities.TableName, privilege entities.Privilege) error {
	if !a.authorize(principal.Name, action, table.String(), func(rules *compiledRules) bool {
		return hasTablePrivilege(rules, rules.tables, principal.Name, table, privilege)
	}) {
		return deny(principal, action, table.String())
	}
	return nil
}

// CheckCanCreateView checks view creation (CREATE privilege against the
// view rules, falling back to table rules when no view list is declared)
func (a *FileBasedAccessControl) CheckCanCreateView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return a.checkViewPrivilege(principal, "create view", view, entities.PrivilegeCreate)
}

// CheckCanDropView checks view removal (DROP privilege)
func (a *FileBasedAccessControl) CheckCanDropView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return a.checkViewPrivilege(principal, "drop view", view, entities.PrivilegeDrop)
}

// CheckCanSelectFromView checks reading from a view (SELECT privilege)
func (a *FileBasedAccessControl) CheckCanSelectFromView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return a.checkViewPrivilege(principal, "select from view", view, entities.PrivilegeSelect)
}

// CheckCanCreateViewWithSelectFromTable checks that a view may read from an
// underlying table: SELECT on the table, independent of view creation
func (a *FileBasedAccessControl) CheckCanCreateViewWithSelectFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return a.checkTablePrivilege(principal, "create view selecting from table", table, entities.PrivilegeSelect)
}

// CheckCanCreateViewWithSelectFromView checks that a view may read from an
// underlying view: SELECT on that view
func (a *FileBasedAccessControl) CheckCanCreateViewWithSelectFromView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return a.checkViewPrivilege(principal, "create view selecting from view", view, entities.PrivilegeSelect)
}

func (a *FileBasedAccessControl) checkViewPrivilege(principal *entities.Principal, action string, view entities.TableName, privilege entities.Privilege) error {
	if !a.authorize(principal.Name, action, view.String(), func(rules *compiledRules) bool {
		return hasTablePrivilege(rules, rules.viewRules(), principal.Name, view, privilege)
	}) {
		return deny(principal, action, view.String())
	}
	return nil
}

// CheckCanSetCatalogSessionProperty checks setting a catalog session
// property, which requires a matching allow rule
func (a *FileBasedAccessControl) CheckCanSetCatalogSessionProperty(txn entities.TransactionID, principal *entities.Principal, catalog, property string) error {
	resource := catalog + "." + property
	if !a.authorize(principal.Name, "set catalog session property", resource, func(rules *compiledRules) bool {
		if !canAccessCatalog(rules, principal.Name, catalog) {
			return false
		}
		return decide(rules.sessionProperties,
			func(m *sessionPropertyMatcher) bool { return m.matches(principal.Name, catalog, property) },
			func(m *sessionPropertyMatcher) bool { return m.allow })
	}) {
		return deny(principal, "set catalog session property", resource)
	}
	return nil
}

// CheckCanGrantTablePrivilege checks granting a table privilege to another
// principal. The acting principal must hold the privilege being granted
// plus grant authority over the table; the grantee is irrelevant.
func (a *FileBasedAccessControl) CheckCanGrantTablePrivilege(txn entities.TransactionID, principal *entities.Principal, privilege entities.Privilege, table entities.TableName, grantee string, grantOption bool) error {
	return a.checkGrantAuthority(principal, fmt.Sprintf("grant %s on table", privilege), table, privilege)
}

// CheckCanRevokeTablePrivilege checks revoking a table privilege, which
// requires the same authority as granting it
func (a *FileBasedAccessControl) CheckCanRevokeTablePrivilege(txn entities.TransactionID, principal *entities.Principal, privilege entities.Privilege, table entities.TableName, revokee string, grantOption bool) error {
	return a.checkGrantAuthority(principal, fmt.Sprintf("revoke %s on table", privilege), table, privilege)
}

func (a *FileBasedAccessControl) checkGrantAuthority(principal *entities.Principal, action string, table entities.TableName, privilege entities.Privilege) error {
	if !a.authorize(principal.Name, action, table.String(), func(rules *compiledRules) bool {
		if !canAccessCatalog(rules, principal.Name, table.Catalog) {
			return false
		}
		return decide(rules.tables,
			func(m *tableMatcher) bool { return m.matches(principal.Name, table) },
			func(m *tableMatcher) bool { return grantAuthority(m, privilege) })
	}) {
		return deny(principal, action, table.String())
	}
	return nil
}

// grantAuthority requires the matched rule to hold the granted privilege
// itself plus ownership-class authority: OWNERSHIP always qualifies, and
// GRANT_SELECT qualifies for SELECT.
func grantAuthority(m *tableMatcher, privilege entities.Privilege) bool {
	if !m.hasPrivilege(privilege) {
		return false
	}
	if m.hasPrivilege(entities.PrivilegeOwnership) {
		return true
	}
	return privilege == entities.PrivilegeSelect && m.hasPrivilege(entities.PrivilegeGrantSelect)
}
