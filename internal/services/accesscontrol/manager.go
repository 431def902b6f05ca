package accesscontrol

import (
	"fmt"
	"sync"

	"github.com/asakaida/monban/internal/entities"
)

// AccessControlManager is the process-wide registry and dispatcher. It
// holds the system-wide policy instance, optional catalog-scoped
// instances, and the named factories that construct them.
//
// Registration happens at startup; checks and filters run concurrently
// from many request-handling goroutines afterwards. Reads vastly
// outnumber writes, so an RWMutex guards the registry.
//
// When both a system-wide and a catalog-scoped instance apply, both must
// allow; a deny from either is authoritative. When no catalog-scoped
// instance is registered, the system-wide instance alone is authoritative.
type AccessControlManager struct {
	mu              sync.RWMutex
	factories       map[string]SystemAccessControlFactory
	system          AccessControl
	catalogControls map[string]AccessControl
}

// NewAccessControlManager creates a manager with the built-in file-based
// factory registered
func NewAccessControlManager() *AccessControlManager {
	m := &AccessControlManager{
		factories:       make(map[string]SystemAccessControlFactory),
		catalogControls: make(map[string]AccessControl),
	}
	m.factories[FileBasedAccessControlName] = NewFileBasedAccessControlFactory()
	return m
}

// AddSystemAccessControlFactory registers a named factory. Registering the
// same name twice is a configuration error.
func (m *AccessControlManager) AddSystemAccessControlFactory(factory SystemAccessControlFactory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := factory.Name()
	if _, exists := m.factories[name]; exists {
		return &ConfigError{Message: fmt.Sprintf("access control factory %q is already registered", name)}
	}
	m.factories[name] = factory
	return nil
}

// SetSystemAccessControl constructs and installs the system-wide policy
// instance under the given factory name
func (m *AccessControlManager) SetSystemAccessControl(name string, options map[string]string) error {
	instance, err := m.create(name, options)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.system = instance
	return nil
}

// SetCatalogAccessControl constructs and installs a policy instance scoped
// to one catalog. The instance is consulted in addition to the system-wide
// one for resources under that catalog.
func (m *AccessControlManager) SetCatalogAccessControl(catalog, name string, options map[string]string) error {
	if catalog == "" {
		return &ConfigError{Message: "catalog name is required"}
	}
	instance, err := m.create(name, options)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogControls[catalog] = instance
	return nil
}

func (m *AccessControlManager) create(name string, options map[string]string) (AccessControl, error) {
	m.mu.RLock()
	factory, exists := m.factories[name]
	m.mu.RUnlock()

	if !exists {
		return nil, &ConfigError{Message: fmt.Sprintf("access control %q is not registered", name)}
	}
	return factory.Create(options)
}

// resolve returns the policy instances applicable to a resource in the
// given catalog: the system-wide instance always, plus the catalog-scoped
// instance when one is registered
func (m *AccessControlManager) resolve(catalog string) ([]AccessControl, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.system == nil {
		return nil, &ConfigError{Message: "no system access control is configured"}
	}
	controls := []AccessControl{m.system}
	if catalog != "" {
		if control, exists := m.catalogControls[catalog]; exists {
			controls = append(controls, control)
		}
	}
	return controls, nil
}

// FilterCatalogs reduces the candidate catalogs to the subset every
// applicable instance makes visible. Which instances apply varies per
// candidate: every candidate faces the system-wide instance, and a
// candidate with a catalog-scoped instance registered for it must also
// survive that instance's filter. A scoped instance never affects other
// candidates.
func (m *AccessControlManager) FilterCatalogs(txn entities.TransactionID, principal *entities.Principal, catalogs []string) ([]string, error) {
	m.mu.RLock()
	system := m.system
	scoped := make(map[string]AccessControl, len(m.catalogControls))
	for catalog, control := range m.catalogControls {
		scoped[catalog] = control
	}
	m.mu.RUnlock()

	if system == nil {
		return nil, &ConfigError{Message: "no system access control is configured"}
	}

	catalogs = system.FilterCatalogs(txn, principal, catalogs)
	filtered := make([]string, 0, len(catalogs))
	for _, catalog := range catalogs {
		if control, exists := scoped[catalog]; exists {
			if len(control.FilterCatalogs(txn, principal, []string{catalog})) == 0 {
				continue
			}
		}
		filtered = append(filtered, catalog)
	}
	return filtered, nil
}

// CheckCanAccessCatalog checks catalog visibility
func (m *AccessControlManager) CheckCanAccessCatalog(txn entities.TransactionID, principal *entities.Principal, catalog string) error {
	return m.check(catalog, func(control AccessControl) error {
		return control.CheckCanAccessCatalog(txn, principal, catalog)
	})
}

// FilterSchemas reduces the candidate schemas of a catalog to the subset
// every applicable instance makes visible
func (m *AccessControlManager) FilterSchemas(txn entities.TransactionID, principal *entities.Principal, catalog string, schemas []string) ([]string, error) {
	controls, err := m.resolve(catalog)
	if err != nil {
		return nil, err
	}
	for _, control := range controls {
		schemas = control.FilterSchemas(txn, principal, catalog, schemas)
	}
	return schemas, nil
}

// CheckCanCreateSchema checks schema creation
func (m *AccessControlManager) CheckCanCreateSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName) error {
	return m.check(schema.Catalog, func(control AccessControl) error {
		return control.CheckCanCreateSchema(txn, principal, schema)
	})
}

// CheckCanDropSchema checks schema removal
func (m *AccessControlManager) CheckCanDropSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName) error {
	return m.check(schema.Catalog, func(control AccessControl) error {
		return control.CheckCanDropSchema(txn, principal, schema)
	})
}

// CheckCanRenameSchema checks renaming a schema
func (m *AccessControlManager) CheckCanRenameSchema(txn entities.TransactionID, principal *entities.Principal, schema entities.SchemaName, newSchemaName string) error {
	return m.check(schema.Catalog, func(control AccessControl) error {
		return control.CheckCanRenameSchema(txn, principal, schema, newSchemaName)
	})
}

// CheckCanShowSchemas checks listing the schemas of a catalog
func (m *AccessControlManager) CheckCanShowSchemas(txn entities.TransactionID, principal *entities.Principal, catalog string) error {
	return m.check(catalog, func(control AccessControl) error {
		return control.CheckCanShowSchemas(txn, principal, catalog)
	})
}

// FilterTables reduces the candidate tables of a catalog to the subset
// every applicable instance makes visible
func (m *AccessControlManager) FilterTables(txn entities.TransactionID, principal *entities.Principal, catalog string, tables []entities.SchemaTableName) ([]entities.SchemaTableName, error) {
	controls, err := m.resolve(catalog)
	if err != nil {
		return nil, err
	}
	for _, control := range controls {
		tables = control.FilterTables(txn, principal, catalog, tables)
	}
	return tables, nil
}

// CheckCanCreateTable checks table creation
func (m *AccessControlManager) CheckCanCreateTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanCreateTable(txn, principal, table)
	})
}

// CheckCanDropTable checks table removal
func (m *AccessControlManager) CheckCanDropTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanDropTable(txn, principal, table)
	})
}

// CheckCanSelectFromTable checks reading from a table
func (m *AccessControlManager) CheckCanSelectFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanSelectFromTable(txn, principal, table)
	})
}

// CheckCanInsertIntoTable checks writing to a table
func (m *AccessControlManager) CheckCanInsertIntoTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanInsertIntoTable(txn, principal, table)
	})
}

// CheckCanDeleteFromTable checks deleting from a table
func (m *AccessControlManager) CheckCanDeleteFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanDeleteFromTable(txn, principal, table)
	})
}

// CheckCanAddColumns checks adding columns to a table
func (m *AccessControlManager) CheckCanAddColumns(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanAddColumns(txn, principal, table)
	})
}

// CheckCanRenameColumn checks renaming a column of a table
func (m *AccessControlManager) CheckCanRenameColumn(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanRenameColumn(txn, principal, table)
	})
}

// CheckCanCreateView checks view creation
func (m *AccessControlManager) CheckCanCreateView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return m.check(view.Catalog, func(control AccessControl) error {
		return control.CheckCanCreateView(txn, principal, view)
	})
}

// CheckCanDropView checks view removal
func (m *AccessControlManager) CheckCanDropView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return m.check(view.Catalog, func(control AccessControl) error {
		return control.CheckCanDropView(txn, principal, view)
	})
}

// CheckCanSelectFromView checks reading from a view
func (m *AccessControlManager) CheckCanSelectFromView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return m.check(view.Catalog, func(control AccessControl) error {
		return control.CheckCanSelectFromView(txn, principal, view)
	})
}

// CheckCanCreateViewWithSelectFromTable checks that a new view may read
// from an underlying table
func (m *AccessControlManager) CheckCanCreateViewWithSelectFromTable(txn entities.TransactionID, principal *entities.Principal, table entities.TableName) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanCreateViewWithSelectFromTable(txn, principal, table)
	})
}

// CheckCanCreateViewWithSelectFromView checks that a new view may read
// from an underlying view
func (m *AccessControlManager) CheckCanCreateViewWithSelectFromView(txn entities.TransactionID, principal *entities.Principal, view entities.TableName) error {
	return m.check(view.Catalog, func(control AccessControl) error {
		return control.CheckCanCreateViewWithSelectFromView(txn, principal, view)
	})
}

// CheckCanSetCatalogSessionProperty checks setting a catalog session property
func (m *AccessControlManager) CheckCanSetCatalogSessionProperty(txn entities.TransactionID, principal *entities.Principal, catalog, property string) error {
	return m.check(catalog, func(control AccessControl) error {
		return control.CheckCanSetCatalogSessionProperty(txn, principal, catalog, property)
	})
}

// CheckCanGrantTablePrivilege checks granting a table privilege
func (m *AccessControlManager) CheckCanGrantTablePrivilege(txn entities.TransactionID, principal *entities.Principal, privilege entities.Privilege, table entities.TableName, grantee string, grantOption bool) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanGrantTablePrivilege(txn, principal, privilege, table, grantee, grantOption)
	})
}

// CheckCanRevokeTablePrivilege checks revoking a table privilege
func (m *AccessControlManager) CheckCanRevokeTablePrivilege(txn entities.TransactionID, principal *entities.Principal, privilege entities.Privilege, table entities.TableName, revokee string, grantOption bool) error {
	return m.check(table.Catalog, func(control AccessControl) error {
		return control.CheckCanRevokeTablePrivilege(txn, principal, privilege, table, revokee, grantOption)
	})
}

// check runs the operation against every applicable instance; the first
// denial (or configuration error) is returned unchanged
func (m *AccessControlManager) check(catalog string, op func(AccessControl) error) error {
	controls, err := m.resolve(catalog)
	if err != nil {
		return err
	}
	for _, control := range controls {
		if err := op(control); err != nil {
			return err
		}
	}
	return nil
}
