package entities

import "fmt"

// Privilege represents a table-level privilege that a rule can grant
type Privilege string

const (
	PrivilegeSelect       Privilege = "SELECT"
	PrivilegeInsert       Privilege = "INSERT"
	PrivilegeDelete       Privilege = "DELETE"
	PrivilegeCreate       Privilege = "CREATE"
	PrivilegeDrop         Privilege = "DROP"
	PrivilegeAddColumn    Privilege = "ADD_COLUMN"
	PrivilegeRenameColumn Privilege = "RENAME_COLUMN"
	PrivilegeOwnership    Privilege = "OWNERSHIP"
	PrivilegeGrantSelect  Privilege = "GRANT_SELECT"
)

// allPrivileges is the set of recognized privilege names
var allPrivileges = map[Privilege]bool{
	PrivilegeSelect:       true,
	PrivilegeInsert:       true,
	PrivilegeDelete:       true,
	PrivilegeCreate:       true,
	PrivilegeDrop:         true,
	PrivilegeAddColumn:    true,
	PrivilegeRenameColumn: true,
	PrivilegeOwnership:    true,
	PrivilegeGrantSelect:  true,
}

// ParsePrivilege parses a privilege name from a rule document
func ParsePrivilege(s string) (Privilege, error) {
	p := Privilege(s)
	if !allPrivileges[p] {
		return "", fmt.Errorf("unknown privilege: %q", s)
	}
	return p, nil
}

// String returns the privilege name as declared in rule documents
func (p Privilege) String() string {
	return string(p)
}

// Valid reports whether the privilege is one of the recognized names
func (p Privilege) Valid() bool {
	return allPrivileges[p]
}
