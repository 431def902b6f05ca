package entities

// TransactionID is the opaque transaction-scope token supplied by the
// transaction manager. The access control engine passes it through to
// collaborators unchanged and never inspects its contents.
type TransactionID string

// String returns the raw token
func (t TransactionID) String() string {
	return string(t)
}
