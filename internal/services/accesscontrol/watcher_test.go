package accesscontrol

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/asakaida/monban/internal/repositories/file"
)

const allowAliceDoc = `{"catalogs": [{"user": "alice", "catalog": "sales", "allow": true}]}`
const allowBobDoc = `{"catalogs": [{"user": "bob", "catalog": "sales", "allow": true}]}`

func writeRuleFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}
}

// waitFor polls the condition until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return condition()
}

func TestRuleWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	writeRuleFile(t, path, allowAliceDoc)

	ac, err := NewFileBasedAccessControl(file.NewFileRuleRepository(path))
	if err != nil {
		t.Fatalf("NewFileBasedAccessControl() error = %v", err)
	}
	if err := ac.Watch(20 * time.Millisecond); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer ac.Close()

	if err := ac.CheckCanAccessCatalog(testTxn, alice, "sales"); err != nil {
		t.Fatalf("initial rules should allow alice: %v", err)
	}

	writeRuleFile(t, path, allowBobDoc)

	reloaded := waitFor(t, 5*time.Second, func() bool {
		return ac.CheckCanAccessCatalog(testTxn, bob, "sales") == nil
	})
	if !reloaded {
		t.Fatal("watcher did not reload the changed rule document")
	}
	assertDenied(t, ac.CheckCanAccessCatalog(testTxn, alice, "sales"), alice)
}

func TestRuleWatcher_InvalidUpdateKeepsLastKnownGood(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	writeRuleFile(t, path, allowAliceDoc)

	ac, err := NewFileBasedAccessControl(file.NewFileRuleRepository(path))
	if err != nil {
		t.Fatalf("NewFileBasedAccessControl() error = %v", err)
	}
	if err := ac.Watch(20 * time.Millisecond); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer ac.Close()

	// Break the document, then repair it with different rules. The broken
	// intermediate state must never surface as a decision change.
	writeRuleFile(t, path, `{"catalogs": [`)
	time.Sleep(200 * time.Millisecond)
	if err := ac.CheckCanAccessCatalog(testTxn, alice, "sales"); err != nil {
		t.Errorf("last known good rules should keep serving: %v", err)
	}

	writeRuleFile(t, path, allowBobDoc)
	reloaded := waitFor(t, 5*time.Second, func() bool {
		return ac.CheckCanAccessCatalog(testTxn, bob, "sales") == nil
	})
	if !reloaded {
		t.Fatal("watcher did not recover after the document was repaired")
	}
}

func TestWatch_Twice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	writeRuleFile(t, path, allowAliceDoc)

	ac, err := NewFileBasedAccessControl(file.NewFileRuleRepository(path))
	if err != nil {
		t.Fatalf("NewFileBasedAccessControl() error = %v", err)
	}
	defer ac.Close()

	if err := ac.Watch(time.Second); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := ac.Watch(time.Second); err == nil {
		t.Error("second Watch() expected error")
	}
}
