package accesscontrol

import (
	"fmt"
	"strconv"
	"time"

	"github.com/asakaida/monban/internal/repositories/file"
	"github.com/asakaida/monban/pkg/cache/memorycache"
)

// FileBasedAccessControlName is the registration name of the built-in
// file-based implementation
const FileBasedAccessControlName = "file"

// Configuration options recognized at registration time. Any other option
// is rejected as a configuration error.
const (
	ConfigFileOption    = "security.config-file"    // Path to the rule document (required)
	RefreshPeriodOption = "security.refresh-period" // Go duration; enables rule-file watching
	CacheTTLOption      = "security.cache-ttl"      // Go duration; enables decision caching
	CacheEntriesOption  = "security.cache-entries"  // Maximum cached decisions (default 10000)
)

var recognizedOptions = map[string]bool{
	ConfigFileOption:    true,
	RefreshPeriodOption: true,
	CacheTTLOption:      true,
	CacheEntriesOption:  true,
}

// SystemAccessControlFactory constructs policy instances from registration
// options. Implementations are registered by name with the manager.
type SystemAccessControlFactory interface {
	// Name returns the registration name of this implementation
	Name() string

	// Create builds a policy instance from the given options.
	// Unrecognized options and missing required options are
	// configuration errors.
	Create(options map[string]string) (AccessControl, error)
}

// FileBasedAccessControlFactory builds file-based policy instances
type FileBasedAccessControlFactory struct{}

// NewFileBasedAccessControlFactory creates the built-in factory
func NewFileBasedAccessControlFactory() *FileBasedAccessControlFactory {
	return &FileBasedAccessControlFactory{}
}

// Name returns the registration name of the file-based implementation
func (f *FileBasedAccessControlFactory) Name() string {
	return FileBasedAccessControlName
}

// Create builds a file-based policy instance from registration options
func (f *FileBasedAccessControlFactory) Create(options map[string]string) (AccessControl, error) {
	for key := range options {
		if !recognizedOptions[key] {
			return nil, &ConfigError{Message: fmt.Sprintf("unrecognized configuration option: %s", key)}
		}
	}

	path, ok := options[ConfigFileOption]
	if !ok || path == "" {
		return nil, &ConfigError{Message: fmt.Sprintf("configuration option %s is required", ConfigFileOption)}
	}
	repo := file.NewFileRuleRepository(path)

	var ac *FileBasedAccessControl
	var err error
	if ttlValue, ok := options[CacheTTLOption]; ok {
		ttl, parseErr := time.ParseDuration(ttlValue)
		if parseErr != nil {
			return nil, &ConfigError{Message: fmt.Sprintf("invalid %s", CacheTTLOption), Err: parseErr}
		}
		maxEntries := 10000
		if entriesValue, ok := options[CacheEntriesOption]; ok {
			maxEntries, parseErr = strconv.Atoi(entriesValue)
			if parseErr != nil || maxEntries <= 0 {
				return nil, &ConfigError{Message: fmt.Sprintf("invalid %s: %q", CacheEntriesOption, entriesValue)}
			}
		}
		decisionCache := memorycache.New(&memorycache.Config{
			MaxEntries:    maxEntries,
			DefaultTTL:    ttl,
			EnableMetrics: true,
		})
		ac, err = NewFileBasedAccessControlWithCache(repo, decisionCache, ttl)
	} else {
		if _, ok := options[CacheEntriesOption]; ok {
			return nil, &ConfigError{Message: fmt.Sprintf("%s requires %s", CacheEntriesOption, CacheTTLOption)}
		}
		ac, err = NewFileBasedAccessControl(repo)
	}
	if err != nil {
		return nil, err
	}

	if periodValue, ok := options[RefreshPeriodOption]; ok {
		period, parseErr := time.ParseDuration(periodValue)
		if parseErr != nil || period <= 0 {
			ac.Close()
			return nil, &ConfigError{Message: fmt.Sprintf("invalid %s: %q", RefreshPeriodOption, periodValue)}
		}
		if err := ac.Watch(period); err != nil {
			ac.Close()
			return nil, err
		}
	}

	return ac, nil
}
