package file

import (
	"fmt"

	"github.com/asakaida/monban/internal/entities"
	"github.com/spf13/viper"
)

// FileRuleRepository loads rule documents from a JSON file on disk
type FileRuleRepository struct {
	path string
}

// NewFileRuleRepository creates a repository reading the given rule document
func NewFileRuleRepository(path string) *FileRuleRepository {
	return &FileRuleRepository{path: path}
}

// Path returns the rule document location
func (r *FileRuleRepository) Path() string {
	return r.path
}

// Load reads and decodes the rule document
// Defaults: an absent pattern field matches anything; absent allow/owner
// are false; an absent privileges list grants nothing; an absent views
// list means view operations fall back to the table rules
func (r *FileRuleRepository) Load() (*entities.RuleSet, error) {
	v := viper.New()
	v.SetConfigFile(r.path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read rule document %s: %w", r.path, err)
	}

	var ruleSet entities.RuleSet
	if err := v.Unmarshal(&ruleSet); err != nil {
		return nil, fmt.Errorf("failed to decode rule document %s: %w", r.path, err)
	}
	ruleSet.HasViews = v.IsSet("views")

	if err := ruleSet.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule document %s: %w", r.path, err)
	}

	return &ruleSet, nil
}
