package fields

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a named field selection with option overrides, loaded from the
// optional profiles YAML file. Profiles let operators predefine enrichment
// presets (e.g. "identification" vs "full") without touching callers.
type Profile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Fields      []string `yaml:"fields"`
	MaxFeatures int      `yaml:"max_features"`
	MaxKeywords int      `yaml:"max_keywords"`
}

type profileFile struct {
	Version  string    `yaml:"version"`
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles reads named field profiles from a YAML file and validates each
// profile's field list against the registry.
func LoadProfiles(path string, registry *Registry) (map[string]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles file: %w", err)
	}

	profiles := make(map[string]Profile, len(file.Profiles))
	for _, p := range file.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile without a name in %s", path)
		}
		normalized, err := registry.Normalize(p.Fields)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		p.Fields = normalized
		profiles[p.Name] = p
	}
	return profiles, nil
}
