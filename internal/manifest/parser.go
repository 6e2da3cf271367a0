package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// descriptorNames is the fallback order for finding descriptor files.
var descriptorNames = []string{"template.json", "template.yaml"}

// ErrNotFound indicates a directory carries no template descriptor.
// Distinct from a malformed descriptor, which is a parse error.
var ErrNotFound = errors.New("manifest: no template descriptor found")

// DescriptorPath returns the path of the descriptor file inside dir.
// Fallback order: template.json > template.yaml.
func DescriptorPath(dir string) (string, error) {
	for _, name := range descriptorNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
}

// IsDescriptorFile returns true if the filename is a recognized descriptor.
func IsDescriptorFile(name string) bool {
	for _, n := range descriptorNames {
		if name == n {
			return true
		}
	}
	return false
}

// Load reads and parses the descriptor in the given template directory.
// A missing descriptor returns ErrNotFound; malformed content returns a
// parse or validation error.
func Load(dir string) (*Metadata, error) {
	path, err := DescriptorPath(dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads and parses a descriptor file at the given path. The
// content is validated against the embedded JSON Schema before decoding,
// so schema violations carry the instance path of the offending field.
func LoadFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor %s: %w", path, err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", path, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("descriptor %s: %s", path, formatIssues(result.Issues))
	}

	var md Metadata
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, &md); err != nil {
			return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &md); err != nil {
			return nil, fmt.Errorf("parsing descriptor %s: %w", path, err)
		}
	}

	if err := md.Check(); err != nil {
		return nil, fmt.Errorf("descriptor %s: %w", path, err)
	}
	return &md, nil
}

// Check verifies the structural invariants of a parsed descriptor.
func (m *Metadata) Check() error {
	if m.Name == "" {
		return fmt.Errorf("missing required field 'name'")
	}
	if m.ProjectType == "" {
		return fmt.Errorf("missing required field 'project_type'")
	}
	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			return fmt.Errorf("invalid version %q: %w", m.Version, err)
		}
	}
	seen := make(map[string]bool, len(m.Variables))
	for i := range m.Variables {
		v := &m.Variables[i]
		if err := v.Check(); err != nil {
			return err
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variable %q", v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// Check verifies a single variable declaration. An empty type defaults to
// string; a choice variable must declare at least one option.
func (v *Variable) Check() error {
	if v.Name == "" {
		return fmt.Errorf("variable with empty name")
	}
	if v.Type == "" {
		v.Type = TypeString
	}
	valid := false
	for _, t := range ValidVariableTypes {
		if v.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("variable %q: unknown type %q", v.Name, v.Type)
	}
	if v.Type == TypeChoice && len(v.Options) == 0 {
		return fmt.Errorf("variable %q: choice type requires non-empty options", v.Name)
	}
	if v.Default != "" && !v.Required {
		if err := v.CheckValue(v.Default); err != nil {
			return fmt.Errorf("variable %q: invalid default: %w", v.Name, err)
		}
	}
	return nil
}

// CheckValue verifies that a supplied value is acceptable for the variable's
// declared type.
func (v *Variable) CheckValue(value string) error {
	switch v.Type {
	case TypeBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%q is not a boolean", value)
		}
	case TypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%q is not a number", value)
		}
	case TypeChoice:
		for _, opt := range v.Options {
			if value == opt {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %s", value, strings.Join(v.Options, ", "))
	}
	return nil
}
