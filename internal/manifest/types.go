package manifest

// Metadata describes a single template: identity, the project type it
// scaffolds, and the variables the rendering stage must supply.
type Metadata struct {
	Name         string     `json:"name" yaml:"name"`
	Version      string     `json:"version" yaml:"version"`
	Description  string     `json:"description" yaml:"description"`
	Author       string     `json:"author,omitempty" yaml:"author,omitempty"`
	ProjectType  string     `json:"project_type" yaml:"project_type"`
	Variables    []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Tags         []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Variable represents a substitution variable declared by a template.
// If Required is true, Default is ignored by downstream consumers.
type Variable struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Variable type constants for the type discriminator field.
const (
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeNumber  = "number"
	TypeChoice  = "choice"
)

// ValidVariableTypes contains all valid variable type values.
var ValidVariableTypes = []string{
	TypeString,
	TypeBoolean,
	TypeNumber,
	TypeChoice,
}
