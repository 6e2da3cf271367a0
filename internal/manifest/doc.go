// Package manifest handles parsing and validation of template descriptors.
// Every resolvable template directory carries a template.json (or
// template.yaml) descriptor declaring its name, project type, substitution
// variables, dependencies, and tags. Descriptors are validated against the
// JSON Schema embedded in the schema/ directory.
package manifest
