// Package cli wires the projgen commands: project generation, template
// listing and inspection, source refresh, and cache maintenance.
package cli
