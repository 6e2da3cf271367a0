package generator

import (
	"fmt"
	"strconv"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// ResolveVariables merges user-provided values with declared defaults and
// returns the data map handed to template rendering. Every declared
// variable is validated; a required variable with neither a value nor a
// default fails. Provided keys that are not declared pass through as
// strings so templates can use ad hoc values.
func ResolveVariables(md *manifest.Metadata, provided map[string]string) (map[string]any, error) {
	data := make(map[string]any, len(md.Variables)+len(provided))

	declared := make(map[string]bool, len(md.Variables))
	for _, v := range md.Variables {
		declared[v.Name] = true

		raw, ok := provided[v.Name]
		if !ok {
			// Required variables never fall back to a default.
			if v.Required {
				return nil, fmt.Errorf("required variable %q has no value", v.Name)
			}
			if v.Default == "" {
				data[v.Name] = zeroValue(v.Type)
				continue
			}
			raw = v.Default
		}

		if err := v.CheckValue(raw); err != nil {
			return nil, err
		}
		data[v.Name] = coerce(v.Type, raw)
	}

	for name, raw := range provided {
		if !declared[name] {
			data[name] = raw
		}
	}
	return data, nil
}

// coerce converts a validated raw value into the type templates expect,
// so boolean variables work in {{if}} actions and numbers in arithmetic.
func coerce(varType, raw string) any {
	switch varType {
	case manifest.TypeBoolean:
		b, _ := strconv.ParseBool(raw)
		return b
	case manifest.TypeNumber:
		n, _ := strconv.ParseFloat(raw, 64)
		return n
	default:
		return raw
	}
}

func zeroValue(varType string) any {
	switch varType {
	case manifest.TypeBoolean:
		return false
	case manifest.TypeNumber:
		return float64(0)
	default:
		return ""
	}
}
