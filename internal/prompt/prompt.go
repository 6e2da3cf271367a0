package prompt

import (
	"context"
	"fmt"
	"strconv"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// ForVariables asks for every declared variable that has no provided
// value and returns the completed raw value map. Provided values are
// passed through untouched; answers are validated against the variable
// declaration before being accepted.
func ForVariables(ctx context.Context, d Driver, md *manifest.Metadata, provided map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(md.Variables)+len(provided))
	for k, v := range provided {
		values[k] = v
	}

	for _, v := range md.Variables {
		if _, ok := values[v.Name]; ok {
			continue
		}

		answer, err := askOne(ctx, d, v)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			if v.Required {
				return nil, fmt.Errorf("required variable %q needs a value", v.Name)
			}
			continue // let defaults apply downstream
		}
		if err := v.CheckValue(answer); err != nil {
			return nil, err
		}
		values[v.Name] = answer
	}
	return values, nil
}

// askOne prompts for a single variable with the prompt style matching its
// declared type.
func askOne(ctx context.Context, d Driver, v manifest.Variable) (string, error) {
	message := v.Name
	if v.Description != "" {
		message = fmt.Sprintf("%s (%s)", v.Description, v.Name)
	}

	switch v.Type {
	case manifest.TypeBoolean:
		def, _ := strconv.ParseBool(v.Default)
		answer, err := d.Confirm(ctx, ConfirmConfig{Message: message, Default: def})
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(answer), nil

	case manifest.TypeChoice:
		idx, err := d.Select(ctx, SelectConfig{
			Message:      message,
			Options:      v.Options,
			DefaultIndex: indexOf(v.Options, v.Default),
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(v.Options) {
			return "", fmt.Errorf("no option selected for %q", v.Name)
		}
		return v.Options[idx], nil

	default:
		return d.Input(ctx, InputConfig{Message: message, Default: v.Default})
	}
}
