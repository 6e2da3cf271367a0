package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// scriptDriver replays canned answers keyed by prompt kind, in order.
type scriptDriver struct {
	inputs   []string
	confirms []bool
	selects  []int
	err      error

	asked []string
}

func (s *scriptDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if s.err != nil {
		return "", s.err
	}
	out := s.inputs[0]
	s.inputs = s.inputs[1:]
	return out, nil
}

func (s *scriptDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, cfg.Message)
	if s.err != nil {
		return false, s.err
	}
	out := s.confirms[0]
	s.confirms = s.confirms[1:]
	return out, nil
}

func (s *scriptDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	s.asked = append(s.asked, cfg.Message)
	if s.err != nil {
		return 0, s.err
	}
	out := s.selects[0]
	s.selects = s.selects[1:]
	return out, nil
}

func promptMetadata() *manifest.Metadata {
	return &manifest.Metadata{
		Name:        "vue-basic",
		ProjectType: "vue",
		Variables: []manifest.Variable{
			{Name: "project_name", Description: "Project name", Required: true},
			{Name: "use_router", Type: manifest.TypeBoolean, Default: "true"},
			{Name: "css", Type: manifest.TypeChoice, Options: []string{"plain", "scss"}, Default: "plain"},
		},
	}
}

func TestForVariables(t *testing.T) {
	d := &scriptDriver{
		inputs:   []string{"my-app"},
		confirms: []bool{false},
		selects:  []int{1},
	}

	values, err := ForVariables(context.Background(), d, promptMetadata(), nil)
	if err != nil {
		t.Fatalf("ForVariables() error: %v", err)
	}

	want := map[string]string{
		"project_name": "my-app",
		"use_router":   "false",
		"css":          "scss",
	}
	for k, v := range want {
		if values[k] != v {
			t.Errorf("values[%q] = %q, want %q", k, values[k], v)
		}
	}
	if len(d.asked) != 3 {
		t.Errorf("asked %d prompts, want 3: %v", len(d.asked), d.asked)
	}
}

func TestForVariablesSkipsProvided(t *testing.T) {
	d := &scriptDriver{
		confirms: []bool{true},
		selects:  []int{0},
	}

	provided := map[string]string{"project_name": "preset"}
	values, err := ForVariables(context.Background(), d, promptMetadata(), provided)
	if err != nil {
		t.Fatalf("ForVariables() error: %v", err)
	}
	if values["project_name"] != "preset" {
		t.Errorf("provided value was overridden: %q", values["project_name"])
	}
	if len(d.asked) != 2 {
		t.Errorf("asked %d prompts, want 2: %v", len(d.asked), d.asked)
	}
}

func TestForVariablesRequiredEmptyAnswer(t *testing.T) {
	d := &scriptDriver{
		inputs:   []string{""},
		confirms: []bool{true},
		selects:  []int{0},
	}

	if _, err := ForVariables(context.Background(), d, promptMetadata(), nil); err == nil {
		t.Fatal("an empty answer for a required variable must fail")
	}
}

func TestForVariablesPropagatesAbort(t *testing.T) {
	d := &scriptDriver{err: ErrAborted}

	_, err := ForVariables(context.Background(), d, promptMetadata(), nil)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
}
