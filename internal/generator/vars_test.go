package generator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/projgen-labs/projgen/internal/manifest"
)

func TestResolveVariables(t *testing.T) {
	md := &manifest.Metadata{
		Name:        "vue-basic",
		ProjectType: "vue",
		Variables: []manifest.Variable{
			{Name: "project_name", Type: manifest.TypeString, Required: true},
			{Name: "port", Type: manifest.TypeNumber, Default: "3000"},
			{Name: "use_router", Type: manifest.TypeBoolean, Default: "true"},
			{Name: "css", Type: manifest.TypeChoice, Options: []string{"plain", "scss"}, Default: "plain"},
			{Name: "description"},
		},
	}

	tests := []struct {
		name     string
		provided map[string]string
		want     map[string]any
		wantErr  string
	}{
		{
			name:     "defaults fill the gaps",
			provided: map[string]string{"project_name": "my-app"},
			want: map[string]any{
				"project_name": "my-app",
				"port":         float64(3000),
				"use_router":   true,
				"css":          "plain",
				"description":  "",
			},
		},
		{
			name: "provided values override defaults",
			provided: map[string]string{
				"project_name": "my-app",
				"port":         "8080",
				"use_router":   "false",
				"css":          "scss",
			},
			want: map[string]any{
				"project_name": "my-app",
				"port":         float64(8080),
				"use_router":   false,
				"css":          "scss",
				"description":  "",
			},
		},
		{
			name: "undeclared values pass through",
			provided: map[string]string{
				"project_name": "my-app",
				"license":      "MIT",
			},
			want: map[string]any{
				"project_name": "my-app",
				"port":         float64(3000),
				"use_router":   true,
				"css":          "plain",
				"description":  "",
				"license":      "MIT",
			},
		},
		{
			name:     "missing required variable",
			provided: map[string]string{},
			wantErr:  "project_name",
		},
		{
			name: "invalid boolean",
			provided: map[string]string{
				"project_name": "my-app",
				"use_router":   "maybe",
			},
			wantErr: "use_router",
		},
		{
			name: "invalid number",
			provided: map[string]string{
				"project_name": "my-app",
				"port":         "eighty",
			},
			wantErr: "port",
		},
		{
			name: "choice outside options",
			provided: map[string]string{
				"project_name": "my-app",
				"css":          "tailwind",
			},
			wantErr: "css",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveVariables(md, tc.provided)
			if tc.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error mentioning %q, got none", tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveVariables() error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("resolved data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveVariablesRequiredIgnoresDefault(t *testing.T) {
	md := &manifest.Metadata{
		Name:        "t",
		ProjectType: "vue",
		Variables: []manifest.Variable{
			{Name: "project_name", Required: true, Default: "fallback"},
		},
	}

	if _, err := ResolveVariables(md, nil); err == nil {
		t.Fatal("a required variable must not fall back to its default")
	}
}
