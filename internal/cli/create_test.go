package cli

import (
	"testing"
)

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"package=com.acme.billing", "use_router=false", "empty="})
	if err != nil {
		t.Fatalf("parseVars() error: %v", err)
	}
	if vars["package"] != "com.acme.billing" {
		t.Errorf("package = %q", vars["package"])
	}
	if vars["use_router"] != "false" {
		t.Errorf("use_router = %q", vars["use_router"])
	}
	if v, ok := vars["empty"]; !ok || v != "" {
		t.Errorf("empty values are allowed, got %q (present: %t)", v, ok)
	}
}

func TestParseVarsRejectsMalformedPairs(t *testing.T) {
	for _, bad := range []string{"novalue", "=orphan", ""} {
		if _, err := parseVars([]string{bad}); err == nil {
			t.Errorf("parseVars(%q) must fail", bad)
		}
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"my-app", "app2", "0day", "svc.api", "a_b"} {
		if err := validateName(ok); err != nil {
			t.Errorf("validateName(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", "My-App", "-app", ".hidden", "app name"} {
		if err := validateName(bad); err == nil {
			t.Errorf("validateName(%q) must fail", bad)
		}
	}
}
