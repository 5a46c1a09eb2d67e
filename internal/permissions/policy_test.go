package permissions

import "testing"

func TestParsePolicy_Empty(t *testing.T) {
	cfg, err := ParsePolicy("")
	if err != nil {
		t.Fatalf("ParsePolicy: %v", err)
	}
	if len(cfg.AllowedTools) != 0 {
		t.Fatalf("expected zero-value policy, got %+v", cfg)
	}
}

func TestParsePolicy_Decodes(t *testing.T) {
	raw := `{"allowed_tools":["Read","Bash"],"denied_commands":["rm -rf *"]}`
	cfg, err := ParsePolicy(raw)
	if err != nil {
		t.Fatalf("ParsePolicy: %v", err)
	}
	if len(cfg.AllowedTools) != 2 || cfg.AllowedTools[0] != "Read" {
		t.Fatalf("unexpected allowed tools: %+v", cfg.AllowedTools)
	}
	if len(cfg.DeniedCommands) != 1 {
		t.Fatalf("unexpected denied commands: %+v", cfg.DeniedCommands)
	}
}

func TestParsePolicy_InvalidJSON(t *testing.T) {
	if _, err := ParsePolicy("not json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestGate_ValidateAllowedTools_AllPermitted(t *testing.T) {
	gate := NewGate(PermissionConfig{AllowedTools: []string{"Read", "Bash", "Write"}})

	d := gate.ValidateAllowedTools([]string{"Read", "Bash"})
	if !d.Allowed {
		t.Fatalf("expected allowed, got denied: %s", d.Reason)
	}
}

func TestGate_ValidateAllowedTools_RejectsFirstUnpermitted(t *testing.T) {
	gate := NewGate(PermissionConfig{AllowedTools: []string{"Read"}})

	d := gate.ValidateAllowedTools([]string{"Read", "Bash"})
	if d.Allowed {
		t.Fatal("expected denied since Bash is not in the policy")
	}
	if d.Reason != "tool not permitted by policy: Bash" {
		t.Fatalf("unexpected reason: %s", d.Reason)
	}
}

func TestGate_ValidateAllowedTools_EmptyRequestAlwaysAllowed(t *testing.T) {
	gate := NewGate(PermissionConfig{AllowedTools: []string{"Read"}})

	d := gate.ValidateAllowedTools(nil)
	if !d.Allowed {
		t.Fatalf("expected allowed for an empty request, got denied: %s", d.Reason)
	}
}
