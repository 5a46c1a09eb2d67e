package sandbox

import "testing"

func TestCutEnv(t *testing.T) {
	tests := []struct {
		kv        string
		wantName  string
		wantValue string
		wantOK    bool
	}{
		{"FOO=bar", "FOO", "bar", true},
		{"FOO=bar=baz", "FOO", "bar=baz", true},
		{"FOO=", "FOO", "", true},
		{"noequals", "", "", false},
	}
	for _, tt := range tests {
		name, value, ok := cutEnv(tt.kv)
		if ok != tt.wantOK || name != tt.wantName || value != tt.wantValue {
			t.Errorf("cutEnv(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.kv, name, value, ok, tt.wantName, tt.wantValue, tt.wantOK)
		}
	}
}
