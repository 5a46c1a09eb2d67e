package permissions

import "encoding/json"

// ParsePolicy decodes a PermissionConfig stored as JSON, the form in which
// an operator writes it to the "tool_policy" Setting. An empty raw string
// means no policy is configured.
func ParsePolicy(raw string) (PermissionConfig, error) {
	var cfg PermissionConfig
	if raw == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return PermissionConfig{}, err
	}
	return cfg, nil
}
