package ratelimit

// Scope identifies which public endpoint a counter protects
type Scope string

const (
	// ScopeAccess limits anonymous access checks (tag scans)
	ScopeAccess Scope = "access"
	// ScopeVerify limits token verification attempts
	ScopeVerify Scope = "verify"
)

// DefaultWindowSeconds is the fixed window used for per-tag limits
const DefaultWindowSeconds = 60

// ScopeConfig describes the counter for one scope
type ScopeConfig struct {
	Scope         Scope
	WindowSeconds int
	Description   string
}

// DefaultScopeConfigs lists the scopes exposed by the service
var DefaultScopeConfigs = map[Scope]ScopeConfig{
	ScopeAccess: {
		Scope:         ScopeAccess,
		WindowSeconds: DefaultWindowSeconds,
		Description:   "Access checks per tag per minute",
	},
	ScopeVerify: {
		Scope:         ScopeVerify,
		WindowSeconds: DefaultWindowSeconds,
		Description:   "Token verifications per tag per minute",
	},
}

// GetWindowForScope returns the window for a scope
func GetWindowForScope(scope Scope) int {
	if config, exists := DefaultScopeConfigs[scope]; exists {
		return config.WindowSeconds
	}
	return DefaultWindowSeconds
}
