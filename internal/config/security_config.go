package config

type SecurityConfig interface {
	GetAllowPKCEPlain() bool
	GetPKCEFallback() bool
	GetStrictClients() bool
	GetEnableRateLimiting() bool
	GetRegistrationRatePerMinute() int
}

type Security struct{ *source }

var _ SecurityConfig = Security{}

func (s Security) GetAllowPKCEPlain() bool {
	return s.getBool("ALLOW_PKCE_PLAIN", false)
}

// GetPKCEFallback enables the lenient mode for clients that send no PKCE parameters.
// Codes issued this way are not bound to a client-held secret.
func (s Security) GetPKCEFallback() bool {
	return s.getBool("PKCE_FALLBACK", false)
}

// GetStrictClients rejects /authorize requests from client ids that were never registered.
func (s Security) GetStrictClients() bool {
	return s.getBool("STRICT_CLIENTS", false)
}

func (s Security) GetEnableRateLimiting() bool {
	return s.GetRegistrationRatePerMinute() > 0
}

func (s Security) GetRegistrationRatePerMinute() int {
	return s.getInt("REGISTRATION_RATE", 0)
}
