package config

import "time"

// MaxFlowTTL caps how long pending authorizations and issued codes may live.
const MaxFlowTTL = 10 * time.Minute

type OAuthConfig interface {
	GetPendingAuthorizationTTL() time.Duration
	GetAuthCodeTimeout() time.Duration
	GetCodeGenerationLength() int
	GetDefaultClientID() string
	GetDefaultAccessTokenExpiry() time.Duration
}

type OAuth struct{ *source }

var _ OAuthConfig = OAuth{}

func (o OAuth) GetPendingAuthorizationTTL() time.Duration {
	return capTTL(o.getDuration("PENDING_TTL", MaxFlowTTL))
}

func (o OAuth) GetAuthCodeTimeout() time.Duration {
	return capTTL(o.getDuration("CODE_TTL", 5*time.Minute))
}

func (OAuth) GetCodeGenerationLength() int {
	return 32 // 32 bytes = 256 bits
}

// GetDefaultClientID is recorded on flows whose /authorize request omitted client_id.
func (o OAuth) GetDefaultClientID() string {
	return o.get("DEFAULT_CLIENT_ID", "default-client")
}

// GetDefaultAccessTokenExpiry is reported as expires_in when the upstream did not say.
func (OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}

func capTTL(d time.Duration) time.Duration {
	if d > MaxFlowTTL {
		return MaxFlowTTL
	}
	return d
}
