package config

type UpstreamConfig interface {
	GetUpstreamType() string
	GetUpstreamURL() string
	GetUpstreamAPIKey() string
	GetUpstreamProvider() string
	GetUpstreamJWTSecret() string
	GetUpstreamJWTAudience() string
	GetOIDCIssuer() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCScopes() []string
}

type Upstream struct{ *source }

var _ UpstreamConfig = Upstream{}

// GetUpstreamType selects the identity provider integration: "hosted" or "oidc".
func (u Upstream) GetUpstreamType() string {
	return u.get("UPSTREAM_TYPE", "hosted")
}

// GetUpstreamURL is the base URL of the hosted identity service (e.g. https://xyz.example.co).
func (u Upstream) GetUpstreamURL() string {
	return u.get("UPSTREAM_URL", "")
}

func (u Upstream) GetUpstreamAPIKey() string {
	return u.get("UPSTREAM_API_KEY", "")
}

// GetUpstreamProvider is the login method requested from the hosted service, e.g. "google".
func (u Upstream) GetUpstreamProvider() string {
	return u.get("UPSTREAM_PROVIDER", "google")
}

func (u Upstream) GetUpstreamJWTSecret() string {
	return u.get("UPSTREAM_JWT_SECRET", "")
}

// GetUpstreamJWTAudience is the aud claim required on hosted access tokens.
func (u Upstream) GetUpstreamJWTAudience() string {
	return u.get("UPSTREAM_JWT_AUDIENCE", "authenticated")
}

func (u Upstream) GetOIDCIssuer() string {
	return u.get("OIDC_ISSUER", "")
}

func (u Upstream) GetOIDCClientID() string {
	return u.get("OIDC_CLIENT_ID", "")
}

func (u Upstream) GetOIDCClientSecret() string {
	return u.get("OIDC_CLIENT_SECRET", "")
}

func (u Upstream) GetOIDCScopes() []string {
	return u.getList("OIDC_SCOPES", "openid,email,profile,offline_access")
}
