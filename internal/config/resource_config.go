package config

type ResourceConfig interface {
	GetResourceURL() string
	GetResourceUpstream() string
}

type Resource struct{ *source }

var _ ResourceConfig = Resource{}

// GetResourceURL identifies the protected resource in its metadata document.
// Empty means BASE_URL + "/mcp".
func (r Resource) GetResourceURL() string {
	return r.get("RESOURCE_URL", "")
}

// GetResourceUpstream is the tool server that /mcp is proxied to once a bearer token checks out.
func (r Resource) GetResourceUpstream() string {
	return r.get("RESOURCE_UPSTREAM", "")
}
