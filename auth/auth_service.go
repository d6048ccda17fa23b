package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-auth-proxy/authflow"
	"github.com/jrsteele09/go-auth-proxy/clients"
	"github.com/jrsteele09/go-auth-proxy/internal/config"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

const (
	stateTokenLength = 32 // 256 bits
	nonceLength      = 16
)

// Repos holds all repository dependencies for the AuthorizationService
type Repos struct {
	Flows   authflow.Repo // Pending authorizations and issued codes
	Clients clients.Repo  // Dynamically registered clients
}

// Policy holds the tunables of the authorization flow.
type Policy struct {
	PendingTTL           time.Duration
	CodeTTL              time.Duration
	CodeLength           int
	DefaultClientID      string
	DefaultTokenLifetime time.Duration

	// AllowPKCEPlain accepts code_challenge_method=plain from clients.
	AllowPKCEPlain bool

	// PKCEFallback lets clients that send no PKCE parameters through by recording a
	// self-generated plain challenge. The resulting code is not bound to anything the
	// client holds, so the token endpoint accepts it without a verifier.
	PKCEFallback bool

	// StrictClients rejects client ids that were never registered.
	StrictClients bool
}

// DefaultPolicy is the strict policy: PKCE S256 required, unknown clients tolerated.
func DefaultPolicy() Policy {
	return Policy{
		PendingTTL:           config.MaxFlowTTL,
		CodeTTL:              5 * time.Minute,
		CodeLength:           32,
		DefaultClientID:      "default-client",
		DefaultTokenLifetime: time.Hour,
	}
}

// PolicyFromConfig reads the policy from configuration.
func PolicyFromConfig(cfg config.Config) Policy {
	return Policy{
		PendingTTL:           cfg.GetPendingAuthorizationTTL(),
		CodeTTL:              cfg.GetAuthCodeTimeout(),
		CodeLength:           cfg.GetCodeGenerationLength(),
		DefaultClientID:      cfg.GetDefaultClientID(),
		DefaultTokenLifetime: cfg.GetDefaultAccessTokenExpiry(),
		AllowPKCEPlain:       cfg.GetAllowPKCEPlain(),
		PKCEFallback:         cfg.GetPKCEFallback(),
		StrictClients:        cfg.GetStrictClients(),
	}
}

// AuthorizationService bridges the client facing authorization code flow to the upstream provider.
// Each step is a separate call correlated only by the records in Repos.Flows.
type AuthorizationService struct {
	repos     Repos
	provider  upstream.Provider
	policy    Policy
	validator *Validator
	nowTime   func() time.Time
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

func WithPolicy(policy Policy) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.policy = policy
	}
}

// NewAuthorizationService initializes a new AuthorizationService with required dependencies.
func NewAuthorizationService(
	repos Repos,
	provider upstream.Provider,
	options ...AuthorizationServiceOption,
) (*AuthorizationService, error) {
	if repos.Flows == nil {
		return nil, errors.New("[NewAuthorizationService] Flows repo is required")
	}
	if repos.Clients == nil {
		return nil, errors.New("[NewAuthorizationService] Clients repo is required")
	}
	if provider == nil {
		return nil, errors.New("[NewAuthorizationService] upstream provider is required")
	}

	authService := &AuthorizationService{
		repos:    repos,
		provider: provider,
		policy:   DefaultPolicy(),
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(authService)
	}
	if authService.policy.CodeLength < 16 {
		authService.policy.CodeLength = 32
	}
	if authService.policy.PendingTTL <= 0 || authService.policy.PendingTTL > config.MaxFlowTTL {
		authService.policy.PendingTTL = config.MaxFlowTTL
	}
	if authService.policy.CodeTTL <= 0 || authService.policy.CodeTTL > config.MaxFlowTTL {
		authService.policy.CodeTTL = config.MaxFlowTTL
	}
	authService.validator = NewValidator(authService.policy)
	return authService, nil
}

// Policy returns the effective policy.
func (as *AuthorizationService) Policy() Policy {
	return as.policy
}

// Provider returns the upstream provider, used by the resource gate to check bearer tokens.
func (as *AuthorizationService) Provider() upstream.Provider {
	return as.provider
}

func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[generateRandomToken]")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// logPrefix shortens a secret value for log lines.
func logPrefix(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
