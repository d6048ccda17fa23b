// Package authflow persists the two short lived records of an authorization attempt:
// the pending authorization created at /authorize and the code issued at /callback.
package authflow

import (
	"time"

	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/pkce"
)

// PendingAuthorization is one in-flight authorization attempt, keyed by StateToken.
// It is consumed exactly once when the upstream callback arrives.
type PendingAuthorization struct {
	StateToken          string                  `json:"stateToken"`
	ClientState         string                  `json:"clientState,omitempty"`
	ClientID            string                  `json:"clientId"`
	RedirectURI         string                  `json:"redirectUri"`
	Scope               string                  `json:"scope,omitempty"`
	CodeChallenge       string                  `json:"codeChallenge"`
	CodeChallengeMethod pkce.Method             `json:"codeChallengeMethod"`
	ResponseMode        oauth2.ResponseModeType `json:"responseMode,omitempty"`

	// PKCEFallback marks a flow whose client sent no PKCE parameters and was given a
	// self-generated plain challenge. Such codes are not bound to a client held secret.
	PKCEFallback bool `json:"pkceFallback,omitempty"`

	// Secrets for the leg between this server and the upstream provider. Never sent to the client.
	UpstreamVerifier string `json:"upstreamVerifier,omitempty"`
	UpstreamNonce    string `json:"upstreamNonce,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssuedCode is an authorization code handed to the client and not yet exchanged.
type IssuedCode struct {
	Code                 string      `json:"code"`
	UpstreamAccessToken  string      `json:"upstreamAccessToken"`
	UpstreamRefreshToken string      `json:"upstreamRefreshToken,omitempty"`
	UpstreamExpiresAt    time.Time   `json:"upstreamExpiresAt,omitempty"`
	CodeChallenge        string      `json:"codeChallenge"`
	CodeChallengeMethod  pkce.Method `json:"codeChallengeMethod"`
	PKCEFallback         bool        `json:"pkceFallback,omitempty"`
	RedirectURI          string      `json:"redirectUri"`
	ClientID             string      `json:"clientId"`
	Scope                string      `json:"scope,omitempty"`

	// UserID and UserEmail are for logging only.
	UserID    string `json:"userId,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`

	ExpiresAt time.Time `json:"expiresAt"`
}

func expired(expiresAt, now time.Time) bool {
	return !now.Before(expiresAt)
}
