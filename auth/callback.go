package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-proxy/authflow"
	autherrors "github.com/jrsteele09/go-auth-proxy/internal/errors"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

// CallbackRequest is what the upstream provider sent back through the browser.
// Exactly one of Code, AccessToken or Error is expected.
type CallbackRequest struct {
	State string

	// Code is an upstream authorization code to exchange.
	Code string

	// AccessToken, RefreshToken and ExpiresIn are set when the upstream handed tokens
	// straight to the browser. They are verified before use.
	AccessToken  string
	RefreshToken string
	ExpiresIn    int

	Error            string
	ErrorDescription string
}

// CallbackResult is where to send the browser with the newly minted code.
type CallbackResult struct {
	RedirectURI  string
	ResponseMode oauth2.ResponseModeType
	Code         string
	State        string
	ClientID     string
}

// Callback completes the upstream leg. The pending authorization is consumed before any
// upstream call is made, so a state token can never be used twice, even when the
// upstream call fails. Any error returned must end the flow; the caller must not redirect.
func (as *AuthorizationService) Callback(ctx context.Context, req *CallbackRequest) (*CallbackResult, error) {
	if req.Error != "" {
		if req.State != "" {
			// the flow is over either way
			if err := as.repos.Flows.DeletePending(ctx, req.State); err != nil {
				log.Err(err).Msg("failed to remove pending authorization")
			}
		}
		log.Warn().Str("state", logPrefix(req.State)).Str("upstream_error", req.Error).Msg("upstream reported an error")
		return nil, oauth2.NewError(oauth2.ErrCodeAccessDenied, "the identity provider did not complete the login")
	}

	if req.State == "" {
		return nil, oauth2.InvalidRequest("missing state")
	}
	pending, err := as.repos.Flows.TakePending(ctx, req.State)
	if autherrors.Is(err, autherrors.ErrNotFound) || autherrors.Is(err, autherrors.ErrExpired) {
		log.Warn().Str("state", logPrefix(req.State)).Msg("callback with unknown or expired state")
		return nil, oauth2.InvalidRequest("invalid or expired state")
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Callback] take pending authorization")
	}

	tokens, err := as.upstreamTokens(ctx, req, pending)
	if err != nil {
		return nil, err
	}

	identity, err := as.provider.ResolveIdentity(ctx, tokens, upstream.WithExpectedNonce(pending.UpstreamNonce))
	if err != nil {
		log.Err(err).Str("client_id", pending.ClientID).Msg("upstream identity could not be verified")
		return nil, upstreamFailure()
	}

	code, err := generateRandomToken(as.policy.CodeLength)
	if err != nil {
		return nil, err
	}
	issued := &authflow.IssuedCode{
		Code:                 code,
		UpstreamAccessToken:  tokens.AccessToken,
		UpstreamRefreshToken: tokens.RefreshToken,
		UpstreamExpiresAt:    tokens.ExpiresAt,
		CodeChallenge:        pending.CodeChallenge,
		CodeChallengeMethod:  pending.CodeChallengeMethod,
		PKCEFallback:         pending.PKCEFallback,
		RedirectURI:          pending.RedirectURI,
		ClientID:             pending.ClientID,
		Scope:                pending.Scope,
		UserID:               identity.Subject,
		UserEmail:            identity.Email,
		ExpiresAt:            as.nowTime().Add(as.policy.CodeTTL),
	}
	if err := as.repos.Flows.SaveCode(ctx, issued); err != nil {
		return nil, errors.Wrap(err, "[Callback] save code")
	}

	log.Info().
		Str("client_id", pending.ClientID).
		Str("user_id", identity.Subject).
		Str("code", logPrefix(code)).
		Msg("authorization code issued")

	return &CallbackResult{
		RedirectURI:  pending.RedirectURI,
		ResponseMode: pending.ResponseMode,
		Code:         code,
		State:        pending.ClientState,
		ClientID:     pending.ClientID,
	}, nil
}

func (as *AuthorizationService) upstreamTokens(ctx context.Context, req *CallbackRequest, pending *authflow.PendingAuthorization) (*upstream.Tokens, error) {
	switch {
	case req.Code != "":
		tokens, err := as.provider.ExchangeCode(ctx, req.Code, pending.UpstreamVerifier)
		if err != nil {
			log.Err(err).Str("client_id", pending.ClientID).Msg("upstream code exchange failed")
			return nil, upstreamFailure()
		}
		if tokens.AccessToken == "" {
			log.Err(autherrors.ErrUpstreamNoToken).Str("client_id", pending.ClientID).Msg("upstream code exchange failed")
			return nil, upstreamFailure()
		}
		return tokens, nil
	case req.AccessToken != "":
		tokens := &upstream.Tokens{
			AccessToken:  req.AccessToken,
			RefreshToken: req.RefreshToken,
			TokenType:    oauth2.BearerTokenType,
		}
		if req.ExpiresIn > 0 {
			tokens.ExpiresAt = as.nowTime().Add(time.Duration(req.ExpiresIn) * time.Second)
		}
		return tokens, nil
	}
	return nil, oauth2.InvalidRequest("callback carried neither a code nor a token")
}

func upstreamFailure() *oauth2.Error {
	return &oauth2.Error{
		Code:        oauth2.ErrCodeAccessDenied,
		Description: "the identity provider login could not be verified",
		Status:      http.StatusBadGateway,
	}
}
