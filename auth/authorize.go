package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-proxy/authflow"
	"github.com/jrsteele09/go-auth-proxy/clients"
	autherrors "github.com/jrsteele09/go-auth-proxy/internal/errors"
	"github.com/jrsteele09/go-auth-proxy/oauthmodel"
	"github.com/jrsteele09/go-auth-proxy/pkce"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

// Authorize starts an authorization attempt. It validates the client's request, records a
// PendingAuthorization under a fresh state token and returns the upstream login URL the
// browser should be sent to. Nothing is stored when validation fails.
func (as *AuthorizationService) Authorize(ctx context.Context, params *oauthmodel.AuthorizationParameters) (string, error) {
	if err := as.validator.ValidateAuthorizationRequest(params); err != nil {
		return "", err
	}

	clientID := params.ClientID
	if clientID == "" {
		clientID = as.policy.DefaultClientID
	}
	client, err := as.lookupClient(ctx, clientID)
	if err != nil {
		return "", errors.Wrap(err, "[Authorize] client lookup")
	}
	if err := as.validator.ValidateClientRedirect(client, params.RedirectURI); err != nil {
		return "", err
	}

	pending := &authflow.PendingAuthorization{
		ClientState:  params.State,
		ClientID:     clientID,
		RedirectURI:  params.RedirectURI,
		Scope:        params.Scope,
		ResponseMode: params.GetResponseMode(),
	}

	switch {
	case params.HasPKCE():
		if err := as.validator.ValidatePKCE(params); err != nil {
			return "", err
		}
		method, _ := pkce.ParseMethod(params.CodeChallengeMethod)
		pending.CodeChallenge = params.CodeChallenge
		pending.CodeChallengeMethod = method
	case as.policy.PKCEFallback:
		self, err := pkce.NewVerifier()
		if err != nil {
			return "", errors.Wrap(err, "[Authorize] fallback challenge")
		}
		pending.CodeChallenge = self
		pending.CodeChallengeMethod = pkce.MethodPlain
		pending.PKCEFallback = true
		log.Warn().Str("client_id", clientID).Msg("client sent no PKCE parameters, issuing unbound code")
	default:
		return "", as.validator.ValidatePKCE(params)
	}

	if pending.StateToken, err = generateRandomToken(stateTokenLength); err != nil {
		return "", err
	}
	if pending.UpstreamVerifier, err = pkce.NewVerifier(); err != nil {
		return "", errors.Wrap(err, "[Authorize] upstream verifier")
	}
	if pending.UpstreamNonce, err = generateRandomToken(nonceLength); err != nil {
		return "", err
	}
	upstreamChallenge, err := pkce.Challenge(pending.UpstreamVerifier, pkce.MethodS256)
	if err != nil {
		return "", errors.Wrap(err, "[Authorize] upstream challenge")
	}

	now := as.nowTime()
	pending.CreatedAt = now
	pending.ExpiresAt = now.Add(as.policy.PendingTTL)

	if err := as.repos.Flows.SavePending(ctx, pending); err != nil {
		return "", errors.Wrap(err, "[Authorize] save pending authorization")
	}

	redirect, err := as.provider.AuthorizationURL(pending.StateToken, upstreamChallenge, upstream.WithNonce(pending.UpstreamNonce))
	if err != nil {
		if delErr := as.repos.Flows.DeletePending(ctx, pending.StateToken); delErr != nil {
			log.Err(delErr).Msg("failed to remove pending authorization")
		}
		return "", errors.Wrap(err, "[Authorize] build upstream url")
	}

	log.Info().
		Str("client_id", clientID).
		Str("state", logPrefix(pending.StateToken)).
		Str("provider", as.provider.Name()).
		Msg("authorization started")
	return redirect, nil
}

// lookupClient returns nil without error for client ids that are not registered.
func (as *AuthorizationService) lookupClient(ctx context.Context, clientID string) (*clients.Client, error) {
	client, err := as.repos.Clients.Get(ctx, clientID)
	if autherrors.Is(err, autherrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
