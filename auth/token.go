package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	autherrors "github.com/jrsteele09/go-auth-proxy/internal/errors"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/oauthmodel"
	"github.com/jrsteele09/go-auth-proxy/pkce"
)

// Token redeems an authorization code. The checks run in a fixed order and the first failure
// is returned. The code is consumed with an atomic take only once every check has passed,
// and it stays consumed whatever happens to the response afterwards.
func (as *AuthorizationService) Token(ctx context.Context, req *oauthmodel.TokenRequest) (*oauth2.TokenResponse, error) {
	// 1. grant type
	if oauth2.GrantType(req.GrantType) != oauth2.AuthorizationCodeGrant {
		return nil, oauth2.NewError(oauth2.ErrCodeUnsupportedGrantType, "grant_type must be authorization_code")
	}

	// client authentication, when the caller identifies itself
	if req.ClientID != "" {
		client, err := as.lookupClient(ctx, req.ClientID)
		if err != nil {
			return nil, errors.Wrap(err, "[Token] client lookup")
		}
		if err := as.validator.ValidateClientCredentials(req, client); err != nil {
			return nil, err
		}
	} else if req.ClientSecret != "" || req.UsedBasicAuth {
		return nil, oauth2.InvalidClient("client authentication failed")
	}

	// 2. code present and known, 3. not expired
	if req.Code == "" {
		return nil, oauth2.InvalidGrant("missing code")
	}
	code, err := as.repos.Flows.GetCode(ctx, req.Code)
	switch {
	case autherrors.Is(err, autherrors.ErrNotFound):
		return nil, oauth2.InvalidGrant("invalid authorization code")
	case autherrors.Is(err, autherrors.ErrExpired):
		if delErr := as.repos.Flows.DeleteCode(ctx, req.Code); delErr != nil {
			log.Err(delErr).Msg("failed to purge expired code")
		}
		return nil, oauth2.InvalidGrant("invalid authorization code")
	case err != nil:
		return nil, errors.Wrap(err, "[Token] get code")
	}

	if req.ClientID != "" && req.ClientID != code.ClientID {
		return nil, oauth2.InvalidGrant("invalid authorization code")
	}
	if req.ClientID == "" {
		// the code was issued to a confidential client that did not authenticate
		client, err := as.lookupClient(ctx, code.ClientID)
		if err != nil {
			return nil, errors.Wrap(err, "[Token] client lookup")
		}
		if client != nil && !client.IsPublic() {
			return nil, oauth2.InvalidClient("client authentication required")
		}
	}

	// 4. verifier present, 5. verifier matches the recorded challenge and method
	if code.PKCEFallback {
		log.Warn().Str("client_id", code.ClientID).Msg("redeeming code issued without client PKCE")
	} else {
		if req.CodeVerifier == "" {
			return nil, oauth2.InvalidRequest("missing code_verifier")
		}
		if !pkce.Verify(req.CodeVerifier, code.CodeChallenge, code.CodeChallengeMethod) {
			return nil, oauth2.InvalidGrant("code_verifier does not match")
		}
	}

	// 6. redirect_uri identical to the one given at /authorize
	if !redirectURIMatches(code.RedirectURI, req.RedirectURI) {
		return nil, oauth2.InvalidGrant("redirect_uri does not match")
	}

	// 7. consume. Losing a race with a concurrent exchange of the same code lands here.
	taken, err := as.repos.Flows.TakeCode(ctx, req.Code)
	switch {
	case autherrors.Is(err, autherrors.ErrNotFound), autherrors.Is(err, autherrors.ErrExpired):
		return nil, oauth2.InvalidGrant("invalid authorization code")
	case err != nil:
		return nil, errors.Wrap(err, "[Token] take code")
	}

	// 8. hand over the upstream tokens
	now := as.nowTime()
	expiresIn := int(as.policy.DefaultTokenLifetime.Seconds())
	if !taken.UpstreamExpiresAt.IsZero() {
		expiresIn = max(int(taken.UpstreamExpiresAt.Sub(now).Seconds()), 0)
	}

	log.Info().
		Str("client_id", taken.ClientID).
		Str("user_id", taken.UserID).
		Str("code", logPrefix(req.Code)).
		Msg("authorization code exchanged")

	return &oauth2.TokenResponse{
		AccessToken:  taken.UpstreamAccessToken,
		TokenType:    oauth2.BearerTokenType,
		ExpiresIn:    expiresIn,
		RefreshToken: taken.UpstreamRefreshToken,
		Scope:        taken.Scope,
	}, nil
}
