package oauthmodel_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/oauthmodel"
)

const testCodeChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

func validParams() oauthmodel.AuthorizationParameters {
	return oauthmodel.AuthorizationParameters{
		ClientID:            "client-1",
		ResponseType:        oauth2.CodeResponseType,
		RedirectURI:         "https://app.example.com/cb",
		CodeChallenge:       testCodeChallenge,
		CodeChallengeMethod: "S256",
	}
}

func TestParseAuthorizationParameters(t *testing.T) {
	q := url.Values{
		"client_id":             {" c1 "},
		"response_type":         {"code"},
		"redirect_uri":          {"https://app.example.com/cb"},
		"state":                 {"xyz"},
		"scope":                 {"openid email"},
		"code_challenge":        {testCodeChallenge},
		"code_challenge_method": {"S256"},
		"response_mode":         {"form_post"},
	}
	p := oauthmodel.ParseAuthorizationParameters(q)
	require.Equal(t, "c1", p.ClientID)
	require.Equal(t, "xyz", p.State)
	require.Equal(t, "openid email", p.Scope)
	require.Equal(t, oauth2.FormPostResponseMode, p.GetResponseMode())
	require.True(t, p.HasPKCE())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *oauthmodel.AuthorizationParameters)
		want   error
	}{
		{"valid", func(p *oauthmodel.AuthorizationParameters) {}, nil},
		{"missing redirect", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI = "" }, oauthmodel.ErrMissingRedirectURI},
		{"relative redirect", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI = "/cb" }, oauthmodel.ErrInvalidRedirectURI},
		{"fragment redirect", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI = "https://a.com/cb#x" }, oauthmodel.ErrInvalidRedirectURI},
		{"custom scheme", func(p *oauthmodel.AuthorizationParameters) { p.RedirectURI = "myapp://cb" }, oauthmodel.ErrInvalidRedirectURI},
		{"token response type", func(p *oauthmodel.AuthorizationParameters) { p.ResponseType = "token" }, oauthmodel.ErrInvalidResponseType},
		{"missing response type", func(p *oauthmodel.AuthorizationParameters) { p.ResponseType = "" }, oauthmodel.ErrInvalidResponseType},
		{"bad response mode", func(p *oauthmodel.AuthorizationParameters) { p.ResponseMode = "web_message" }, oauthmodel.ErrInvalidResponseMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.modify(&p)
			err := p.Validate()
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidatePKCE(t *testing.T) {
	p := validParams()
	require.NoError(t, p.ValidatePKCE(false))

	p.CodeChallenge = ""
	require.ErrorIs(t, p.ValidatePKCE(false), oauthmodel.ErrMissingCodeChallenge)

	p = validParams()
	p.CodeChallengeMethod = "plain"
	require.ErrorIs(t, p.ValidatePKCE(false), oauthmodel.ErrInvalidCodeChallengeMethod)
	require.NoError(t, p.ValidatePKCE(true))

	p = validParams()
	p.CodeChallengeMethod = "S512"
	require.ErrorIs(t, p.ValidatePKCE(true), oauthmodel.ErrInvalidCodeChallengeMethod)

	p = validParams()
	p.CodeChallenge = "tooshort"
	require.ErrorIs(t, p.ValidatePKCE(false), oauthmodel.ErrInvalidCodeChallenge)
}

func TestParseTokenRequestBasicAuth(t *testing.T) {
	form := url.Values{"grant_type": {"authorization_code"}, "code": {"abc"}}
	r := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.SetBasicAuth("client%201", "s3cr%2Ft")
	require.NoError(t, r.ParseForm())

	tr := oauthmodel.ParseTokenRequest(r)
	require.Equal(t, "authorization_code", tr.GrantType)
	require.Equal(t, "abc", tr.Code)
	require.Equal(t, "client 1", tr.ClientID)
	require.Equal(t, "s3cr/t", tr.ClientSecret)
	require.True(t, tr.UsedBasicAuth)
}

func TestParseTokenRequestPost(t *testing.T) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {"c1"},
		"client_secret": {"s"},
		"redirect_uri":  {"https://a.com/cb"},
		"code_verifier": {"v"},
	}
	r := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())

	tr := oauthmodel.ParseTokenRequest(r)
	require.Equal(t, "c1", tr.ClientID)
	require.Equal(t, "s", tr.ClientSecret)
	require.Equal(t, "https://a.com/cb", tr.RedirectURI)
	require.Equal(t, "v", tr.CodeVerifier)
	require.False(t, tr.UsedBasicAuth)
}
