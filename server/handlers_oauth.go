package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-proxy/auth"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/oauthmodel"
)

// Authorize starts a flow and sends the browser to the upstream identity provider.
// Errors are reported to the caller as JSON, never redirected to the presented redirect_uri.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := oauthmodel.ParseAuthorizationParameters(r.URL.Query())
		target, err := s.auth.Authorize(r.Context(), &params)
		s.metrics.authorize.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			writeOAuthError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// Callback receives the upstream provider's redirect. It accepts an upstream code, tokens
// re-posted from the URL fragment, or an upstream error.
func (s *Server) Callback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			renderErrorPage(w, oauth2.InvalidRequest("malformed callback"))
			return
		}
		req := callbackRequestFromForm(r.Form)

		// Tokens in the fragment never reach the server. Serve a page that posts them back.
		if r.Method == http.MethodGet && req.State != "" && req.Code == "" && req.AccessToken == "" && req.Error == "" {
			renderPage(w, templateCallbackFragment, http.StatusOK, struct {
				Action string
				State  string
			}{
				Action: RouteCallback,
				State:  req.State,
			})
			return
		}

		result, err := s.auth.Callback(r.Context(), req)
		s.metrics.callback.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			if oauthErr, ok := asOAuthError(err); ok {
				renderErrorPage(w, oauthErr)
				return
			}
			log.Err(err).Msg("callback failed")
			renderErrorPage(w, oauth2.ServerError())
			return
		}

		if err := callbackRedirect(w, r, result.RedirectURI, result.ResponseMode, result.Code, result.State); err != nil {
			log.Err(err).Str("client_id", result.ClientID).Msg("failed to redirect to client")
			renderErrorPage(w, oauth2.ServerError())
		}
	}
}

func callbackRequestFromForm(form url.Values) *auth.CallbackRequest {
	req := &auth.CallbackRequest{
		State:            form.Get("state"),
		Code:             form.Get("code"),
		AccessToken:      form.Get("access_token"),
		RefreshToken:     form.Get("refresh_token"),
		Error:            form.Get("error"),
		ErrorDescription: form.Get("error_description"),
	}
	if expiresIn, err := strconv.Atoi(form.Get("expires_in")); err == nil && expiresIn > 0 {
		req.ExpiresIn = expiresIn
	}
	return req
}

// callbackRedirect hands the code to the client in the requested response mode.
func callbackRedirect(w http.ResponseWriter, r *http.Request, callbackURI string, responseMode oauth2.ResponseModeType, authCode string, state string) error {
	u, err := url.Parse(callbackURI)
	if err != nil {
		return fmt.Errorf("[callbackRedirect] invalid redirect URI: %w", err)
	}
	w.Header().Set("Cache-Control", "no-store")

	switch responseMode {
	case oauth2.FragmentResponseMode:
		params := url.Values{}
		params.Set("code", authCode)
		if state != "" {
			params.Set("state", state)
		}
		u.Fragment = params.Encode()
		http.Redirect(w, r, u.String(), http.StatusSeeOther)

	case oauth2.FormPostResponseMode:
		renderPage(w, templateFormPost, http.StatusOK, struct {
			RedirectURI string
			Code        string
			State       string
		}{
			RedirectURI: u.String(),
			Code:        authCode,
			State:       state,
		})

	default: // QueryResponseMode or empty
		q := u.Query()
		q.Set("code", authCode)
		if state != "" {
			q.Set("state", state)
		}
		u.RawQuery = q.Encode()
		http.Redirect(w, r, u.String(), http.StatusSeeOther)
	}
	return nil
}

// Token redeems an authorization code for the upstream token pair.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")

		if err := r.ParseForm(); err != nil {
			s.metrics.token.WithLabelValues(outcomeRejected).Inc()
			writeJSONError(w, oauth2.ErrCodeInvalidRequest, "request body must be application/x-www-form-urlencoded", http.StatusBadRequest)
			return
		}
		req := oauthmodel.ParseTokenRequest(r)
		resp, err := s.auth.Token(r.Context(), &req)
		s.metrics.token.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			if oauthErr, ok := asOAuthError(err); ok && oauthErr.Status == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", `Basic realm="token"`)
			}
			writeOAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func asOAuthError(err error) (*oauth2.Error, bool) {
	var oauthErr *oauth2.Error
	if errors.As(err, &oauthErr) {
		return oauthErr, true
	}
	return nil, false
}

// writeOAuthError reports protocol errors as they are and hides everything else behind server_error.
func writeOAuthError(w http.ResponseWriter, err error) {
	oauthErr, ok := asOAuthError(err)
	if !ok {
		log.Err(err).Msg("internal error")
		oauthErr = oauth2.ServerError()
	}
	status := oauthErr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	writeJSONError(w, oauthErr.Code, oauthErr.Description, status)
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to write response")
	}
}

// renderErrorPage ends a browser flow. It never redirects.
func renderErrorPage(w http.ResponseWriter, oauthErr *oauth2.Error) {
	status := oauthErr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	renderPage(w, templateError, status, struct {
		Code        string
		Description string
	}{
		Code:        oauthErr.Code,
		Description: oauthErr.Description,
	})
}
