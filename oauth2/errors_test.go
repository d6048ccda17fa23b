package oauth2_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/oauth2"
)

func TestErrorJSONShape(t *testing.T) {
	b, err := json.Marshal(oauth2.InvalidGrant("code expired"))
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"invalid_grant","error_description":"code expired"}`, string(b))
}

func TestErrorStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, oauth2.InvalidRequest("x").Status)
	require.Equal(t, http.StatusUnauthorized, oauth2.InvalidClient("x").Status)
	require.Equal(t, http.StatusInternalServerError, oauth2.ServerError().Status)
	require.Equal(t, "invalid_grant", oauth2.InvalidGrant("").Error())
}

func TestAuthMethodConfidential(t *testing.T) {
	require.False(t, oauth2.AuthMethodNone.IsConfidential())
	require.True(t, oauth2.AuthMethodClientSecretPost.IsConfidential())
	require.True(t, oauth2.AuthMethodClientSecretBasic.IsConfidential())
}
