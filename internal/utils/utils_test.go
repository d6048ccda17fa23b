package utils_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/internal/utils"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
)

func TestToStrings(t *testing.T) {
	methods := []oauth2.TokenEndpointAuthMethod{oauth2.AuthMethodNone, oauth2.AuthMethodClientSecretBasic}
	require.Equal(t, []string{"none", "client_secret_basic"}, utils.ToStrings(methods))
	require.Empty(t, utils.ToStrings([]oauth2.GrantType(nil)))
}

func TestPointers(t *testing.T) {
	require.Equal(t, int64(0), utils.Value[int64](nil))
	require.Equal(t, int64(7), utils.Value(utils.Ptr(int64(7))))
}
