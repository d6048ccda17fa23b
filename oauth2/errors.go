package oauth2

import (
	"fmt"
	"net/http"
)

// Error codes from RFC 6749 section 4.1.2.1 / 5.2, RFC 6750 and RFC 7591 section 3.2.2.
const (
	ErrCodeInvalidRequest          = "invalid_request"
	ErrCodeInvalidClient           = "invalid_client"
	ErrCodeInvalidGrant            = "invalid_grant"
	ErrCodeInvalidState            = "invalid_state"
	ErrCodeUnauthorizedClient      = "unauthorized_client"
	ErrCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrCodeUnsupportedResponseType = "unsupported_response_type"
	ErrCodeAccessDenied            = "access_denied"
	ErrCodeServerError             = "server_error"
	ErrCodeTemporarilyUnavailable  = "temporarily_unavailable"

	// RFC 6750 section 3.1
	ErrCodeInvalidToken = "invalid_token"

	ErrCodeInvalidRedirectURI    = "invalid_redirect_uri"
	ErrCodeInvalidClientMetadata = "invalid_client_metadata"
	ErrCodeInvalidGrantType      = "invalid_grant_type"
)

// Error is a protocol error that is safe to show to the caller.
// Status is the HTTP status it is reported with.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Status      int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewError returns an Error reported with 400 Bad Request.
func NewError(code, description string) *Error {
	return &Error{Code: code, Description: description, Status: http.StatusBadRequest}
}

func InvalidRequest(description string) *Error {
	return NewError(ErrCodeInvalidRequest, description)
}

func InvalidGrant(description string) *Error {
	return NewError(ErrCodeInvalidGrant, description)
}

func InvalidClient(description string) *Error {
	return &Error{Code: ErrCodeInvalidClient, Description: description, Status: http.StatusUnauthorized}
}

// ServerError hides the underlying failure; log it before returning this.
func ServerError() *Error {
	return &Error{Code: ErrCodeServerError, Description: "internal server error", Status: http.StatusInternalServerError}
}
