package oauthmodel

import "errors"

var (
	ErrMissingRedirectURI         = errors.New("redirect_uri is required")
	ErrInvalidRedirectURI         = errors.New("redirect_uri must be an absolute http or https URL without a fragment")
	ErrInvalidResponseMode        = errors.New("invalid response mode")
	ErrInvalidResponseType        = errors.New("unsupported response type")
	ErrMissingCodeChallenge       = errors.New("code_challenge is required")
	ErrInvalidCodeChallenge       = errors.New("code_challenge must be 43-128 unreserved characters")
	ErrInvalidCodeChallengeMethod = errors.New("invalid code challenge method")
)
