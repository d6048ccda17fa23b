// Package pkce implements the Proof Key for Code Exchange checks of RFC 7636.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"regexp"
)

type Method string

const (
	MethodS256  Method = "S256"
	MethodPlain Method = "plain"
)

const (
	MinLength = 43
	MaxLength = 128
)

var (
	encoding = base64.URLEncoding.WithPadding(base64.NoPadding)

	// unreserved characters, RFC 7636 section 4.1
	validChars = regexp.MustCompile(`^[A-Za-z0-9\-._~]+$`)
)

// ParseMethod maps a code_challenge_method parameter to a Method.
// An empty value defaults to plain as in RFC 7636 section 4.3.
func ParseMethod(s string) (Method, error) {
	switch s {
	case string(MethodS256):
		return MethodS256, nil
	case "", string(MethodPlain):
		return MethodPlain, nil
	}
	return "", fmt.Errorf("unsupported code_challenge_method %q", s)
}

// Challenge derives the code challenge for verifier using method.
func Challenge(verifier string, method Method) (string, error) {
	switch method {
	case MethodS256:
		sum := sha256.Sum256([]byte(verifier))
		return encoding.EncodeToString(sum[:]), nil
	case MethodPlain:
		return verifier, nil
	}
	return "", fmt.Errorf("unsupported code_challenge_method %q", method)
}

// Verify reports whether verifier matches challenge under the recorded method.
// The comparison is constant time.
func Verify(verifier, challenge string, method Method) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	computed, err := Challenge(verifier, method)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// ValidFormat checks the length and alphabet shared by verifiers and challenges.
func ValidFormat(s string) bool {
	return len(s) >= MinLength && len(s) <= MaxLength && validChars.MatchString(s)
}

// NewVerifier returns a random 43 character verifier (256 bits of entropy).
func NewVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return encoding.EncodeToString(b), nil
}
