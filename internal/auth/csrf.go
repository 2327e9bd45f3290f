package auth

import (
	"crypto/subtle"
	"net/http"
)

// ValidCSRFToken compares the presented token with the session's in constant time
func ValidCSRFToken(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

// PresentedCSRFToken reads the token a client echoed back in the request header
func PresentedCSRFToken(r *http.Request) string {
	return r.Header.Get(CSRFHeaderName)
}

// IsStateChangingMethod reports whether the HTTP method modifies state
func IsStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
