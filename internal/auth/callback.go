package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoAuthCode is returned when a callback URL carries neither a code nor
// an error.
var ErrNoAuthCode = errors.New("No authorization code found in callback")

// ProviderError is an error reported by the identity provider in the
// callback URL.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Code != "":
		return e.Code
	default:
		return "Authentication failed"
	}
}

// Callback holds the parameters read from a provider redirect.
type Callback struct {
	Code  string
	State string
}

// ExtractAuthCode reads the authorization code from a callback URL. The
// fragment is checked first; the query string is consulted only when the
// fragment has no code, and then replaces the fragment's values entirely.
func ExtractAuthCode(rawURL string) (Callback, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Callback{}, fmt.Errorf("parse callback url: %w", err)
	}

	var params url.Values
	if frag := u.EscapedFragment(); frag != "" {
		params, _ = url.ParseQuery(frag)
	}
	if params.Get("code") == "" && u.RawQuery != "" {
		params = u.Query()
	}

	if e := params.Get("error"); e != "" {
		return Callback{}, &ProviderError{Code: e, Description: params.Get("error_description")}
	}
	code := params.Get("code")
	if code == "" {
		return Callback{}, ErrNoAuthCode
	}
	return Callback{Code: code, State: params.Get("state")}, nil
}
