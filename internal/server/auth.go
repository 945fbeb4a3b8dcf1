package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Authenticator decides whether a viewer may connect.
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// TokenAuth accepts a shared token from the "token" query parameter or an
// "Authorization: Bearer" header. An empty Token lets everyone in.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Authenticate(r *http.Request) error {
	if a.Token == "" {
		return nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
