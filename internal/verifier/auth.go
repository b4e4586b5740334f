package verifier

import (
	"fmt"
	"net/http"
	"strings"
)

// Auth is a credential for fetching a remote contract. The interface is sealed:
// the only implementations are Basic and Bearer, so a value is always exactly
// one of the two shapes.
type Auth interface {
	// Apply sets the credential on an outgoing request.
	Apply(r *http.Request)
	validate() error
}

// Basic is HTTP basic authentication.
type Basic struct {
	Username string
	Password string
}

// Bearer is an HTTP bearer token.
type Bearer struct {
	Token string
}

// BasicAuth returns a basic-auth credential.
func BasicAuth(username, password string) Auth {
	return Basic{Username: username, Password: password}
}

// BearerToken returns a bearer-token credential.
func BearerToken(token string) Auth {
	return Bearer{Token: token}
}

func (b Basic) Apply(r *http.Request) {
	r.SetBasicAuth(b.Username, b.Password)
}

func (b Basic) validate() error {
	if strings.TrimSpace(b.Username) == "" {
		return fmt.Errorf("%w: basic auth username must not be empty", ErrInvalidConfiguration)
	}
	return nil
}

// String redacts the password.
func (b Basic) String() string {
	return fmt.Sprintf("basic(%s:***)", b.Username)
}

func (b Bearer) Apply(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+b.Token)
}

func (b Bearer) validate() error {
	if strings.TrimSpace(b.Token) == "" {
		return fmt.Errorf("%w: bearer token must not be empty", ErrInvalidConfiguration)
	}
	return nil
}

// String redacts the token.
func (b Bearer) String() string {
	return "bearer(***)"
}
