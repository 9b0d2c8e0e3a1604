package sdk

import (
	"context"
	"fmt"
	"strings"
)

// Credentials encapsulates username/password inputs for login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthClient wraps the /auth endpoints.
type AuthClient struct {
	caller Caller
}

// Authenticate exchanges credentials for a bearer token. The call itself is
// unauthenticated and does not store the token; see Session.Login.
func (a *AuthClient) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if a == nil || a.caller == nil {
		return "", fmt.Errorf("sdk: auth client not initialized")
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" {
		return "", fmt.Errorf("sdk: username required")
	}
	if creds.Password == "" {
		return "", fmt.Errorf("sdk: password required")
	}
	resp, err := a.caller.Call(ctx, EndpointAuthenticate, creds, false)
	if err != nil {
		return "", err
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.Token) == "" {
		return "", fmt.Errorf("sdk: authenticate returned an empty token")
	}
	return payload.Token, nil
}

// Status returns the user bound to the stored token.
func (a *AuthClient) Status(ctx context.Context) (User, error) {
	return a.status(ctx, true)
}

// Probe asks the server who the caller is without presenting a token. The
// daemon answers with the root user for local unauthenticated callers.
func (a *AuthClient) Probe(ctx context.Context) (User, error) {
	return a.status(ctx, false)
}

func (a *AuthClient) status(ctx context.Context, performAuth bool) (User, error) {
	if a == nil || a.caller == nil {
		return User{}, fmt.Errorf("sdk: auth client not initialized")
	}
	resp, err := a.caller.Call(ctx, EndpointAuthStatus, nil, performAuth)
	if err != nil {
		return User{}, err
	}
	var payload struct {
		User User `json:"user"`
	}
	if err := resp.Decode(&payload); err != nil {
		return User{}, err
	}
	return payload.User, nil
}
