// Package sdk provides the OVPM Go SDK: an endpoint-table REST client for the
// OVPM VPN management API plus typed helpers for users, networks and the VPN
// server.
package sdk

import (
	"net/http"
	"strings"
	"sync"

	"github.com/cad/ovpm/sdk/go/headers"
)

type authStrategy interface {
	Apply(req *http.Request)
}

type bearerAuth struct {
	token string
}

func (b bearerAuth) Apply(req *http.Request) {
	if b.token == "" {
		return
	}
	req.Header.Set(headers.Authorization, "Bearer "+b.token)
}

// normalizeToken trims whitespace and a leading "Bearer " so the header is
// never sent with the scheme twice.
func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

// tokenHolder stores the mutable bearer token. Writers replace it wholesale;
// every call snapshots it once when the request is built.
type tokenHolder struct {
	mu    sync.RWMutex
	token string
}

func (h *tokenHolder) get() (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token, h.token != ""
}

func (h *tokenHolder) set(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

func (h *tokenHolder) strategy() authStrategy {
	token, _ := h.get()
	return bearerAuth{token: token}
}
