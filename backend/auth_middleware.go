// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"go.uber.org/zap"
)

const (
	// authCookieName carries the operator token for browser consoles.
	authCookieName = "crickeeper_auth"

	// jwksRefreshInterval bounds how often an unknown kid triggers a refetch.
	jwksRefreshInterval = time.Minute
)

// authenticator verifies operator tokens. Tokens are HS256-signed with the
// operator secret, or signed with a key published at the JWKS URL.
type authenticator struct {
	secret  []byte
	jwksURL string
	logger  *zap.Logger

	mu          sync.RWMutex
	keys        jwk.Set
	lastRefresh time.Time
}

func newAuthenticator(opts Options, logger *zap.Logger) *authenticator {
	a := &authenticator{
		secret:  []byte(opts.OperatorSecret),
		jwksURL: opts.AuthJWKSURL,
		logger:  logger,
	}
	if a.jwksURL != "" {
		// Non-fatal, retried on demand.
		if err := a.refreshKeys(); err != nil {
			logger.Warn("failed to fetch JWKS on startup", zap.Error(err))
		}
	}
	if !a.enabled() {
		logger.Warn("no operator secret or JWKS URL configured, console writes are open")
	}
	return a
}

// enabled reports whether writes require an operator token.
func (a *authenticator) enabled() bool {
	return len(a.secret) > 0 || a.jwksURL != ""
}

func (a *authenticator) refreshKeys() error {
	if a.jwksURL == "" {
		return fmt.Errorf("no JWKS URL provided")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	set, err := jwk.Fetch(ctx, a.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	a.mu.Lock()
	a.keys = set
	a.lastRefresh = time.Now()
	a.mu.Unlock()
	return nil
}

func findKey(set jwk.Set, kid string) (any, error) {
	if set == nil {
		return nil, fmt.Errorf("JWKS not initialized")
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}
	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("failed to materialize key: %w", err)
	}
	return raw, nil
}

func (a *authenticator) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(a.secret) == 0 {
			return nil, fmt.Errorf("HMAC tokens are not accepted")
		}
		return a.secret, nil
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA, *jwt.SigningMethodEd25519:
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if a.jwksURL == "" {
		return nil, fmt.Errorf("asymmetric tokens are not accepted")
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token missing 'kid' header")
	}

	a.mu.RLock()
	keys, last := a.keys, a.lastRefresh
	a.mu.RUnlock()

	key, err := findKey(keys, kid)
	if err == nil {
		return key, nil
	}
	if time.Since(last) <= jwksRefreshInterval {
		return nil, err
	}
	if err := a.refreshKeys(); err != nil {
		a.logger.Warn("JWKS refresh failed", zap.Error(err))
		return nil, err
	}
	a.mu.RLock()
	keys = a.keys
	a.mu.RUnlock()
	return findKey(keys, kid)
}

// operator validates a token and returns the operator it names.
func (a *authenticator) operator(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, a.keyFunc)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	for _, name := range []string{"email", "sub"} {
		if id, ok := claims[name].(string); ok && id != "" {
			return normalizeOperator(id), nil
		}
	}
	return "", fmt.Errorf("token names no operator")
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if c, err := r.Cookie(authCookieName); err == nil {
		return c.Value
	}
	return ""
}

// identify attaches the operator named by a valid token to the request
// context. Requests without a valid token proceed anonymously.
func (a *authenticator) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" || !a.enabled() {
			next.ServeHTTP(w, r)
			return
		}
		id, err := a.operator(tokenString)
		if err != nil {
			a.logger.Debug("operator token rejected", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), operatorKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOperator rejects anonymous requests when auth is enabled.
func (a *authenticator) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.enabled() && getOperator(r) == "" {
			respondError(w, http.StatusUnauthorized, "operator token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
