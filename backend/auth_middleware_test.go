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
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestOperatorAuth(t *testing.T) {
	c := newConsole(t)

	tests := []struct {
		name   string
		token  string
		method string
		path   string
		want   int
	}{
		{"AnonymousRead", "", "GET", "/api/session", http.StatusOK},
		{"AnonymousWrite", "", "POST", "/api/match/reset", http.StatusUnauthorized},
		{"WrongSecret", signHS256(t, "not-the-secret", "mallory"), "POST", "/api/match/reset", http.StatusUnauthorized},
		{"Garbage", "not.a.jwt", "POST", "/api/ball/save", http.StatusUnauthorized},
		{"Signed", c.token, "POST", "/api/match/reset", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := c.callAs(tt.token, tt.method, tt.path, nil, nil); code != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, code, tt.want)
			}
		})
	}

	t.Run("Expired", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "scorer",
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		s, _ := tok.SignedString([]byte(testSecret))
		if code := c.callAs(s, "POST", "/api/match/reset", nil, nil); code != http.StatusUnauthorized {
			t.Errorf("expired token = %d", code)
		}
	})

	t.Run("Cookie", func(t *testing.T) {
		req, _ := http.NewRequest("POST", c.srv.URL+"/api/match/reset", nil)
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: c.token})
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("cookie token = %d", resp.StatusCode)
		}
	})
}

func TestOpenConsoleWithoutAuth(t *testing.T) {
	c := newConsole(t, func(o *Options) { o.OperatorSecret = "" })
	if code := c.callAs("", "POST", "/api/match/reset", nil, nil); code != http.StatusOK {
		t.Errorf("write on open console = %d", code)
	}
}

func TestOperatorAuthJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "console-1",
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	keys := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwks)
	}))
	defer keys.Close()

	c := newConsole(t, func(o *Options) {
		o.OperatorSecret = ""
		o.AuthJWKSURL = keys.URL
	})

	sign := func(kid string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"email": "Umpire@Example.com",
			"exp":   time.Now().Add(time.Hour).Unix(),
		})
		tok.Header["kid"] = kid
		s, err := tok.SignedString(key)
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		return s
	}

	var v SessionView
	if code := c.callAs(sign("console-1"), "GET", "/api/session", nil, &v); code != http.StatusOK || v.Operator != "umpire@example.com" {
		t.Errorf("session = %d, operator %q", code, v.Operator)
	}
	if code := c.callAs(sign("console-1"), "POST", "/api/match/reset", nil, nil); code != http.StatusOK {
		t.Errorf("JWKS-signed write = %d", code)
	}
	if code := c.callAs(sign("other"), "POST", "/api/match/reset", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("unknown kid = %d", code)
	}
	// HS256 is not accepted when only JWKS is configured.
	if code := c.callAs(signHS256(t, "some-other-secret", "x"), "POST", "/api/match/reset", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("HS256 with JWKS only = %d", code)
	}
}

func TestMaskOperator(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "<empty>"},
		{"scorer@example.com", "s***@example.com"},
		{"umpire1", "u***"},
		{"@example.com", "****"},
		{"émile@example.com", "é***@example.com"},
		{"Ørjan", "Ø***"},
	}
	for _, tt := range tests {
		if got := maskOperator(tt.in); got != tt.want {
			t.Errorf("maskOperator(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
