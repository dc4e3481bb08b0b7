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

package config

import "time"

// this holds the resolved configuration values from CLI
var (
	ServiceURL     string        // base URL of the remote match service
	RequestTimeout time.Duration // timeout for a single match service call
	Addr           string        // listen address of the operator console
	DataDir        string        // directory for the session marker
	MasterKey      string        // passphrase for the encrypted data dir (optional)
	LogLevel       string        // zap log level
	LogFormat      string        // text vs json
	OperatorSecret string        // HS256 secret for operator tokens
	AuthJWKSURL    string        // JWKS endpoint for operator tokens (alternative to secret)
	RedisURL       string        // redis URL for the scoreboard stream (optional)
	CORSOrigins    []string      // origins allowed to call the console API
)

const (
	DefaultServiceURL = "http://127.0.0.1:8000/api"
	DefaultAddr       = ":8080"
	DefaultTimeout    = 15 * time.Second
)
