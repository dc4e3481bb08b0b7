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

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ttbt-io/crickeeper/match"
)

func seedMarker(t *testing.T, dir string, id int64) {
	t.Helper()
	s, err := match.OpenStorage(dir, "", zap.NewNop())
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	if err := match.NewStore(s).Save(match.Marker{MatchID: id, Innings: 2}); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func runMarker(t *testing.T, args ...string) match.Marker {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfgFile = ""

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"marker", "--log-level", "error"}, args...))
	if err := root.Execute(); err != nil {
		t.Fatalf("marker %v: %v", args, err)
	}
	var m match.Marker
	if err := json.Unmarshal(out.Bytes(), &m); err != nil {
		t.Fatalf("marker output %q: %v", out.String(), err)
	}
	return m
}

func TestMarkerConfigSources(t *testing.T) {
	t.Run("Flag", func(t *testing.T) {
		dir := t.TempDir()
		seedMarker(t, dir, 11)
		if m := runMarker(t, "--data-dir", dir); m.MatchID != 11 || m.Innings != 2 {
			t.Errorf("marker = %+v, want match 11 innings 2", m)
		}
	})

	t.Run("Env", func(t *testing.T) {
		dir := t.TempDir()
		seedMarker(t, dir, 12)
		t.Setenv("CRICKEEPER_DATA_DIR", dir)
		if m := runMarker(t); m.MatchID != 12 {
			t.Errorf("marker = %+v, want match 12", m)
		}
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		seedMarker(t, dir, 13)
		cfg := filepath.Join(t.TempDir(), "crickeeper.yml")
		if err := os.WriteFile(cfg, []byte("data-dir: "+dir+"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if m := runMarker(t, "--config", cfg); m.MatchID != 13 {
			t.Errorf("marker = %+v, want match 13", m)
		}
	})

	t.Run("FlagWinsOverEnv", func(t *testing.T) {
		dir := t.TempDir()
		seedMarker(t, dir, 14)
		t.Setenv("CRICKEEPER_DATA_DIR", t.TempDir())
		if m := runMarker(t, "--data-dir", dir); m.MatchID != 14 {
			t.Errorf("marker = %+v, want match 14", m)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		dir := t.TempDir()
		seedMarker(t, dir, 15)
		t.Setenv("HOME", t.TempDir())
		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"marker", "--clear", "--data-dir", dir, "--log-level", "error"})
		if err := root.Execute(); err != nil {
			t.Fatalf("marker --clear: %v", err)
		}
		if m := runMarker(t, "--data-dir", dir); m.MatchID != 0 {
			t.Errorf("marker after clear = %+v", m)
		}
	})
}
