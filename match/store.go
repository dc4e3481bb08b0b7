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

package match

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"go.uber.org/zap"
)

const (
	markerFile    = "cricket_match_state.json"
	masterKeyFile = "master.key"
)

// Marker remembers the current match across console restarts.
type Marker struct {
	MatchID   int64     `json:"match_id"`
	Innings   int       `json:"current_innings,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists the session marker.
type Store struct {
	storage *storage.Storage
}

// NewStore returns a store backed by s.
func NewStore(s *storage.Storage) *Store {
	return &Store{storage: s}
}

// OpenStorage opens the data directory. With a passphrase the files are
// encrypted with a master key kept in the directory, created on first use.
// Without one an existing master key is an error.
func OpenStorage(dataDir, passphrase string, logger *zap.Logger) (*storage.Storage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	keyFile := filepath.Join(dataDir, masterKeyFile)
	var masterKey crypto.MasterKey
	if passphrase != "" {
		var err error
		masterKey, err = crypto.ReadMasterKey([]byte(passphrase), keyFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Info("creating master key", zap.String("file", keyFile))
			if masterKey, err = crypto.CreateMasterKey(); err != nil {
				return nil, fmt.Errorf("create master key: %w", err)
			}
			if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
				return nil, fmt.Errorf("save master key: %w", err)
			}
		case err != nil:
			return nil, fmt.Errorf("read master key: %w", err)
		}
	} else {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s exists but no master key passphrase is set", keyFile)
		}
		logger.Warn("no master key passphrase, session data is stored unencrypted")
	}
	s := storage.New(dataDir, masterKey)
	s.EnableCompression(true)
	return s, nil
}

// Load returns the saved marker, or a zero marker when there is none.
func (st *Store) Load() (Marker, error) {
	var m Marker
	if err := st.storage.ReadDataFile(markerFile, &m); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Marker{}, nil
		}
		return Marker{}, fmt.Errorf("read marker: %w", err)
	}
	return m, nil
}

func (st *Store) Save(m Marker) error {
	m.UpdatedAt = time.Now().UTC()
	if err := st.storage.SaveDataFile(markerFile, m); err != nil {
		return fmt.Errorf("save marker: %w", err)
	}
	return nil
}

// Clear overwrites the marker with an empty one.
func (st *Store) Clear() error {
	return st.Save(Marker{})
}
