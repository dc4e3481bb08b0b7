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

// Package fielding tracks fielding positions on the ground diagram.
package fielding

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/ttbt-io/crickeeper/matchapi"
)

// GroundSize is the width and height of the ground diagram.
const GroundSize = 300

const (
	RoleKeeper  = "keeper"
	RoleFielder = "fielder"
	RoleBowler  = "bowler"
)

// BowlerPosition is the id of the bowler's mark.
const BowlerPosition = 0

var (
	ErrUnknownPosition = errors.New("unknown fielding position")
	ErrUnknownPreset   = errors.New("unknown field preset")
)

// Position is one fielder's spot on the diagram.
type Position struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	PlayerID   int64  `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
}

func spot(id int, name string, x, y int) Position {
	role := RoleFielder
	if id == 1 {
		role = RoleKeeper
	}
	return Position{ID: id, Name: name, Role: role, X: x, Y: y}
}

var bowlerMark = Position{ID: BowlerPosition, Name: "Bowler", Role: RoleBowler, X: 150, Y: 250}

var presets = map[string][]Position{
	"default": {
		spot(1, "Keeper", 150, 110),
		spot(2, "Slip 1", 130, 120),
		spot(3, "Slip 2", 110, 130),
		spot(4, "Gully", 90, 140),
		spot(5, "Point", 70, 170),
		spot(6, "Cover", 130, 190),
		spot(7, "Mid-off", 180, 150),
		spot(8, "Mid-on", 180, 200),
		spot(9, "Mid-wicket", 220, 190),
		spot(10, "Square Leg", 220, 120),
		spot(11, "Fine Leg", 230, 80),
	},
	"attacking": {
		spot(1, "Keeper", 150, 110),
		spot(2, "Slip 1", 130, 120),
		spot(3, "Slip 2", 110, 130),
		spot(4, "Third Man", 70, 80),
		spot(5, "Point", 70, 170),
		spot(6, "Cover", 130, 190),
		spot(7, "Mid-off", 180, 150),
		spot(8, "Mid-on", 180, 200),
		spot(9, "Mid-wicket", 220, 190),
		spot(10, "Square Leg", 220, 120),
		spot(11, "Fine Leg", 230, 80),
	},
	"defensive": {
		spot(1, "Keeper", 150, 110),
		spot(2, "Slip 1", 140, 130),
		spot(3, "Slip 2", 120, 140),
		spot(4, "Gully", 100, 150),
		spot(5, "Point", 80, 180),
		spot(6, "Cover", 140, 200),
		spot(7, "Mid-off", 190, 160),
		spot(8, "Mid-on", 190, 210),
		spot(9, "Mid-wicket", 230, 200),
		spot(10, "Square Leg", 230, 130),
		spot(11, "Fine Leg", 240, 90),
	},
}

// DefaultPreset is applied by New and Clear.
const DefaultPreset = "default"

// Presets returns the preset names in sorted order.
func Presets() []string {
	names := lo.Keys(presets)
	slices.Sort(names)
	return names
}

// Field is the current field setting. It is safe for concurrent use.
type Field struct {
	mu         sync.Mutex
	preset     string
	leftHanded bool
	positions  []Position
}

// New returns a field with the default preset.
func New() *Field {
	f := &Field{}
	f.apply(DefaultPreset, false)
	return f
}

// Apply replaces the field with a preset. For a left-handed batsman the
// layout is mirrored. Player assignments are dropped.
func (f *Field) Apply(preset string, leftHanded bool) error {
	if _, ok := presets[preset]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apply(preset, leftHanded)
	return nil
}

func (f *Field) apply(preset string, leftHanded bool) {
	ps := append([]Position{bowlerMark}, presets[preset]...)
	if leftHanded {
		for i := range ps {
			ps[i].X = GroundSize - ps[i].X
		}
	}
	f.preset = preset
	f.leftHanded = leftHanded
	f.positions = ps
}

// Assign puts p at position id, removing p from any other position.
func (f *Field) Assign(id int, p matchapi.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownPosition, id)
	}
	for j := range f.positions {
		if f.positions[j].PlayerID == p.ID {
			f.positions[j].PlayerID, f.positions[j].PlayerName = 0, ""
		}
	}
	f.positions[i].PlayerID = p.ID
	f.positions[i].PlayerName = p.Name()
	return nil
}

// Unassign clears the player at position id.
func (f *Field) Unassign(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownPosition, id)
	}
	f.positions[i].PlayerID, f.positions[i].PlayerName = 0, ""
	return nil
}

// Move places position id at (x, y), clamped to the ground.
func (f *Field) Move(id, x, y int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownPosition, id)
	}
	f.positions[i].X = min(max(x, 0), GroundSize)
	f.positions[i].Y = min(max(y, 0), GroundSize)
	return nil
}

// Clear restores the default preset with no assignments.
func (f *Field) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apply(DefaultPreset, false)
}

// Layout is a copy of the field for display.
type Layout struct {
	Preset     string     `json:"preset"`
	LeftHanded bool       `json:"left_handed"`
	Positions  []Position `json:"positions"`
}

func (f *Field) Layout() Layout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Layout{
		Preset:     f.preset,
		LeftHanded: f.leftHanded,
		Positions:  slices.Clone(f.positions),
	}
}

func (f *Field) index(id int) int {
	return slices.IndexFunc(f.positions, func(p Position) bool { return p.ID == id })
}
