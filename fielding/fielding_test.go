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

package fielding

import (
	"errors"
	"testing"

	"github.com/ttbt-io/crickeeper/matchapi"
)

func TestDefaultField(t *testing.T) {
	l := New().Layout()
	if l.Preset != DefaultPreset || len(l.Positions) != 12 {
		t.Fatalf("layout = %s with %d positions", l.Preset, len(l.Positions))
	}
	want := []string{"Bowler", "Keeper", "Slip 1", "Slip 2", "Gully", "Point", "Cover",
		"Mid-off", "Mid-on", "Mid-wicket", "Square Leg", "Fine Leg"}
	for i, name := range want {
		if l.Positions[i].Name != name {
			t.Errorf("position %d = %q, want %q", i, l.Positions[i].Name, name)
		}
	}
	if l.Positions[1].Role != RoleKeeper || l.Positions[0].Role != RoleBowler {
		t.Errorf("roles = %s, %s", l.Positions[0].Role, l.Positions[1].Role)
	}
}

func TestPresets(t *testing.T) {
	f := New()
	if err := f.Apply("attacking", false); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	l := f.Layout()
	if l.Positions[4].Name != "Third Man" || l.Positions[4].X != 70 {
		t.Errorf("attacking position 4 = %+v", l.Positions[4])
	}

	if err := f.Apply("attacking", true); err != nil {
		t.Fatalf("Apply left: %v", err)
	}
	l = f.Layout()
	if !l.LeftHanded || l.Positions[2].X != 170 || l.Positions[4].X != 230 || l.Positions[1].X != 150 {
		t.Errorf("mirrored layout = %+v", l.Positions)
	}

	if err := f.Apply("ultra", false); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Apply(ultra) err = %v", err)
	}
	if got := Presets(); len(got) != 3 || got[0] != "attacking" {
		t.Errorf("Presets() = %v", got)
	}
}

func TestAssignIsUnique(t *testing.T) {
	f := New()
	p := matchapi.Player{ID: 42, FirstName: "CSK", LastName: "Player 3"}
	if err := f.Assign(2, p); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := f.Assign(5, p); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	var held []string
	for _, pos := range f.Layout().Positions {
		if pos.PlayerID == 42 {
			held = append(held, pos.Name)
		}
	}
	if len(held) != 1 || held[0] != "Point" {
		t.Errorf("player 42 holds %v, want [Point]", held)
	}
	if err := f.Unassign(5); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if got := f.Layout().Positions[5]; got.PlayerID != 0 || got.PlayerName != "" {
		t.Errorf("after unassign = %+v", got)
	}
	if err := f.Assign(99, p); !errors.Is(err, ErrUnknownPosition) {
		t.Errorf("Assign(99) err = %v", err)
	}
}

func TestMoveClampsToGround(t *testing.T) {
	f := New()
	tests := []struct {
		x, y         int
		wantX, wantY int
	}{
		{120, 40, 120, 40},
		{-10, 400, 0, GroundSize},
		{301, -1, GroundSize, 0},
	}
	for _, tc := range tests {
		if err := f.Move(3, tc.x, tc.y); err != nil {
			t.Fatalf("Move: %v", err)
		}
		got := f.Layout().Positions[3]
		if got.X != tc.wantX || got.Y != tc.wantY {
			t.Errorf("Move(%d, %d) = (%d, %d), want (%d, %d)", tc.x, tc.y, got.X, got.Y, tc.wantX, tc.wantY)
		}
	}
	if err := f.Move(-5, 0, 0); !errors.Is(err, ErrUnknownPosition) {
		t.Errorf("Move(-5) err = %v", err)
	}
}

func TestClear(t *testing.T) {
	f := New()
	f.Apply("defensive", true)
	f.Assign(1, matchapi.Player{ID: 7, DisplayName: "Keeper"})
	f.Clear()
	l := f.Layout()
	if l.Preset != DefaultPreset || l.LeftHanded {
		t.Errorf("after clear = %s left=%v", l.Preset, l.LeftHanded)
	}
	for _, pos := range l.Positions {
		if pos.PlayerID != 0 {
			t.Errorf("%s still assigned", pos.Name)
		}
	}
}
