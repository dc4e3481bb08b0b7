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

import "fmt"

// Bowler types.
const (
	BowlerFast    = "fast"
	BowlerMedium  = "medium"
	BowlerSpin    = "spin"
	BowlerLegSpin = "legspin"
	BowlerOffSpin = "offspin"
)

// Power play phases.
const (
	PowerPlay1  = "pp1"
	PowerPlay2  = "pp2"
	PowerPlay3  = "pp3"
	NoPowerPlay = "none"
)

// Situation is what the captain sets a field for.
type Situation struct {
	PowerPlay  string `json:"power_play"`
	LeftHanded bool   `json:"left_handed"`
	Bowler     string `json:"bowler_type"`
}

// Fields named by bowler type outside the power play. Types without a field
// of their own fall back to the default.
var bowlerFields = map[string]string{
	BowlerFast:    DefaultPreset,
	BowlerMedium:  DefaultPreset,
	BowlerSpin:    "defensive",
	BowlerLegSpin: DefaultPreset,
	BowlerOffSpin: DefaultPreset,
}

var powerPlays = map[string]bool{PowerPlay1: true, PowerPlay2: true, PowerPlay3: true, NoPowerPlay: true}

// Choose picks the preset for s and whether it is mirrored. In a power play
// only pace in the first one has a field of its own, mirrored for a
// left-hander. Other power play combinations get the unmirrored default.
// Outside the power play the field follows the bowler type, unmirrored.
func Choose(s Situation) (string, bool, error) {
	field, ok := bowlerFields[s.Bowler]
	if !ok {
		return "", false, fmt.Errorf("%w: bowler type %q", ErrUnknownPreset, s.Bowler)
	}
	if !powerPlays[s.PowerPlay] {
		return "", false, fmt.Errorf("%w: power play %q", ErrUnknownPreset, s.PowerPlay)
	}
	if s.PowerPlay == NoPowerPlay {
		return field, false, nil
	}
	if s.PowerPlay == PowerPlay1 && s.Bowler == BowlerFast {
		return "attacking", s.LeftHanded, nil
	}
	return DefaultPreset, false, nil
}

// ApplySituation applies the preset Choose picks for s.
func (f *Field) ApplySituation(s Situation) error {
	preset, left, err := Choose(s)
	if err != nil {
		return err
	}
	return f.Apply(preset, left)
}
