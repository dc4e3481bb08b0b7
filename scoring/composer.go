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

package scoring

// Composer turns operator actions into ball events. It performs no I/O.
// Over and ball numbers are stamped by the workflow at save time.
type Composer struct {
	lineup Lineup
}

// NewComposer returns a composer for the given lineup.
func NewComposer(l Lineup) Composer {
	return Composer{lineup: l}
}

// Run records runs off the bat.
func (c Composer) Run(runs int) (BallEvent, error) {
	kind, ok := RunKind(runs)
	if !ok {
		return BallEvent{}, invalid("runs", "runs must be between 0 and 6, got %d", runs)
	}
	ev, err := c.delivery(kind)
	if err != nil {
		return BallEvent{}, err
	}
	ev.Runs = runs
	return ev, nil
}

// Extra records one of the fixed-value extras.
func (c Composer) Extra(kind Kind) (BallEvent, error) {
	opt, ok := ExtraOption(kind)
	if !ok {
		return BallEvent{}, invalid("extra", "unknown extra %q", kind)
	}
	ev, err := c.delivery(opt.Kind)
	if err != nil {
		return BallEvent{}, err
	}
	ev.Runs = opt.Runs
	ev.IsExtra = true
	ev.ExtraType = opt.Kind
	ev.ExtraRuns = opt.Runs
	return ev, nil
}

// Wicket records a dismissal of the striker. fielderRef must be given for
// caught, run out and stumped and must be empty otherwise.
func (c Composer) Wicket(wt WicketType, fielderRef string) (BallEvent, error) {
	if !wt.Valid() {
		return BallEvent{}, invalid("wicket_type", "unknown wicket type %q", wt)
	}
	switch {
	case wt.RequiresFielder() && fielderRef == "":
		return BallEvent{}, invalid("fielder", "%s requires a fielder", wt)
	case !wt.RequiresFielder() && fielderRef != "":
		return BallEvent{}, invalid("fielder", "%s does not take a fielder", wt)
	}
	ev, err := c.delivery(KindWicket)
	if err != nil {
		return BallEvent{}, err
	}
	if fielderRef != "" {
		f, err := c.lineup.Fielder(fielderRef)
		if err != nil {
			return BallEvent{}, err
		}
		ev.Fielder = f.ID
	}
	ev.IsWicket = true
	ev.WicketType = wt
	ev.DismissedBatsman = ev.Batsman
	return ev, nil
}

// FieldEvent records fielding commentary by a bowling-side fielder.
func (c Composer) FieldEvent(kind Kind, fielderRef string) (BallEvent, error) {
	if !kind.IsFieldEvent() {
		return BallEvent{}, invalid("event", "unknown field event %q", kind)
	}
	if fielderRef == "" {
		return BallEvent{}, invalid("fielder", "%s requires a fielder", kind)
	}
	ev, err := c.delivery(kind)
	if err != nil {
		return BallEvent{}, err
	}
	f, err := c.lineup.Fielder(fielderRef)
	if err != nil {
		return BallEvent{}, err
	}
	ev.Fielder = f.ID
	return ev, nil
}

func (c Composer) delivery(kind Kind) (BallEvent, error) {
	striker, err := c.lineup.Striker()
	if err != nil {
		return BallEvent{}, err
	}
	bowler, err := c.lineup.Bowler()
	if err != nil {
		return BallEvent{}, err
	}
	return BallEvent{Kind: kind, Batsman: striker.ID, Bowler: bowler.ID}, nil
}
