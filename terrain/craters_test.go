package terrain

import (
	"testing"

	"battlesim/coords"
)

// TestApplyCratersStampsCellsWithinRadius verifies only cells whose center
// falls within the crater radius are converted to Crater terrain.
func TestApplyCratersStampsCellsWithinRadius(t *testing.T) {
	g := NewGrid(10, 10, coords.Position{}, 10)
	ev := CraterEvent{Center: coords.Position{X: 50, Y: 50}, Radius: 15, Depth: 1}

	ApplyCraters(g, []CraterEvent{ev})

	if g.TypeAt(coords.Position{X: 50, Y: 50}) != Crater {
		t.Error("cell at crater center should be Crater")
	}
	if g.TypeAt(coords.Position{X: 95, Y: 95}) == Crater {
		t.Error("cell far from crater center should be untouched")
	}
}

// TestApplyCraterDamageIsMonotone verifies a destructible's state never
// regresses (Destroyed can't become Damaged again).
func TestApplyCraterDamageIsMonotone(t *testing.T) {
	d := &Destructible{ID: 1, Position: coords.Position{X: 50, Y: 50}, Footprint: 5, Health: 10, HealthMax: 10}

	events := []CraterEvent{{Center: coords.Position{X: 50, Y: 50}, Radius: 10, Depth: 5}}
	transitions := ApplyCraterDamage([]*Destructible{d}, events)

	if d.State != Destroyed {
		t.Fatalf("State = %v, want Destroyed", d.State)
	}
	if len(transitions) == 0 {
		t.Fatal("expected at least one transition event")
	}

	// Applying more (now harmless) damage to an already-destroyed
	// destructible must not emit a further transition.
	transitions = ApplyCraterDamage([]*Destructible{d}, events)
	if len(transitions) != 0 {
		t.Errorf("got %d transitions against an already-destroyed destructible, want 0", len(transitions))
	}
}
