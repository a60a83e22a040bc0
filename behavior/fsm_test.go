package behavior

import (
	"testing"

	"battlesim/config"
	"battlesim/coords"
	"battlesim/world"
)

// TestTransitionToRoutingOnLowMorale verifies a squad below the rout
// morale threshold starts routing regardless of its current order.
func TestTransitionToRoutingOnLowMorale(t *testing.T) {
	cfg := config.DefaultSimConfig()
	core := &world.SquadCore{Morale: cfg.RoutMoraleThreshold - 0.01, Order: world.Order{Kind: world.OrderAttackMove}}
	cache := &world.PerceptionCache{}

	Transition(core, cache, cfg)

	if core.Behavior != world.Routing {
		t.Errorf("Behavior = %v, want Routing", core.Behavior)
	}
}

// TestRoutingSquadRecoversOnlyAfterThresholdsClear verifies a routing
// squad stays routing until both morale and suppression recover, not just
// one of them.
func TestRoutingSquadRecoversOnlyAfterThresholdsClear(t *testing.T) {
	cfg := config.DefaultSimConfig()
	core := &world.SquadCore{Behavior: world.Routing, Morale: cfg.RoutRecoverMorale, Suppression: cfg.RoutRecoverSuppress + 1}
	cache := &world.PerceptionCache{}

	Transition(core, cache, cfg)
	if core.Behavior != world.Routing {
		t.Fatal("expected squad to remain Routing while suppression is still high")
	}

	core.Suppression = cfg.RoutRecoverSuppress
	Transition(core, cache, cfg)
	if core.Behavior != world.Idle {
		t.Errorf("Behavior = %v, want Idle once morale and suppression both recovered", core.Behavior)
	}
}

// TestDesiredVelocityStopsWithinArrivalDistance verifies a squad under a
// move order stops steering once within ArrivalDistance of its target.
func TestDesiredVelocityStopsWithinArrivalDistance(t *testing.T) {
	cfg := config.DefaultSimConfig()
	core := &world.SquadCore{Order: world.Order{Kind: world.OrderMoveTo, X: 10, Y: 0}}
	pos := coords.Position{X: 10 - cfg.ArrivalDistance/2, Y: 0}

	v := DesiredVelocity(core, pos, coords.Position{}, false, cfg)
	if v.Length() != 0 {
		t.Errorf("velocity = %+v, want zero within arrival distance", v)
	}
}

// TestDesiredVelocityFleesEnemyOnRetreatOrder verifies a squad under an
// explicit Retreat order moves directly away from its nearest known enemy.
func TestDesiredVelocityFleesEnemyOnRetreatOrder(t *testing.T) {
	cfg := config.DefaultSimConfig()
	core := &world.SquadCore{Behavior: world.Routing, Order: world.Order{Kind: world.OrderRetreat}}
	pos := coords.Position{X: 0, Y: 0}
	enemy := coords.Position{X: 10, Y: 0}

	v := DesiredVelocity(core, pos, enemy, true, cfg)
	if v.X >= 0 {
		t.Errorf("velocity.X = %v, want negative (fleeing away from +X enemy)", v.X)
	}
}

// TestDesiredVelocityScalesAttackMove verifies AttackMove steers at 0.6 of
// base_speed, not full speed (§4.5).
func TestDesiredVelocityScalesAttackMove(t *testing.T) {
	cfg := config.DefaultSimConfig()
	core := &world.SquadCore{Order: world.Order{Kind: world.OrderAttackMove, X: 100, Y: 0}}
	pos := coords.Position{X: 0, Y: 0}

	v := DesiredVelocity(core, pos, coords.Position{}, false, cfg)
	if got, want := v.Length(), 0.6*cfg.BaseSpeed; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("velocity length = %v, want %v (0.6*base_speed)", got, want)
	}
}

// TestSpeedFactorPriority verifies SpeedFactor's most-restrictive-first
// ladder: death and pinning zero out movement even with healthy morale.
func TestSpeedFactorPriority(t *testing.T) {
	cfg := config.DefaultSimConfig()

	dead := &world.SquadCore{Dead: true, Morale: 1}
	if got := SpeedFactor(dead, cfg); got != 0 {
		t.Errorf("dead squad SpeedFactor = %v, want 0", got)
	}

	pinned := &world.SquadCore{Morale: 1, Suppression: cfg.PinnedThreshold}
	if got := SpeedFactor(pinned, cfg); got != 0 {
		t.Errorf("pinned squad SpeedFactor = %v, want 0", got)
	}

	routingNoRetreat := &world.SquadCore{Morale: cfg.RoutMoraleThreshold - 0.01, Order: world.Order{Kind: world.OrderHold}}
	if got := SpeedFactor(routingNoRetreat, cfg); got != 0 {
		t.Errorf("low-morale squad without Retreat order SpeedFactor = %v, want 0", got)
	}

	routingRetreat := &world.SquadCore{Morale: cfg.RoutMoraleThreshold - 0.01, Order: world.Order{Kind: world.OrderRetreat}}
	if got := SpeedFactor(routingRetreat, cfg); got != 0.6 {
		t.Errorf("low-morale squad with Retreat order SpeedFactor = %v, want 0.6", got)
	}

	suppressed := &world.SquadCore{Morale: 1, Suppression: cfg.SuppressedThreshold}
	if got := SpeedFactor(suppressed, cfg); got != 0.3 {
		t.Errorf("suppressed squad SpeedFactor = %v, want 0.3", got)
	}

	healthy := &world.SquadCore{Morale: 1}
	if got := SpeedFactor(healthy, cfg); got != 1.0 {
		t.Errorf("healthy squad SpeedFactor = %v, want 1.0", got)
	}
}
