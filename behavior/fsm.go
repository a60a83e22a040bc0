// Package behavior implements order interpretation, the behavior FSM, and
// flocking steering (spec.md §4.5). Its state machine generalizes the
// teacher's per-unit threat/role evaluation (tactical/behavior/dangerlevel.go,
// tactical/ai/ai_controller.go's per-squad decide-and-execute loop) from a
// turn-based single decision into a continuous per-tick state a squad
// drifts between as morale and suppression change.
package behavior

import (
	"battlesim/config"
	"battlesim/coords"
	"battlesim/world"
)

// Transition advances core.Behavior by one tick given the squad's current
// perception and morale/suppression state. It only decides the state; it
// does not move the squad or resolve combat (§9: systems are small and
// composable rather than one monolithic AI step).
func Transition(core *world.SquadCore, cache *world.PerceptionCache, cfg config.SimConfig) {
	if core.Dead {
		return
	}

	if core.Behavior == world.Routing {
		if core.Morale >= cfg.RoutRecoverMorale && core.Suppression <= cfg.RoutRecoverSuppress {
			core.Behavior = world.Idle
		}
		return // a routing squad stays routing until it recovers, regardless of new threats
	}

	if core.Morale < cfg.RoutMoraleThreshold {
		core.Behavior = world.Routing
		return
	}

	if core.Suppression >= cfg.PinnedThreshold {
		core.Behavior = world.Suppressed
		return
	}

	switch {
	case cache.ThreatLevel > cfg.EngageThreshold:
		core.Behavior = world.Engaging
	case core.Order.Kind != world.OrderHold:
		core.Behavior = world.Advancing
	default:
		core.Behavior = world.Idle
	}
}

// DesiredVelocity computes the squad's order-driven steering target before
// flocking is blended in (§4.5). enemyPos/hasEnemy are the squad's nearest
// enemy as resolved by this tick's spatial query (the caller already has it
// from the perception pass; the FSM itself only keeps distance, not the raw
// position, so it's passed in rather than re-derived here). Order
// interpretation is driven purely by core.Order.Kind; a Routing squad's only
// effect on movement is the final-velocity scale applied by SpeedFactor
// (§4.5), not an automatic flee here — a broken squad freezes in place
// unless explicitly given a Retreat order.
func DesiredVelocity(core *world.SquadCore, pos coords.Position, enemyPos coords.Position, hasEnemy bool, cfg config.SimConfig) coords.Vector {
	switch core.Order.Kind {
	case world.OrderMoveTo, world.OrderAttackMove:
		target := coords.Position{X: core.Order.X, Y: core.Order.Y}
		if pos.Distance(target) <= cfg.ArrivalDistance {
			return coords.Vector{}
		}
		if core.Order.Kind == world.OrderAttackMove && core.Behavior == world.Engaging {
			return coords.Vector{} // stop to fire rather than walking through the target
		}
		speed := cfg.BaseSpeed
		if core.Order.Kind == world.OrderAttackMove {
			speed = 0.6 * cfg.BaseSpeed
		}
		return pos.DirectionTo(target).Scaled(speed)
	case world.OrderRetreat:
		return fleeVelocity(pos, enemyPos, hasEnemy, cfg)
	default: // OrderHold
		return coords.Vector{}
	}
}

// SpeedFactor scales the steered velocity after flocking and before
// SetVelocity (§4.5): a squad's order and flocking intent still describe
// where it wants to go, but morale/suppression/death determine how much of
// that intent actually reaches its legs this tick. Checked most-restrictive
// first, matching Transition's threshold-ladder style.
func SpeedFactor(core *world.SquadCore, cfg config.SimConfig) float64 {
	switch {
	case core.Dead:
		return 0
	case core.Suppression >= cfg.PinnedThreshold:
		return 0
	case core.Morale < cfg.RoutMoraleThreshold && core.Order.Kind != world.OrderRetreat:
		return 0
	case core.Suppression >= cfg.SuppressedThreshold:
		return 0.3
	case core.Morale < 0.5:
		return 0.6
	default:
		return 1.0
	}
}

func fleeVelocity(pos, enemyPos coords.Position, hasEnemy bool, cfg config.SimConfig) coords.Vector {
	if !hasEnemy {
		return coords.Vector{}
	}
	away := pos.Sub(enemyPos)
	if away.Length() == 0 {
		return coords.Vector{}
	}
	return away.Normalized().Scaled(cfg.BaseSpeed)
}
