package combat

import (
	"battlesim/config"
	"battlesim/world"

	"github.com/bytearena/ecs"
)

// DecaySuppression reduces one squad's suppression toward zero every tick,
// and raises its morale toward full on ticks when it is neither suppressed
// (suppression below SuppressedThreshold after decay) nor routing, modeling
// troops calming down and regaining composure once fire lifts (§4.8).
// ActivityFlags.IsSuppressed reflects the suppression threshold check so
// downstream systems (e.g. snapshot) can report it without recomputing.
func DecaySuppression(comps *world.Components, e *ecs.Entity, cfg config.SimConfig, tick uint64, dt float64) {
	core := comps.CoreOf(e)
	activity := comps.ActivityOf(e)
	if core == nil || activity == nil || core.Dead {
		return
	}

	core.Suppression -= cfg.SuppressionDecayRate * dt
	if core.Suppression < 0 {
		core.Suppression = 0
	}

	activity.IsSuppressed = core.Suppression >= cfg.SuppressedThreshold

	if core.Behavior != world.Routing && !activity.IsSuppressed {
		core.Morale += cfg.RecoveryRate * dt
		if core.Morale > 1 {
			core.Morale = 1
		}
	}

	if activity.RecentlyDamaged && tick-activity.LastDamageTick >= cfg.DamageMemoryTicks {
		activity.RecentlyDamaged = false
	}
}
