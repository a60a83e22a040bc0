// Package combat resolves squad-vs-squad damage and suppression in two
// phases — gather then apply — so the gather phase can run over every
// engaging squad without any write ordering dependency, while the apply
// phase alone carries the deterministic ascending (target id, attacker id)
// order the spec requires (§4.7). This mirrors the teacher's
// ExecuteSquadAttack/ApplyRecordedDamage split (tactical/squads/squadcombat.go):
// compute a result set first, then apply it in one pass.
package combat

import (
	"sort"

	"battlesim/config"
	"battlesim/spatial"
	"battlesim/terrain"
	"battlesim/world"

	"github.com/bytearena/ecs"
)

// PendingResult is one attacker's contribution against one target, produced
// by Gather and consumed by Apply.
type PendingResult struct {
	AttackerID       uint32
	TargetID         uint32
	Damage           float64
	SuppressionDelta float64
}

// LogEntry is one applied result, retained only when SimConfig.EnableCombatLog
// is set (SPEC_FULL.md §C.1).
type LogEntry struct {
	Tick             uint64
	AttackerID       uint32
	TargetID         uint32
	Damage           float64
	TargetHealthLeft float64
	TargetKilled     bool
}

// Log accumulates LogEntry values across ticks when combat logging is
// enabled. A fresh Log is typically created per Simulation run.
type Log struct {
	Entries []LogEntry
}

func (l *Log) record(e LogEntry) {
	if l == nil {
		return
	}
	l.Entries = append(l.Entries, e)
}

// Gather scans every live, engaging squad and produces the damage/
// suppression it deals to its nearest enemy this tick. It changes no
// squad's core state; the only write is each scanned squad's own
// ActivityFlags.IsFiring, set when the squad is Engaging with its nearest
// enemy within FireRange and cleared otherwise. Only firing squads produce
// a result, independent of LOD tier (SPEC_FULL.md §D.2: the scheduler hands
// Gather every squad, not only the LOD-active ones). Per §4.7, damage is
// base_dps · dt · cover_multiplier · morale_factor (cover is applied in
// Apply, against the target's position) and suppression is k_suppress · dt;
// folding dt in here keeps per-tick attrition rate-independent, so Normal30Hz
// and Performance20Hz converge to the same attrition over wall-clock time.
// morale_factor is the attacker's own morale (already clamped to [0,1] by
// the data model invariant): a demoralized squad fights less effectively.
func Gather(grid *spatial.Grid, comps *world.Components, entities []*ecs.Entity, cfg config.SimConfig) []PendingResult {
	var pending []PendingResult
	dt := cfg.Rate.FixedTimestep()

	for _, e := range entities {
		core := comps.CoreOf(e)
		activity := comps.ActivityOf(e)
		cache := comps.PerceptionOf(e)
		pos := comps.PositionOf(e)
		if core == nil || activity == nil || cache == nil || pos == nil || core.Dead {
			continue
		}
		if core.Behavior != world.Engaging {
			activity.IsFiring = false
			continue
		}
		if !cache.HasNearestEnemy || cache.NearestEnemyDist > cfg.FireRange {
			activity.IsFiring = false
			continue
		}

		activity.IsFiring = true
		damage := cfg.BaseDPS * dt * core.Morale
		pending = append(pending, PendingResult{
			AttackerID:       core.ID,
			TargetID:         cache.NearestEnemyID,
			Damage:           damage,
			SuppressionDelta: cfg.KSuppress * dt,
		})
	}

	return pending
}

// Apply applies every gathered result in deterministic ascending (target
// id, attacker id) order, reducing target health by cover-adjusted damage
// and raising target suppression, marking squads dead as health reaches
// zero. byID must resolve a squad id to its live entity (world.Store.Get).
func Apply(pending []PendingResult, comps *world.Components, terr *terrain.Grid, cfg config.SimConfig, tick uint64, byID func(uint32) (*ecs.Entity, bool), log *Log) {
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].TargetID != pending[j].TargetID {
			return pending[i].TargetID < pending[j].TargetID
		}
		return pending[i].AttackerID < pending[j].AttackerID
	})

	for _, r := range pending {
		target, ok := byID(r.TargetID)
		if !ok {
			continue
		}
		core := comps.CoreOf(target)
		pos := comps.PositionOf(target)
		activity := comps.ActivityOf(target)
		if core == nil || core.Dead {
			continue
		}

		cover := 0.0
		if terr != nil && pos != nil {
			cover = terr.CoverValueAt(*pos)
		}
		damage := r.Damage * (1 - cover)

		core.Health -= damage
		if core.Health < 0 {
			core.Health = 0
		}
		core.Suppression += r.SuppressionDelta
		if core.Suppression > cfg.SuppressionCap {
			core.Suppression = cfg.SuppressionCap
		}
		core.Morale -= r.SuppressionDelta * cfg.SuppressionCoupling
		if core.Morale < 0 {
			core.Morale = 0
		}

		if activity != nil {
			activity.RecentlyDamaged = true
			activity.LastDamageTick = tick
		}

		killed := core.Health <= 0 && !core.Dead
		if killed {
			core.Dead = true
			core.DeathTick = tick
		}

		log.record(LogEntry{
			Tick:             tick,
			AttackerID:       r.AttackerID,
			TargetID:         r.TargetID,
			Damage:           damage,
			TargetHealthLeft: core.Health,
			TargetKilled:     killed,
		})
	}
}
