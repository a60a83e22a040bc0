// Package config holds the simulation's tunable parameters. SimRate, combat
// coefficients, LOD thresholds, and soft limits are all SimConfig fields
// rather than compiled-in constants, per the Open Questions in spec.md §9:
// the exact tuning of base_dps, k_suppress, recovery_rate, engage_threshold
// etc. is left to the implementer, so they are exposed for a caller to load
// and override.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SimRate selects the fixed timestep the scheduler advances by (§4.2).
type SimRate int

const (
	Normal30Hz SimRate = iota
	Performance20Hz
)

// FixedTimestep returns the tick duration in seconds for the rate.
func (r SimRate) FixedTimestep() float64 {
	switch r {
	case Performance20Hz:
		return 1.0 / 20.0
	default:
		return 1.0 / 30.0
	}
}

// DefaultSquadSoftLimit returns the soft SimLimits cap associated with the
// rate (3,000 at 30Hz, 5,000 at 20Hz per §4.2).
func (r SimRate) DefaultSquadSoftLimit() int {
	if r == Performance20Hz {
		return 5000
	}
	return 3000
}

func (r SimRate) String() string {
	if r == Performance20Hz {
		return "Performance20Hz"
	}
	return "Normal30Hz"
}

// SimConfig carries every tunable the simulation reads. Zero-value fields
// are invalid; use DefaultSimConfig and override individual fields, or load
// from JSON via LoadSimConfig.
type SimConfig struct {
	Rate SimRate `json:"rate"`

	// SquadSoftLimit is the warn-but-never-block cap on live squads (§4.2).
	// Zero means "use Rate's default".
	SquadSoftLimit int `json:"squad_soft_limit"`

	// MaxDeltaTicks caps how many ticks a single step() call may run, to
	// avoid a spiral of death on an absurd wall-clock delta (§5). Default 5.
	MaxDeltaTicks int `json:"max_delta_ticks"`

	// Spatial / sector sizing (§4.3).
	CellSize   float64 `json:"cell_size"`
	SectorSize float64 `json:"sector_size"`

	// Perception (§4.4).
	SightRadius       float64 `json:"sight_radius"`
	FriendlyRadius    float64 `json:"friendly_radius"`
	DamageMemoryTicks uint64  `json:"damage_memory_ticks"`
	SightOcclusionEnabled bool `json:"sight_occlusion_enabled"`

	// Behavior / order interpretation (§4.5).
	BaseSpeed        float64 `json:"base_speed"`
	EngageThreshold  float64 `json:"engage_threshold"`
	ArrivalDistance  float64 `json:"arrival_distance"`
	FlockingWeight   float64 `json:"flocking_weight"`
	SeparationRadius float64 `json:"separation_radius"`

	// Combat (§4.7).
	FireRange float64 `json:"fire_range"`
	BaseDPS   float64 `json:"base_dps"`
	KSuppress float64 `json:"k_suppress"`

	// Morale & suppression (§4.8).
	SuppressionDecayRate float64 `json:"suppression_decay_rate"`
	SuppressionCoupling  float64 `json:"suppression_coupling"`
	RecoveryRate         float64 `json:"recovery_rate"`
	RoutMoraleThreshold  float64 `json:"rout_morale_threshold"`
	RoutRecoverMorale    float64 `json:"rout_recover_morale"`
	RoutRecoverSuppress  float64 `json:"rout_recover_suppress"`
	SuppressedThreshold  float64 `json:"suppressed_threshold"`
	PinnedThreshold      float64 `json:"pinned_threshold"`
	SuppressionCap       float64 `json:"suppression_cap"`

	// LOD (§4.2).
	LODMediumDistance float64 `json:"lod_medium_distance"`
	LODLowDistance    float64 `json:"lod_low_distance"`

	// Barrage (§6) — spawn_barrage takes no per-crater radius/depth, so
	// each crater it expands to uses these tuned defaults.
	BarrageCraterRadius float64 `json:"barrage_crater_radius"`
	BarrageCraterDepth  float64 `json:"barrage_crater_depth"`

	// Debug / supplemented features (SPEC_FULL.md §C).
	EnableCombatLog bool `json:"enable_combat_log"`
}

// DefaultSimConfig returns the tuned defaults used by the tests and the
// battlesim command. With them, a squad under a MoveTo order stops once it
// is within ArrivalDistance (1.0 world units) of its target rather than on
// the target point, and its order is not reset to Hold on arrival.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Rate:                  Normal30Hz,
		SquadSoftLimit:        0, // resolved from Rate by EffectiveSoftLimit
		MaxDeltaTicks:         5,
		CellSize:              60,
		SectorSize:            40,
		SightRadius:           120,
		FriendlyRadius:        40,
		DamageMemoryTicks:     90,
		SightOcclusionEnabled: true,
		BaseSpeed:             5,
		EngageThreshold:       0.25,
		ArrivalDistance:       1.0,
		FlockingWeight:        0.3,
		SeparationRadius:      4,
		FireRange:             60,
		BaseDPS:               8,
		KSuppress:             0.25,
		SuppressionDecayRate:  0.15,
		SuppressionCoupling:   0.2,
		RecoveryRate:          0.05,
		RoutMoraleThreshold:   0.2,
		RoutRecoverMorale:     0.5,
		RoutRecoverSuppress:   0.3,
		SuppressedThreshold:   0.5,
		PinnedThreshold:       1.0,
		SuppressionCap:        1.5,
		LODMediumDistance:     150,
		LODLowDistance:        400,
		BarrageCraterRadius:   8,
		BarrageCraterDepth:    1,
		EnableCombatLog:       false,
	}
}

// EffectiveSoftLimit resolves SquadSoftLimit, falling back to Rate's
// default when unset.
func (c SimConfig) EffectiveSoftLimit() int {
	if c.SquadSoftLimit > 0 {
		return c.SquadSoftLimit
	}
	return c.Rate.DefaultSquadSoftLimit()
}

//go:embed simconfig.schema.json
var schemaDoc []byte

// LoadSimConfig reads a SimConfig from a JSON file and validates it against
// the package's JSON Schema before returning it, so a malformed tuning file
// fails fast with a field-level error instead of silently producing wrong
// physics (SPEC_FULL.md §A.3).
func LoadSimConfig(path string) (SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SimConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("simconfig.schema.json", bytes.NewReader(schemaDoc)); err != nil {
		return SimConfig{}, fmt.Errorf("config: load schema: %w", err)
	}
	schema, err := compiler.Compile("simconfig.schema.json")
	if err != nil {
		return SimConfig{}, fmt.Errorf("config: compile schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return SimConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return SimConfig{}, fmt.Errorf("config: %s failed schema validation: %w", path, err)
	}

	cfg := DefaultSimConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SimConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func (c SimConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
