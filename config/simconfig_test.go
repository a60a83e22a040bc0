package config

import (
	"os"
	"testing"
)

// TestEffectiveSoftLimitFallsBackToRateDefault verifies a zero
// SquadSoftLimit resolves to the rate's built-in default instead of zero.
func TestEffectiveSoftLimitFallsBackToRateDefault(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.SquadSoftLimit = 0
	cfg.Rate = Performance20Hz

	if got, want := cfg.EffectiveSoftLimit(), 5000; got != want {
		t.Errorf("EffectiveSoftLimit() = %d, want %d", got, want)
	}
}

// TestEffectiveSoftLimitHonorsExplicitOverride verifies a nonzero
// SquadSoftLimit is used as-is.
func TestEffectiveSoftLimitHonorsExplicitOverride(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.SquadSoftLimit = 42

	if got, want := cfg.EffectiveSoftLimit(), 42; got != want {
		t.Errorf("EffectiveSoftLimit() = %d, want %d", got, want)
	}
}

// TestFixedTimestepMatchesRate verifies each SimRate's tick duration.
func TestFixedTimestepMatchesRate(t *testing.T) {
	cases := []struct {
		rate SimRate
		want float64
	}{
		{Normal30Hz, 1.0 / 30.0},
		{Performance20Hz, 1.0 / 20.0},
	}
	for _, c := range cases {
		if got := c.rate.FixedTimestep(); got != c.want {
			t.Errorf("%v.FixedTimestep() = %v, want %v", c.rate, got, c.want)
		}
	}
}

// TestLoadSimConfigRejectsOutOfRangeField verifies schema validation
// catches a field outside its allowed range instead of silently accepting
// a corrupt tuning file.
func TestLoadSimConfigRejectsOutOfRangeField(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.json"
	badConfig := `{"rout_morale_threshold": 5}` // schema bounds this to [0,1]
	if err := os.WriteFile(path, []byte(badConfig), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSimConfig(path); err == nil {
		t.Fatal("expected schema validation to reject rout_morale_threshold=5")
	}
}
