package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 10*time.Second, cfg.SolverWallClock)
	assert.Equal(t, 23, cfg.NightStartHour)
	assert.Equal(t, 8, cfg.NightEndHour)
	assert.Equal(t, 6, cfg.MaxHoursPerDay)
	assert.Equal(t, 1, cfg.MinGapSlots)
	assert.Equal(t, 60, cfg.SlotMinutes)
	assert.Zero(t, cfg.ProfileBeta)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SOLVER_WALL_CLOCK_SECONDS", "3")
	t.Setenv("NIGHT_START_HOUR", "22")
	t.Setenv("NIGHT_END_HOUR", "7")
	t.Setenv("MAX_HOURS_PER_DAY", "4")
	t.Setenv("SLOT_MINUTES", "30")
	t.Setenv("PROFILE_BETA", "0.5")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.SolverWallClock)
	assert.Equal(t, 22, cfg.NightStartHour)
	assert.Equal(t, 7, cfg.NightEndHour)
	assert.Equal(t, 4, cfg.MaxHoursPerDay)
	assert.Equal(t, 30, cfg.SlotMinutes)
	assert.InDelta(t, 0.5, cfg.ProfileBeta, 1e-9)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsInvalidHours(t *testing.T) {
	t.Setenv("NIGHT_START_HOUR", "24")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnevenSlotMinutes(t *testing.T) {
	t.Setenv("SLOT_MINUTES", "45")

	_, err := Load()
	assert.Error(t, err)
}
