package services

import "math"

// Level-up curve constants. Each threshold crossing grows the XP requirement
// by 1.5×, the health cap by 1.2× and grants a flat stat-point bonus.
const (
	LevelUpXPGrowth      = 1.5
	LevelUpHealthGrowth  = 1.2
	LevelUpStatPointGain = 5
)

// LevelUpInput carries the user's current progression plus the reward being
// settled. CurrentStatPoints is the available pool with any flat stat-point
// reward already folded in by the caller, so one settlement accounts for both
// the quest reward and level-up bonuses.
type LevelUpInput struct {
	CurrentXP            int
	CurrentHP            int
	XPGain               int
	HealthGain           int
	CurrentLevel         int
	CurrentLevelUpXP     int
	CurrentLevelUpHealth int
	CurrentStatPoints    int
}

// LevelUpResult is the post-settlement progression state.
type LevelUpResult struct {
	XP            int
	Health        int
	Level         int
	LevelUpXP     int
	LevelUpHealth int
	StatPoints    int
	LeveledUp     bool
}

// CalculateLevelUp settles a reward against the current progression state.
// Pure and never errors: XP is added first, then the loop consumes threshold
// crossings one level at a time (a single large reward can cross several).
// Health is clamped once, after the loop, against the final health cap.
func CalculateLevelUp(in LevelUpInput) LevelUpResult {
	xp := in.CurrentXP + in.XPGain
	level := in.CurrentLevel
	levelUpXP := in.CurrentLevelUpXP
	levelUpHealth := in.CurrentLevelUpHealth
	statPoints := in.CurrentStatPoints
	leveledUp := false

	for xp >= levelUpXP {
		level++
		levelUpXP = int(math.Floor(float64(levelUpXP) * LevelUpXPGrowth))
		levelUpHealth = int(math.Floor(float64(levelUpHealth) * LevelUpHealthGrowth))
		statPoints += LevelUpStatPointGain
		leveledUp = true
	}

	health := in.CurrentHP + in.HealthGain
	if health > levelUpHealth {
		health = levelUpHealth
	}

	return LevelUpResult{
		XP:            xp,
		Health:        health,
		Level:         level,
		LevelUpXP:     levelUpXP,
		LevelUpHealth: levelUpHealth,
		StatPoints:    statPoints,
		LeveledUp:     leveledUp,
	}
}
