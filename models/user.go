package models

import (
	"time"

	"gorm.io/gorm"
)

// Progression starting values. New users begin at level 1 and must earn
// StartingLevelUpXP experience before the first level-up.
const (
	StartingLevelUpXP     = 100
	StartingHealth        = 100
	StartingLevelUpHealth = 100
)

// User is the account + progression aggregate. Progression fields are only
// written by quest settlement, stat allocation and the daily sweep.
type User struct {
	ID               string  `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string  `gorm:"not null" json:"name"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash     string  `gorm:"not null" json:"-"`
	RefreshTokenHash *string `json:"-"` // nil while logged out
	AvatarURL        *string `json:"avatar_url,omitempty"`

	// Core progression
	XP            int `json:"xp" gorm:"default:0"`
	LevelUpXP     int `json:"level_up_xp" gorm:"default:100"`
	Level         int `json:"level" gorm:"default:1"`
	Health        int `json:"health" gorm:"default:100"`
	LevelUpHealth int `json:"level_up_health" gorm:"default:100"`
	StatPoints    int `json:"stat_points" gorm:"default:0"` // unallocated pool

	// Allocated attributes — only ever increased via stat allocation
	StatStrength     int `json:"stat_strength" gorm:"default:0"`
	StatIntelligence int `json:"stat_intelligence" gorm:"default:0"`
	StatDiscipline   int `json:"stat_discipline" gorm:"default:0"`
	StatCharisma     int `json:"stat_charisma" gorm:"default:0"`
	StatWillpower    int `json:"stat_willpower" gorm:"default:0"`

	Quests []Quest `gorm:"foreignKey:UserID" json:"-"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
