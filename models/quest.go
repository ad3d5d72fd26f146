package models

// QuestFrequency indicates how often a quest recurs. Only DAILY quests are
// touched by the daily sweep.
type QuestFrequency string

const (
	FrequencyDaily QuestFrequency = "DAILY"
	FrequencyOnce  QuestFrequency = "ONCE"
)

// QuestStatus is the quest lifecycle state. PENDING → COMPLETED is the only
// transition that pays out rewards.
type QuestStatus string

const (
	StatusPending   QuestStatus = "PENDING"
	StatusCompleted QuestStatus = "COMPLETED"
)

func (f QuestFrequency) Valid() bool {
	return f == FrequencyDaily || f == FrequencyOnce
}

func (s QuestStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Quest belongs to exactly one user; ownership never changes after creation.
type Quest struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string         `gorm:"index;not null" json:"user_id"`
	Title        string         `gorm:"not null" json:"title"`
	Slug         string         `gorm:"index" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	XP           int            `gorm:"not null" json:"xp"`
	StatPoints   int            `gorm:"not null" json:"stat_points"`
	HealthPoints int            `gorm:"not null" json:"health_points"`
	Frequency    QuestFrequency `gorm:"not null;default:'ONCE'" json:"frequency"`
	Status       QuestStatus    `gorm:"not null;default:'PENDING';index" json:"status"`

	Timestamps
}
