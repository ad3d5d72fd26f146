package services

import (
	"testing"

	"quest-progression-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database migrated with the full schema.
// Max one connection: each in-memory connection would otherwise get its own
// empty database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Quest{},
		&models.SweepRun{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		ID:            uuid.NewString(),
		Name:          "Tester",
		Email:         email,
		PasswordHash:  "irrelevant",
		LevelUpXP:     models.StartingLevelUpXP,
		Level:         1,
		Health:        models.StartingHealth,
		LevelUpHealth: models.StartingLevelUpHealth,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestQuest(t *testing.T, db *gorm.DB, owner *models.User, freq models.QuestFrequency, status models.QuestStatus) *models.Quest {
	t.Helper()

	quest := &models.Quest{
		ID:           uuid.NewString(),
		UserID:       owner.ID,
		Title:        "Morning run",
		Slug:         "morning-run",
		Description:  "Run 5km before breakfast",
		XP:           20,
		StatPoints:   1,
		HealthPoints: 5,
		Frequency:    freq,
		Status:       status,
	}
	require.NoError(t, db.Create(quest).Error)
	return quest
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
