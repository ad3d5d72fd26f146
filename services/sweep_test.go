package services

import (
	"testing"

	"quest-progression-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDailySweep(t *testing.T) {
	db := newTestDB(t)
	svc := NewSweepService(db)

	slacker := createTestUser(t, db, "slacker@example.com")
	achiever := createTestUser(t, db, "achiever@example.com")
	bystander := createTestUser(t, db, "bystander@example.com")

	pendingDaily := createTestQuest(t, db, slacker, models.FrequencyDaily, models.StatusPending)
	completedDaily := createTestQuest(t, db, achiever, models.FrequencyDaily, models.StatusCompleted)
	onceQuest := createTestQuest(t, db, bystander, models.FrequencyOnce, models.StatusCompleted)

	svc.RunDailySweep()

	// Penalty: only the owner of the still-pending daily quest loses health.
	var u models.User
	require.NoError(t, db.First(&u, "id = ?", slacker.ID).Error)
	assert.Equal(t, models.StartingHealth-SweepHealthPenalty, u.Health)

	u = models.User{}
	require.NoError(t, db.First(&u, "id = ?", achiever.ID).Error)
	assert.Equal(t, models.StartingHealth, u.Health)

	u = models.User{}
	require.NoError(t, db.First(&u, "id = ?", bystander.ID).Error)
	assert.Equal(t, models.StartingHealth, u.Health)

	// Reset: every DAILY quest is PENDING afterwards, completed or not.
	var q models.Quest
	require.NoError(t, db.First(&q, "id = ?", pendingDaily.ID).Error)
	assert.Equal(t, models.StatusPending, q.Status)

	q = models.Quest{}
	require.NoError(t, db.First(&q, "id = ?", completedDaily.ID).Error)
	assert.Equal(t, models.StatusPending, q.Status)

	// ONCE quests are untouched.
	q = models.Quest{}
	require.NoError(t, db.First(&q, "id = ?", onceQuest.ID).Error)
	assert.Equal(t, models.StatusCompleted, q.Status)
}

func TestRunDailySweepHealthFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := NewSweepService(db)

	user := createTestUser(t, db, "frail@example.com")
	require.NoError(t, db.Model(user).Update("health", 4).Error)
	createTestQuest(t, db, user, models.FrequencyDaily, models.StatusPending)

	svc.RunDailySweep()

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Zero(t, reloaded.Health)
}

// At-least-once trigger delivery: a second run in the same cycle must not
// penalize anyone again.
func TestRunDailySweepIdempotentPerCycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewSweepService(db)

	user := createTestUser(t, db, "user@example.com")
	createTestQuest(t, db, user, models.FrequencyDaily, models.StatusPending)

	svc.RunDailySweep()
	svc.RunDailySweep()

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, models.StartingHealth-SweepHealthPenalty, reloaded.Health,
		"second sweep in the same cycle must be a no-op")

	var runs int64
	require.NoError(t, db.Model(&models.SweepRun{}).Count(&runs).Error)
	assert.EqualValues(t, 1, runs)
}

// A marker insert failure that is not the unique-day violation aborts the
// cycle: without the marker a retried trigger could penalize twice.
func TestRunDailySweepAbortsOnMarkerFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewSweepService(db)

	user := createTestUser(t, db, "user@example.com")
	createTestQuest(t, db, user, models.FrequencyDaily, models.StatusPending)

	require.NoError(t, db.Migrator().DropTable(&models.SweepRun{}))

	svc.RunDailySweep()

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, models.StartingHealth, reloaded.Health,
		"a failed marker write must not run the penalty pass")
}

// One broken row must not stop the penalty pass for everyone else.
func TestRunDailySweepBestEffortPenalty(t *testing.T) {
	db := newTestDB(t)
	svc := NewSweepService(db)

	orphanOwner := createTestUser(t, db, "gone@example.com")
	survivor := createTestUser(t, db, "still-here@example.com")
	createTestQuest(t, db, orphanOwner, models.FrequencyDaily, models.StatusPending)
	createTestQuest(t, db, survivor, models.FrequencyDaily, models.StatusPending)

	// Orphan the first quest: its owner row disappears before the sweep.
	require.NoError(t, db.Unscoped().Delete(&models.User{}, "id = ?", orphanOwner.ID).Error)

	svc.RunDailySweep()

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", survivor.ID).Error)
	assert.Equal(t, models.StartingHealth-SweepHealthPenalty, reloaded.Health)
}
