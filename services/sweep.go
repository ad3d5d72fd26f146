package services

import (
	"log"
	"time"

	"quest-progression-system/models"

	"gorm.io/gorm"
)

// SweepHealthPenalty is deducted from each user who left a DAILY quest
// PENDING when the cycle ended. Health floors at 0.
const SweepHealthPenalty = 10

type SweepService struct {
	DB *gorm.DB
}

func NewSweepService(db *gorm.DB) *SweepService {
	return &SweepService{DB: db}
}

// RunDailySweep penalizes owners of incomplete DAILY quests, then resets
// every DAILY quest to PENDING. Errors never escape to the scheduler: each
// failure is logged and the sweep self-corrects on the next cycle. A SweepRun
// marker keeps at-least-once trigger delivery from penalizing twice in the
// same UTC day.
func (s *SweepService) RunDailySweep() {
	day := time.Now().UTC().Format("2006-01-02")

	run := models.SweepRun{Day: day}
	if err := s.DB.Create(&run).Error; err != nil {
		// Unique Day index: a second trigger in the same cycle lands here.
		if isDuplicateKey(err) {
			log.Printf("[SWEEP] already ran for %s, skipping", day)
			return
		}
		// Without the marker a retry could penalize twice, so the cycle
		// waits for the next trigger instead.
		log.Printf("❌ [SWEEP] failed to record marker for %s, aborting cycle: %v", day, err)
		return
	}

	s.penalizeIncomplete()
	s.resetDailyQuests()
}

func (s *SweepService) penalizeIncomplete() {
	var incomplete []models.Quest
	if err := s.DB.
		Where("frequency = ? AND status = ?", models.FrequencyDaily, models.StatusPending).
		Find(&incomplete).Error; err != nil {
		log.Printf("[SWEEP] failed to load incomplete daily quests: %v", err)
		return
	}

	// Best-effort per user: one bad row must not stop the rest.
	for _, quest := range incomplete {
		var user models.User
		if err := s.DB.First(&user, "id = ?", quest.UserID).Error; err != nil {
			log.Printf("[SWEEP] owner %s of quest %s not loadable: %v", quest.UserID, quest.ID, err)
			continue
		}

		newHealth := user.Health - SweepHealthPenalty
		if newHealth < 0 {
			newHealth = 0
		}

		if err := s.DB.Model(&user).Update("health", newHealth).Error; err != nil {
			log.Printf("[SWEEP] failed to penalize user %s: %v", user.ID, err)
			continue
		}
		log.Printf("[SWEEP] user %s had an incomplete daily quest, health reduced to %d", user.Name, newHealth)
	}
}

func (s *SweepService) resetDailyQuests() {
	res := s.DB.Model(&models.Quest{}).
		Where("frequency = ?", models.FrequencyDaily).
		Update("status", models.StatusPending)
	if res.Error != nil {
		log.Printf("[SWEEP] daily quest reset failed: %v", res.Error)
		return
	}
	log.Printf("✅ [SWEEP] daily quests reset: %d quests updated", res.RowsAffected)
}
