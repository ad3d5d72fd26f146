package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"quest-progression-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const questPageSize = 10

type QuestService struct {
	DB *gorm.DB
}

func NewQuestService(db *gorm.DB) *QuestService {
	return &QuestService{DB: db}
}

// CreateQuestRequest carries the fields for a new quest. Reward fields are
// pointers so a missing required numeric is detectable (0 is a legal reward).
type CreateQuestRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	XP           *int                  `json:"xp"`
	StatPoints   *int                  `json:"stat_points"`
	HealthPoints *int                  `json:"health_points"`
	Frequency    models.QuestFrequency `json:"frequency"`
}

// UpdateQuestRequest uses pointer fields so an omitted field (nil) and a
// field deliberately set to its zero value stay distinguishable.
type UpdateQuestRequest struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	XP           *int                   `json:"xp"`
	StatPoints   *int                   `json:"stat_points"`
	HealthPoints *int                   `json:"health_points"`
	Frequency    *models.QuestFrequency `json:"frequency"`
	Status       *models.QuestStatus    `json:"status"`
}

// QuestPage is the paginated listing shape.
type QuestPage struct {
	Total       int64          `json:"total"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Next        *string        `json:"next"`
	Previous    *string        `json:"previous"`
	Results     []models.Quest `json:"results"`
}

// StatusUpdateResult is returned from a status transition: the committed
// quest, the owner's post-settlement record (nil when no settlement ran)
// and a human-readable outcome message.
type StatusUpdateResult struct {
	Message string        `json:"message"`
	Quest   *models.Quest `json:"quest"`
	User    *models.User  `json:"user,omitempty"`
}

// CreateQuest persists a new PENDING quest owned by userID.
func (s *QuestService) CreateQuest(req CreateQuestRequest, userID string) (*models.Quest, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", ErrValidation)
	}
	if req.XP == nil || req.StatPoints == nil || req.HealthPoints == nil {
		return nil, fmt.Errorf("%w: xp, stat_points and health_points are required", ErrValidation)
	}
	if *req.XP < 0 || *req.StatPoints < 0 || *req.HealthPoints < 0 {
		return nil, fmt.Errorf("%w: reward fields must be non-negative", ErrValidation)
	}
	if !req.Frequency.Valid() {
		return nil, fmt.Errorf("%w: frequency must be DAILY or ONCE", ErrValidation)
	}

	quest := &models.Quest{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        req.Title,
		Slug:         slug.Make(req.Title),
		Description:  req.Description,
		XP:           *req.XP,
		StatPoints:   *req.StatPoints,
		HealthPoints: *req.HealthPoints,
		Frequency:    req.Frequency,
		Status:       models.StatusPending,
	}
	if err := s.DB.Create(quest).Error; err != nil {
		return nil, err
	}
	return quest, nil
}

// AllQuests returns one page of the global quest listing, newest first.
// An empty collection is a well-formed zero-result page; any other page
// outside [1, totalPages] is out of range.
func (s *QuestService) AllQuests(page int) (*QuestPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page %d", ErrOutOfRange, page)
	}

	var total int64
	if err := s.DB.Model(&models.Quest{}).Count(&total).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + questPageSize - 1) / questPageSize)
	if total == 0 {
		return &QuestPage{
			Total:       0,
			TotalPages:  0,
			CurrentPage: 1,
			Results:     []models.Quest{},
		}, nil
	}

	if page > totalPages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrOutOfRange, page, totalPages)
	}

	var quests []models.Quest
	if err := s.DB.
		Order("created_at DESC").
		Limit(questPageSize).
		Offset((page - 1) * questPageSize).
		Find(&quests).Error; err != nil {
		return nil, err
	}

	baseURL := os.Getenv("BASE_URL")
	result := &QuestPage{
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		Results:     quests,
	}
	if page < totalPages {
		next := fmt.Sprintf("%s/quest/get-quests/?page=%d", baseURL, page+1)
		result.Next = &next
	}
	if page > 1 {
		prev := fmt.Sprintf("%s/quest/get-quests/?page=%d", baseURL, page-1)
		result.Previous = &prev
	}
	return result, nil
}

// QuestByID returns a single quest projection.
func (s *QuestService) QuestByID(id string) (*models.Quest, error) {
	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quest %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &quest, nil
}

// UserQuests returns every quest owned by userID, newest first.
func (s *QuestService) UserQuests(userID string) ([]models.Quest, error) {
	quests := []models.Quest{}
	err := s.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quests).Error
	return quests, err
}

// findOwnedQuest loads a quest and enforces ownership.
func (s *QuestService) findOwnedQuest(id, userID string) (*models.Quest, error) {
	var quest models.Quest
	if err := s.DB.First(&quest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quest %s", ErrNotFound, id)
		}
		return nil, err
	}
	if quest.UserID != userID {
		return nil, fmt.Errorf("%w: quest belongs to another user", ErrNotOwner)
	}
	return &quest, nil
}

// UpdateQuest applies the supplied fields to an owned quest. Nil fields are
// left untouched; at least one must be present.
func (s *QuestService) UpdateQuest(id string, req UpdateQuestRequest, userID string) (*models.Quest, error) {
	if req.Title == nil && req.Description == nil && req.XP == nil &&
		req.StatPoints == nil && req.HealthPoints == nil &&
		req.Frequency == nil && req.Status == nil {
		return nil, fmt.Errorf("%w: at least one field must be provided for update", ErrValidation)
	}

	quest, err := s.findOwnedQuest(id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quest.Title = *req.Title
		quest.Slug = slug.Make(*req.Title)
	}
	if req.Description != nil {
		quest.Description = *req.Description
	}
	if req.XP != nil {
		if *req.XP < 0 {
			return nil, fmt.Errorf("%w: xp must be non-negative", ErrValidation)
		}
		quest.XP = *req.XP
	}
	if req.StatPoints != nil {
		if *req.StatPoints < 0 {
			return nil, fmt.Errorf("%w: stat_points must be non-negative", ErrValidation)
		}
		quest.StatPoints = *req.StatPoints
	}
	if req.HealthPoints != nil {
		if *req.HealthPoints < 0 {
			return nil, fmt.Errorf("%w: health_points must be non-negative", ErrValidation)
		}
		quest.HealthPoints = *req.HealthPoints
	}
	if req.Frequency != nil {
		if !req.Frequency.Valid() {
			return nil, fmt.Errorf("%w: frequency must be DAILY or ONCE", ErrValidation)
		}
		quest.Frequency = *req.Frequency
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("%w: status must be PENDING or COMPLETED", ErrValidation)
		}
		quest.Status = *req.Status
	}

	if err := s.DB.Save(quest).Error; err != nil {
		return nil, err
	}
	return quest, nil
}

// DeleteQuest removes an owned quest permanently.
func (s *QuestService) DeleteQuest(id, userID string) error {
	quest, err := s.findOwnedQuest(id, userID)
	if err != nil {
		return err
	}
	return s.DB.Unscoped().Delete(quest).Error
}

// UpdateQuestStatus drives the quest state machine. Completing a quest
// settles its rewards onto the owner: the leveling calculator runs on the
// owner's current progression (with the quest's flat stat-point reward folded
// into the pool first), then the quest status and the user's progression
// fields commit in one transaction — never one without the other.
func (s *QuestService) UpdateQuestStatus(id string, status models.QuestStatus, userID string) (*StatusUpdateResult, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status must be PENDING or COMPLETED", ErrValidation)
	}

	quest, err := s.findOwnedQuest(id, userID)
	if err != nil {
		return nil, err
	}

	if status == models.StatusCompleted && quest.Status == models.StatusCompleted {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCompleted, quest.Title)
	}

	// Non-completing transitions are a plain status write, no settlement.
	if status != models.StatusCompleted {
		if err := s.DB.Model(quest).Update("status", status).Error; err != nil {
			return nil, err
		}
		quest.Status = status
		return &StatusUpdateResult{
			Message: "Quest status updated",
			Quest:   quest,
		}, nil
	}

	var user models.User
	var settled LevelUpResult
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Conditional claim: only one completion can flip the status.
		// A concurrent completer finds zero matching rows and backs off,
		// however stale its pre-transaction read was.
		claim := tx.Model(&models.Quest{}).
			Where("id = ? AND status <> ?", quest.ID, models.StatusCompleted).
			Update("status", models.StatusCompleted)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrAlreadyCompleted, quest.Title)
		}

		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %s", ErrNotFound, userID)
			}
			return err
		}

		settled = CalculateLevelUp(LevelUpInput{
			CurrentXP:            user.XP,
			CurrentHP:            user.Health,
			XPGain:               quest.XP,
			HealthGain:           quest.HealthPoints,
			CurrentLevel:         user.Level,
			CurrentLevelUpXP:     user.LevelUpXP,
			CurrentLevelUpHealth: user.LevelUpHealth,
			CurrentStatPoints:    user.StatPoints + quest.StatPoints,
		})

		return tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"xp":              settled.XP,
				"level":           settled.Level,
				"level_up_xp":     settled.LevelUpXP,
				"level_up_health": settled.LevelUpHealth,
				"health":          settled.Health,
				"stat_points":     settled.StatPoints,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	quest.Status = models.StatusCompleted
	user.XP = settled.XP
	user.Level = settled.Level
	user.LevelUpXP = settled.LevelUpXP
	user.LevelUpHealth = settled.LevelUpHealth
	user.Health = settled.Health
	user.StatPoints = settled.StatPoints

	message := "Quest completed"
	if settled.LeveledUp {
		message = "Quest completed and leveled up!"
	}
	return &StatusUpdateResult{
		Message: message,
		Quest:   quest,
		User:    &user,
	}, nil
}
