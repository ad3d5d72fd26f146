package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"quest-progression-system/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 7 * 24 * time.Hour

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateStatsRequest carries per-attribute allocation deltas. Pointer fields:
// nil means the attribute is untouched, a value (including 0) is an explicit
// allocation.
type UpdateStatsRequest struct {
	StatStrength     *int `json:"stat_strength"`
	StatIntelligence *int `json:"stat_intelligence"`
	StatDiscipline   *int `json:"stat_discipline"`
	StatCharisma     *int `json:"stat_charisma"`
	StatWillpower    *int `json:"stat_willpower"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserProjection is the public view of a user's progression.
type UserProjection struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	AvatarURL        *string `json:"avatar_url,omitempty"`
	XP               int     `json:"xp"`
	LevelUpXP        int     `json:"level_up_xp"`
	Level            int     `json:"level"`
	Health           int     `json:"health"`
	LevelUpHealth    int     `json:"level_up_health"`
	StatPoints       int     `json:"stat_points"`
	StatStrength     int     `json:"stat_strength"`
	StatIntelligence int     `json:"stat_intelligence"`
	StatDiscipline   int     `json:"stat_discipline"`
	StatCharisma     int     `json:"stat_charisma"`
	StatWillpower    int     `json:"stat_willpower"`
}

func projectUser(u *models.User) *UserProjection {
	return &UserProjection{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		AvatarURL:        u.AvatarURL,
		XP:               u.XP,
		LevelUpXP:        u.LevelUpXP,
		Level:            u.Level,
		Health:           u.Health,
		LevelUpHealth:    u.LevelUpHealth,
		StatPoints:       u.StatPoints,
		StatStrength:     u.StatStrength,
		StatIntelligence: u.StatIntelligence,
		StatDiscipline:   u.StatDiscipline,
		StatCharisma:     u.StatCharisma,
		StatWillpower:    u.StatWillpower,
	}
}

// Register creates a user with starting progression values and logs them in.
func (s *AuthService) Register(req RegisterRequest) (*TokenPair, error) {
	if strings.TrimSpace(req.Name) == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: name and password are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         strings.ToLower(req.Email),
		PasswordHash:  string(hash),
		LevelUpXP:     models.StartingLevelUpXP,
		Level:         1,
		Health:        models.StartingHealth,
		LevelUpHealth: models.StartingLevelUpHealth,
	}
	if err := s.DB.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
		}
		return nil, err
	}

	return s.issueTokens(user.ID, user.Email)
}

// Login verifies credentials and rotates the refresh token. The message is
// the same for an unknown email and a bad password on purpose.
func (s *AuthService) Login(req LoginRequest) (*TokenPair, error) {
	var user models.User
	if err := s.DB.First(&user, "email = ?", strings.ToLower(req.Email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrValidation)
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrValidation)
	}
	return s.issueTokens(user.ID, user.Email)
}

// Logout drops the stored refresh-token hash so the refresh flow dies.
func (s *AuthService) Logout(userID string) error {
	return s.DB.Model(&models.User{}).
		Where("id = ? AND refresh_token_hash IS NOT NULL", userID).
		Update("refresh_token_hash", nil).Error
}

// RefreshTokens rotates both tokens after checking the presented refresh
// token against the stored hash.
func (s *AuthService) RefreshTokens(userID, refreshToken string) (*TokenPair, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != hashRefreshToken(refreshToken) {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrValidation)
	}
	return s.issueTokens(user.ID, user.Email)
}

// GetUser returns the progression projection.
func (s *AuthService) GetUser(userID string) (*UserProjection, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return projectUser(&user), nil
}

// UpdateStats allocates points from the available pool onto the named
// attributes. Allocations are additive and the sum of the supplied deltas
// must fit in the pool at allocation time.
func (s *AuthService) UpdateStats(req UpdateStatsRequest, userID string) (*UserProjection, error) {
	if req.StatStrength == nil && req.StatIntelligence == nil &&
		req.StatDiscipline == nil && req.StatCharisma == nil && req.StatWillpower == nil {
		return nil, fmt.Errorf("%w: at least one field must be provided for update", ErrValidation)
	}

	deltas := []*int{req.StatStrength, req.StatIntelligence, req.StatDiscipline, req.StatCharisma, req.StatWillpower}
	sum := 0
	for _, d := range deltas {
		if d == nil {
			continue
		}
		if *d < 0 {
			return nil, fmt.Errorf("%w: stat allocations must be non-negative", ErrValidation)
		}
		sum += *d
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}

	if sum > user.StatPoints {
		return nil, fmt.Errorf("%w: total stat points exceed available points", ErrValidation)
	}

	if req.StatStrength != nil {
		user.StatStrength += *req.StatStrength
	}
	if req.StatIntelligence != nil {
		user.StatIntelligence += *req.StatIntelligence
	}
	if req.StatDiscipline != nil {
		user.StatDiscipline += *req.StatDiscipline
	}
	if req.StatCharisma != nil {
		user.StatCharisma += *req.StatCharisma
	}
	if req.StatWillpower != nil {
		user.StatWillpower += *req.StatWillpower
	}
	user.StatPoints -= sum

	if err := s.DB.Save(&user).Error; err != nil {
		return nil, err
	}
	return projectUser(&user), nil
}

// SetAvatarURL stores the CDN URL returned by the object-storage upload.
func (s *AuthService) SetAvatarURL(userID, url string) error {
	res := s.DB.Model(&models.User{}).Where("id = ?", userID).Update("avatar_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return nil
}

// issueTokens signs a fresh access/refresh pair and persists the refresh hash.
func (s *AuthService) issueTokens(userID, email string) (*TokenPair, error) {
	access, err := signToken(userID, email, os.Getenv("AT_SECRET"))
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(userID, email, os.Getenv("RT_SECRET"))
	if err != nil {
		return nil, err
	}

	hash := hashRefreshToken(refresh)
	if err := s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", &hash).Error; err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// hashRefreshToken: refresh tokens exceed bcrypt's 72-byte input limit, so
// the stored form is a SHA-256 digest instead. The plain token never hits
// the database.
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func signToken(userID, email, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(tokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token against secret and returns the subject
// (user id). Shared by the access and refresh middleware.
func ParseToken(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token missing subject")
	}
	return sub, nil
}
