package services

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"task-manager/api/internal/config"
	"task-manager/api/internal/models"

	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgInvalidToken    = "Invalid token."
	msgAccountDisabled = "User account is disabled."
	msgIncorrectCreds  = "Incorrect Credentials"
	msgEmailTaken      = "user with this email already exists."
	tokenKeyLength     = 40
	nonFieldErrorsKey  = "non_field_errors"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Name     string `json:"name" binding:"required,max=255"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthService interface {
	Register(db *gorm.DB, req RegisterRequest) (*models.User, *models.Token, error)
	Login(db *gorm.DB, req LoginRequest) (*models.User, *models.Token, error)
	Authenticate(db *gorm.DB, key string) (*models.User, *models.Token, error)
	Logout(db *gorm.DB, token *models.Token) error
}

type AuthServiceImpl struct {
	cfg    config.AuthConfig
	logger *log.Logger
}

func NewAuthService(cfg config.AuthConfig, logger *log.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg, logger: logger}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// newTokenKey returns 40 hex characters drawn from two random UUIDs.
func newTokenKey() (string, error) {
	a, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	b, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(append(a.Bytes(), b.Bytes()...))[:tokenKeyLength], nil
}

func (s *AuthServiceImpl) Register(db *gorm.DB, req RegisterRequest) (*models.User, *models.Token, error) {
	req.Email = NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	errs := fieldErrors{}
	if req.Name == "" {
		errs.add("name", "This field may not be blank.")
	}
	if len(req.Password) < s.cfg.MinPasswordLength {
		errs.add("password", "Ensure this field has at least "+strconv.Itoa(s.cfg.MinPasswordLength)+" characters.")
	}
	if err := errs.err(); err != nil {
		return nil, nil, err
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
		return nil, nil, storeError("check email", err)
	}
	if existing > 0 {
		return nil, nil, fieldError(ErrValidation, "email", msgEmailTaken)
	}

	cost := s.cfg.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return nil, nil, err
	}

	user := models.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
		IsActive: true,
	}
	var token *models.Token
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fieldError(ErrValidation, "email", msgEmailTaken)
			}
			return storeError("create user", err)
		}

		var err error
		token, err = issueToken(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logf(log.Fields{"user_id": user.ID}, "user registered")
	return &user, token, nil
}

// Login verifies credentials and returns the user's token, creating one if
// the user has none. Every failure reads as incorrect credentials.
func (s *AuthServiceImpl) Login(db *gorm.DB, req LoginRequest) (*models.User, *models.Token, error) {
	incorrect := fieldError(ErrValidation, nonFieldErrorsKey, msgIncorrectCreds)

	var user models.User
	if err := db.Where("email = ?", NormalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, incorrect
		}
		return nil, nil, storeError("load user", err)
	}
	if !user.IsActive || !VerifyPassword(user.Password, req.Password) {
		return nil, nil, incorrect
	}

	var token *models.Token
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		token, err = issueToken(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, token, nil
}

// Authenticate resolves a token key to its active user.
func (s *AuthServiceImpl) Authenticate(db *gorm.DB, key string) (*models.User, *models.Token, error) {
	if key == "" {
		return nil, nil, authFailed(msgInvalidToken)
	}

	var token models.Token
	if err := db.Joins("User").Where("tokens.key = ?", key).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, authFailed(msgInvalidToken)
		}
		return nil, nil, storeError("load token", err)
	}
	if !token.User.IsActive {
		return nil, nil, authFailed(msgAccountDisabled)
	}

	user := token.User
	return &user, &token, nil
}

func (s *AuthServiceImpl) Logout(db *gorm.DB, token *models.Token) error {
	if token == nil {
		return nil
	}
	if err := db.Delete(&models.Token{}, "key = ?", token.Key).Error; err != nil {
		return storeError("delete token", err)
	}
	s.logf(log.Fields{"user_id": token.UserID}, "user logged out")
	return nil
}

// issueToken returns the user's token, creating it when absent.
func issueToken(tx *gorm.DB, userID uuid.UUID) (*models.Token, error) {
	key, err := newTokenKey()
	if err != nil {
		return nil, err
	}

	var token models.Token
	err = tx.Omit(clause.Associations).
		Where(models.Token{UserID: userID}).
		Attrs(models.Token{Key: key}).
		FirstOrCreate(&token).Error
	if err != nil {
		return nil, storeError("issue token", err)
	}
	return &token, nil
}

func (s *AuthServiceImpl) logf(fields log.Fields, msg string) {
	if s.logger != nil {
		s.logger.WithFields(fields).Info(msg)
	}
}
