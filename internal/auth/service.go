package auth

import (
	"context"
	"strings"
	"time"

	"retail-backend/internal/apperror"
	"retail-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Bootstrap describes the supervisor seeded on first login when no user exists.
type Bootstrap struct {
	Email    string
	Phone    string
	Password string
}

type Service struct {
	db        *gorm.DB
	secret    string
	ttl       time.Duration
	bootstrap Bootstrap
	log       *zap.Logger
}

func NewService(db *gorm.DB, secret string, ttl time.Duration, bootstrap Bootstrap, log *zap.Logger) *Service {
	return &Service{db: db, secret: secret, ttl: ttl, bootstrap: bootstrap, log: log}
}

// Login accepts a phone number or an e-mail address as id.
func (s *Service) Login(ctx context.Context, id, password string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || password == "" {
		return "", apperror.New(apperror.AuthInvalid, "invalid credentials")
	}

	if err := s.seedSupervisor(ctx); err != nil {
		return "", err
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("phone_number = ? OR email = ?", id, strings.ToLower(id)).
		First(&user).Error
	if err != nil {
		if apperror.KindOf(apperror.FromStore(err, "user")) == apperror.NotFound {
			return "", apperror.New(apperror.AuthInvalid, "invalid credentials")
		}
		return "", apperror.FromStore(err, "user")
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return "", apperror.New(apperror.AuthInvalid, "invalid user id or password")
	}
	if !user.Active {
		return "", apperror.New(apperror.AccountSuspended, "account suspended")
	}

	token, err := GenerateToken(s.secret, s.ttl, &user)
	if err != nil {
		return "", apperror.Wrap(apperror.Internal, "token could not be created", err)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).UpdateColumn("last_login_at", now).Error; err != nil {
		s.log.Warn("last login could not be recorded", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return token, nil
}

func (s *Service) seedSupervisor(ctx context.Context) error {
	if s.bootstrap.Password == "" {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return apperror.FromStore(err, "user")
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(s.bootstrap.Password)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "password could not be hashed", err)
	}
	user := models.User{
		FirstName:    "Developer",
		LastName:     "ACCOUNT",
		Email:        s.bootstrap.Email,
		PhoneNumber:  s.bootstrap.Phone,
		PasswordHash: hash,
		Role:         models.RoleSupervisor,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return apperror.FromStore(err, "user")
	}
	s.log.Info("Seeded bootstrap supervisor", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
