package auth

import (
	"context"
	"errors"

	"retail-backend/internal/apperror"
	"retail-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Policy int

const (
	AnyActive Policy = iota
	SupervisorOnly
)

type Identity struct {
	User     models.User
	IsAdmin  bool
	IsActive bool
}

func (i *Identity) UserID() uint { return i.User.ID }

// Resolver turns session tokens into identities. Every privileged operation
// goes through Authorize.
type Resolver struct {
	db     *gorm.DB
	secret string
}

func NewResolver(db *gorm.DB, secret string) *Resolver {
	return &Resolver{db: db, secret: secret}
}

// Resolve verifies the token and loads its subject.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := ParseToken(r.secret, token)
	if err != nil {
		return nil, apperror.Wrap(apperror.AuthInvalid, "invalid or expired token", err)
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "user not found")
		}
		return nil, apperror.FromStore(err, "user")
	}

	return &Identity{
		User:     user,
		IsAdmin:  user.Role == models.RoleSupervisor && user.Active,
		IsActive: user.Active,
	}, nil
}

// Authorize runs verify, load, active check and role check in that order.
func (r *Resolver) Authorize(ctx context.Context, token string, policy Policy) (*Identity, error) {
	id, err := r.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if !id.IsActive {
		return nil, apperror.New(apperror.AccountSuspended, "account suspended")
	}

	if policy == SupervisorOnly && id.User.Role != models.RoleSupervisor {
		return nil, apperror.New(apperror.PermissionDenied, "permission denied")
	}
	return id, nil
}

// CheckPassword re-authenticates the token's subject against its stored hash.
func (r *Resolver) CheckPassword(ctx context.Context, token, password string) (bool, error) {
	id, err := r.Resolve(ctx, token)
	if err != nil {
		return false, err
	}
	if !id.IsActive {
		return false, apperror.New(apperror.AccountSuspended, "account suspended")
	}
	return VerifyPassword(id.User.PasswordHash, password), nil
}

// Reauthenticate fails with AuthInvalid when password does not match.
func (r *Resolver) Reauthenticate(id *Identity, password string) error {
	if !VerifyPassword(id.User.PasswordHash, password) {
		return apperror.New(apperror.AuthInvalid, "wrong password")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
