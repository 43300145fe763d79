package branch

import (
	"context"
	"fmt"
	"strings"

	"retail-backend/internal/apperror"
	"retail-backend/internal/audit"
	"retail-backend/internal/auth"
	"retail-backend/internal/models"

	"gorm.io/gorm"
)

type CreateInput struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// UpdateInput leaves nil fields untouched.
type UpdateInput struct {
	Name    *string
	Address *string
	Email   *string
	Phone   *string
}

type Service struct {
	db       *gorm.DB
	resolver *auth.Resolver
}

func NewService(db *gorm.DB, resolver *auth.Resolver) *Service {
	return &Service{db: db, resolver: resolver}
}

// Create adds a branch and returns the full branch list.
func (s *Service) Create(ctx context.Context, token string, in CreateInput) ([]models.Branch, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.New(apperror.ValidationError, "branch name is required")
	}

	b := models.Branch{
		Name:     name,
		Location: strings.TrimSpace(in.Address),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
	}
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, duplicate(err)
	}
	return s.all(ctx)
}

func (s *Service) List(ctx context.Context, token string) ([]models.Branch, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}
	return s.all(ctx)
}

func (s *Service) Update(ctx context.Context, token string, id uint, in UpdateInput) ([]models.Branch, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.New(apperror.ValidationError, "branch name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Address != nil {
		updates["location"] = strings.TrimSpace(*in.Address)
	}
	if in.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(updates) == 0 {
		return nil, apperror.New(apperror.ValidationError, "nothing to update")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Branch
		if err := tx.First(&b, id).Error; err != nil {
			return apperror.FromStore(err, "branch")
		}
		if err := tx.Model(&b).Updates(updates).Error; err != nil {
			return duplicate(err)
		}
		actorID := actor.UserID()
		return audit.WriteNote(tx, audit.NoteOptions{
			Severity:   models.SeverityLow,
			Message:    fmt.Sprintf("Branch %s was edited by %s [%s]", b.Name, actor.User.FullName(), actor.User.PhoneNumber),
			ActorID:    &actorID,
			EntityType: "branch",
			EntityID:   b.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.all(ctx)
}

// Overview lists branches with their stocks and customers.
func (s *Service) Overview(ctx context.Context, token string) ([]models.Branch, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}

	var branches []models.Branch
	err := s.db.WithContext(ctx).
		Preload("Stocks").
		Preload("Customers").
		Order("name ASC").
		Find(&branches).Error
	if err != nil {
		return nil, apperror.FromStore(err, "branches")
	}
	return branches, nil
}

func (s *Service) all(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&branches).Error; err != nil {
		return nil, apperror.FromStore(err, "branches")
	}
	return branches, nil
}

func duplicate(err error) error {
	err = apperror.FromStore(err, "branch")
	if apperror.KindOf(err) == apperror.DuplicateResource {
		return apperror.Wrap(apperror.DuplicateResource, "store with same information exists", err)
	}
	return err
}
