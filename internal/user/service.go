package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"retail-backend/internal/apperror"
	"retail-backend/internal/audit"
	"retail-backend/internal/auth"
	"retail-backend/internal/models"
	"retail-backend/internal/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Email       string
	BranchID    *uint
	Role        models.UserRole
}

type Service struct {
	db        *gorm.DB
	customers *CustomerRepository
	resolver  *auth.Resolver
	sender    notify.Sender
	log       *zap.Logger
}

func NewService(db *gorm.DB, customers *CustomerRepository, resolver *auth.Resolver, sender notify.Sender, log *zap.Logger) *Service {
	return &Service{db: db, customers: customers, resolver: resolver, sender: sender, log: log}
}

// Create provisions an account with a one-time numeric password sent by SMS.
// The account only exists if the SMS went out.
func (s *Service) Create(ctx context.Context, token string, in CreateInput) ([]models.User, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return nil, err
	}

	in.FirstName = strings.ToLower(strings.TrimSpace(in.FirstName))
	in.LastName = strings.ToLower(strings.TrimSpace(in.LastName))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	switch {
	case in.FirstName == "" || in.LastName == "":
		return nil, apperror.New(apperror.ValidationError, "first and last name are required")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, apperror.New(apperror.ValidationError, "a valid email is required")
	case in.PhoneNumber == "":
		return nil, apperror.New(apperror.ValidationError, "phone number is required")
	case !in.Role.Valid():
		return nil, apperror.New(apperror.ValidationError, "role must be SUPERVISOR or SALESPERSON")
	case in.Role == models.RoleSalesperson && in.BranchID == nil:
		return nil, apperror.New(apperror.ValidationError, "a salesperson must belong to a branch")
	}

	code, err := oneTimeCode()
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "could not generate password", err)
	}
	hash, err := auth.HashPassword(code)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "could not hash password", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.BranchID != nil {
			var b models.Branch
			if err := tx.First(&b, *in.BranchID).Error; err != nil {
				return apperror.FromStore(err, "branch")
			}
		}

		u := models.User{
			BranchID:     in.BranchID,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			PhoneNumber:  in.PhoneNumber,
			PasswordHash: hash,
			Role:         in.Role,
			Active:       true,
		}
		if err := tx.Create(&u).Error; err != nil {
			err = apperror.FromStore(err, "user")
			if apperror.KindOf(err) == apperror.DuplicateResource {
				return apperror.Wrap(apperror.DuplicateResource, "email or phone is already in use", err)
			}
			return err
		}

		actorID := actor.UserID()
		if err := audit.WriteNote(tx, audit.NoteOptions{
			Severity:   models.SeverityLow,
			Message:    fmt.Sprintf("%s (%s) was registered by %s [%s]", u.FullName(), u.Role, actor.User.FullName(), actor.User.PhoneNumber),
			ActorID:    &actorID,
			EntityType: "user",
			EntityID:   u.ID,
		}); err != nil {
			return err
		}

		// The SMS is the last step before commit so a send failure rolls the
		// user back. A commit failure after a successful send leaves the
		// recipient with a code for an account that was never stored.
		msg := fmt.Sprintf("Your password code is %s. Please do not share it with anyone", code)
		if err := s.sender.Send(ctx, u.PhoneNumber, msg); err != nil {
			s.log.Error("Password SMS failed, user not created", zap.String("phone", u.PhoneNumber), zap.Error(err))
			return apperror.Wrap(apperror.DependencyFailure, "failed to send SMS", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.all(ctx)
}

// List returns every user with their branch and the deposits they still hold.
func (s *Service) List(ctx context.Context, token string) ([]models.User, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}
	return s.all(ctx)
}

// ToggleBlock flips the active flag of another account.
func (s *Service) ToggleBlock(ctx context.Context, token, password string, id uint) ([]models.User, error) {
	actor, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.Reauthenticate(actor, password); err != nil {
		return nil, err
	}
	if id == actor.UserID() {
		return nil, apperror.New(apperror.ValidationError, "you cannot block your own account")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error; err != nil {
			return apperror.FromStore(err, "user")
		}
		wasActive := u.Active
		if err := tx.Model(&u).Update("active", !wasActive).Error; err != nil {
			return apperror.FromStore(err, "user")
		}

		verb := "blocked"
		if !wasActive {
			verb = "unblocked"
		}
		actorID := actor.UserID()
		return audit.WriteNote(tx, audit.NoteOptions{
			Severity:   models.SeverityMedium,
			Message:    fmt.Sprintf("%s was %s by %s [%s]", u.FullName(), verb, actor.User.FullName(), actor.User.PhoneNumber),
			ActorID:    &actorID,
			EntityType: "user",
			EntityID:   u.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.all(ctx)
}

// Customers groups customers by branch with their payment totals.
func (s *Service) Customers(ctx context.Context, token string) ([]BranchCustomers, error) {
	if _, err := s.resolver.Authorize(ctx, token, auth.SupervisorOnly); err != nil {
		return nil, err
	}
	groups, err := s.customers.ByBranch(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "could not access customers", err)
	}
	return groups, nil
}

// Overview is List plus the admin notes, newest first.
func (s *Service) Overview(ctx context.Context, token string) ([]models.User, []models.AdminNote, error) {
	users, err := s.List(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	notes, err := audit.ListNotes(s.db.WithContext(ctx), 0)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.Internal, "could not access admin notes", err)
	}
	return users, notes, nil
}

func (s *Service) all(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Preload("Deposits", "status = ?", models.TransactionPending).
		Preload("Branch").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, apperror.FromStore(err, "users")
	}
	return users, nil
}

// oneTimeCode returns a uniformly random six digit code.
func oneTimeCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
