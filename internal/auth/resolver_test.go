package auth_test

import (
	"context"
	"testing"
	"time"

	"retail-backend/internal/apperror"
	"retail-backend/internal/auth"
	"retail-backend/internal/models"
	"retail-backend/internal/testfixture"
)

func TestAuthorize_Policies(t *testing.T) {
	f := testfixture.New(t)
	branch := f.Branch(t, "Accra")
	_, adminToken := f.User(t, models.RoleSupervisor, nil)
	_, salesToken := f.User(t, models.RoleSalesperson, &branch.ID)
	ctx := context.Background()

	id, err := f.Resolver.Authorize(ctx, adminToken, auth.SupervisorOnly)
	if err != nil {
		t.Fatalf("supervisor should pass SupervisorOnly: %v", err)
	}
	if !id.IsAdmin || !id.IsActive {
		t.Errorf("expected admin and active identity, got %+v", id)
	}

	_, err = f.Resolver.Authorize(ctx, salesToken, auth.SupervisorOnly)
	if apperror.KindOf(err) != apperror.PermissionDenied {
		t.Errorf("expected PermissionDenied, got %v", err)
	}

	if _, err := f.Resolver.Authorize(ctx, salesToken, auth.AnyActive); err != nil {
		t.Errorf("salesperson should pass AnyActive: %v", err)
	}
}

func TestAuthorize_InactiveBeforeRole(t *testing.T) {
	f := testfixture.New(t)
	admin, token := f.User(t, models.RoleSupervisor, nil)
	f.Deactivate(t, &admin)

	_, err := f.Resolver.Authorize(context.Background(), token, auth.SupervisorOnly)
	if apperror.KindOf(err) != apperror.AccountSuspended {
		t.Fatalf("expected AccountSuspended, got %v", err)
	}
}

func TestResolve_Errors(t *testing.T) {
	f := testfixture.New(t)
	ctx := context.Background()

	if _, err := f.Resolver.Resolve(ctx, "not-a-token"); apperror.KindOf(err) != apperror.AuthInvalid {
		t.Errorf("expected AuthInvalid for garbage token, got %v", err)
	}

	wrongKey, _ := auth.GenerateToken("another-secret-another-secret-12345", time.Hour, &models.User{ID: 1})
	if _, err := f.Resolver.Resolve(ctx, wrongKey); apperror.KindOf(err) != apperror.AuthInvalid {
		t.Errorf("expected AuthInvalid for foreign signature, got %v", err)
	}

	expired, _ := auth.GenerateToken(testfixture.Secret, -time.Minute, &models.User{ID: 1})
	if _, err := f.Resolver.Resolve(ctx, expired); apperror.KindOf(err) != apperror.AuthInvalid {
		t.Errorf("expected AuthInvalid for expired token, got %v", err)
	}

	ghost := f.Token(t, &models.User{ID: 9999, Role: models.RoleSupervisor})
	if _, err := f.Resolver.Resolve(ctx, ghost); apperror.KindOf(err) != apperror.NotFound {
		t.Errorf("expected NotFound for deleted subject, got %v", err)
	}
}

func TestCheckPassword(t *testing.T) {
	f := testfixture.New(t)
	_, token := f.User(t, models.RoleSupervisor, nil)
	ctx := context.Background()

	ok, err := f.Resolver.CheckPassword(ctx, token, testfixture.Password)
	if err != nil || !ok {
		t.Fatalf("expected password to match, ok=%v err=%v", ok, err)
	}

	ok, err = f.Resolver.CheckPassword(ctx, token, "wrong")
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, ok=%v err=%v", ok, err)
	}

	id, _ := f.Resolver.Resolve(ctx, token)
	if err := f.Resolver.Reauthenticate(id, "wrong"); apperror.KindOf(err) != apperror.AuthInvalid {
		t.Errorf("expected AuthInvalid from Reauthenticate, got %v", err)
	}
}
