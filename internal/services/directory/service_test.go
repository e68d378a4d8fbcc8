package directory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"citywatch-worker/internal/models"
	"citywatch-worker/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(db)
}

func TestGetLocation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.RegisterCamera(ctx, models.Camera{ID: "cam-1", Location: "Main St & 5th"}); err != nil {
		t.Fatalf("register camera: %v", err)
	}

	location, err := svc.GetLocation(ctx, "cam-1")
	if err != nil {
		t.Fatalf("get location: %v", err)
	}
	if location != "Main St & 5th" {
		t.Errorf("location = %q, want %q", location, "Main St & 5th")
	}
}

func TestGetLocationUnknownCamera(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetLocation(context.Background(), "cam-missing")
	if !errors.Is(err, ErrCameraNotFound) {
		t.Fatalf("expected ErrCameraNotFound, got %v", err)
	}
}

func TestRegisterCameraUpserts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.RegisterCamera(ctx, models.Camera{ID: "cam-1", Location: "Old Corner"}); err != nil {
		t.Fatalf("register camera: %v", err)
	}
	if err := svc.RegisterCamera(ctx, models.Camera{ID: "cam-1", Location: "New Corner"}); err != nil {
		t.Fatalf("re-register camera: %v", err)
	}

	location, err := svc.GetLocation(ctx, "cam-1")
	if err != nil {
		t.Fatalf("get location: %v", err)
	}
	if location != "New Corner" {
		t.Errorf("location = %q, want updated %q", location, "New Corner")
	}
}

func TestResolveRecipientsOrderedAndScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, reg := range []struct {
		email string
		role  models.Role
	}{
		{"dispatch@pd.example", models.RoleLawEnforcement},
		{"chief@fd.example", models.RoleFireDepartment},
		{"sergeant@pd.example", models.RoleLawEnforcement},
	} {
		if err := svc.RegisterAuthority(ctx, reg.email, reg.role); err != nil {
			t.Fatalf("register authority %s: %v", reg.email, err)
		}
	}

	recipients, err := svc.ResolveRecipients(ctx, models.RoleLawEnforcement)
	if err != nil {
		t.Fatalf("resolve recipients: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("recipients = %d, want 2", len(recipients))
	}
	if recipients[0].Email != "dispatch@pd.example" || recipients[1].Email != "sergeant@pd.example" {
		t.Errorf("recipients out of registration order: %v", recipients)
	}
}

func TestResolveRecipientsEmptyRole(t *testing.T) {
	svc := newTestService(t)

	recipients, err := svc.ResolveRecipients(context.Background(), models.RoleRoadMaintenance)
	if err != nil {
		t.Fatalf("resolve recipients: %v", err)
	}
	if len(recipients) != 0 {
		t.Errorf("recipients = %d, want 0 without error", len(recipients))
	}
}

func TestRegisterAuthorityIgnoresDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.RegisterAuthority(ctx, "chief@fd.example", models.RoleFireDepartment); err != nil {
			t.Fatalf("register authority: %v", err)
		}
	}

	recipients, err := svc.ResolveRecipients(ctx, models.RoleFireDepartment)
	if err != nil {
		t.Fatalf("resolve recipients: %v", err)
	}
	if len(recipients) != 1 {
		t.Errorf("recipients = %d, want 1 after duplicate registrations", len(recipients))
	}
}
