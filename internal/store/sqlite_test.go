package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ashureev/whatsapp-agent/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInsertAndFindByPhone(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{
		ClientID:   "acme_corp",
		ClientCode: "ACME-1001",
		Name:       "Alice Johnson",
		Phone:      "+15551234567",
		Email:      "alice@example.com",
		IsActive:   true,
	}
	if err := repo.InsertUser(ctx, user); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("Expected ID to be assigned on insert")
	}

	found, err := repo.FindByPhone(ctx, "+15551234567")
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if found == nil {
		t.Fatal("Expected a user, got nil")
	}
	if found.Name != "Alice Johnson" || found.ClientCode != "ACME-1001" {
		t.Errorf("Unexpected user %+v", found)
	}
}

func TestFindByPhone_Miss(t *testing.T) {
	repo := newTestStore(t)

	found, err := repo.FindByPhone(context.Background(), "+19999999999")
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if found != nil {
		t.Errorf("Expected nil for an unknown phone, got %+v", found)
	}
}

func TestFindByClientCode(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.InsertUser(ctx, &domain.User{
		ClientID: "globex_inc", ClientCode: "GLX-2001", Name: "Carol Davis",
		Phone: "+442071234567", Email: "carol@example.com", IsActive: true,
	}); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	found, err := repo.FindByClientCode(ctx, "GLX-2001")
	if err != nil {
		t.Fatalf("FindByClientCode failed: %v", err)
	}
	if found == nil || found.Name != "Carol Davis" {
		t.Fatalf("Expected Carol Davis, got %+v", found)
	}

	missing, err := repo.FindByClientCode(ctx, "NOPE-0000")
	if err != nil {
		t.Fatalf("FindByClientCode failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for an unknown code, got %+v", missing)
	}
}

func TestInactiveUsersAreInvisible(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.InsertUser(ctx, &domain.User{
		ClientID: "acme_corp", ClientCode: "ACME-1002", Name: "Bob Smith",
		Phone: "+15559876543", Email: "bob@example.com", IsActive: false,
	}); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	byPhone, err := repo.FindByPhone(ctx, "+15559876543")
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if byPhone != nil {
		t.Error("Inactive user must not resolve by phone")
	}

	byCode, err := repo.FindByClientCode(ctx, "ACME-1002")
	if err != nil {
		t.Fatalf("FindByClientCode failed: %v", err)
	}
	if byCode != nil {
		t.Error("Inactive user must not resolve by code")
	}
}

func TestSeedIfEmpty(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	seeded, err := SeedIfEmpty(ctx, repo)
	if err != nil {
		t.Fatalf("SeedIfEmpty failed: %v", err)
	}
	if seeded != len(SampleUsers()) {
		t.Errorf("Expected %d seeded users, got %d", len(SampleUsers()), seeded)
	}

	// A second run is a no-op.
	seeded, err = SeedIfEmpty(ctx, repo)
	if err != nil {
		t.Fatalf("SeedIfEmpty failed on second run: %v", err)
	}
	if seeded != 0 {
		t.Errorf("Expected 0 users seeded on second run, got %d", seeded)
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != int64(len(SampleUsers())) {
		t.Errorf("Expected %d users total, got %d", len(SampleUsers()), count)
	}
}
