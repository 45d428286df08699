package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	for raw, want := range map[string]Role{
		"user":        RoleUser,
		" Admin ":     RoleAdmin,
		"SUPER_ADMIN": RoleSuperAdmin,
	} {
		got, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseRole("owner"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleSuperAdmin.AtLeast(RoleUser) || !RoleSuperAdmin.AtLeast(RoleAdmin) {
		t.Fatal("super_admin must satisfy lower requirements")
	}
	if !RoleAdmin.AtLeast(RoleUser) {
		t.Fatal("admin must satisfy user requirement")
	}
	if RoleUser.AtLeast(RoleAdmin) {
		t.Fatal("user must not satisfy admin requirement")
	}
	if RoleUser.AtLeast("owner") {
		t.Fatal("unknown required role must never be satisfied")
	}
}

func TestTierPremium(t *testing.T) {
	premium := map[SubscriptionTier]bool{
		TierFree:       false,
		TierLaunch:     false,
		TierGrowth:     true,
		TierScale:      true,
		TierWhiteLabel: true,
		TierCustom:     true,
	}

	for tier, want := range premium {
		if got := tier.Premium(); got != want {
			t.Fatalf("%s.Premium() = %v, want %v", tier, got, want)
		}
	}
}

func TestParseTier(t *testing.T) {
	got, err := ParseTier(" White_Label ")
	if err != nil {
		t.Fatalf("ParseTier: %v", err)
	}
	if got != TierWhiteLabel {
		t.Fatalf("expected white_label, got %s", got)
	}

	if _, err := ParseTier("platinum"); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  John.Doe@EXAMPLE.com "); got != "john.doe@example.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
}

func TestAccountLockedAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	unlocked := Account{}
	if unlocked.LockedAt(now) {
		t.Fatal("account without locked_until must not be locked")
	}

	future := now.Add(10 * time.Minute)
	locked := Account{LockedUntil: &future}
	if !locked.LockedAt(now) {
		t.Fatal("account with future locked_until must be locked")
	}

	past := now.Add(-time.Second)
	expired := Account{LockedUntil: &past}
	if expired.LockedAt(now) {
		t.Fatal("elapsed lock must be treated as unlocked")
	}

	edge := Account{LockedUntil: &now}
	if edge.LockedAt(now) {
		t.Fatal("lock expiring exactly now must be treated as unlocked")
	}
}
