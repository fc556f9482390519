package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{EmployeeID: "emp-1", Role: RoleManager}, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.EmployeeID != "emp-1" {
		t.Fatalf("expected employee emp-1, got %q", claims.EmployeeID)
	}
	if claims.Role != RoleManager {
		t.Fatalf("expected role manager, got %q", claims.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{EmployeeID: "emp-1", Role: RoleHR}, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestRolePolicies(t *testing.T) {
	if !(UserContext{Role: RoleManager}).CanWriteReviews() {
		t.Fatal("manager should write reviews")
	}
	if (UserContext{Role: RoleEmployee}).CanWriteReviews() {
		t.Fatal("employee should not write reviews")
	}
	if (UserContext{Role: RoleManager}).CanCloseCycles() {
		t.Fatal("manager should not close cycles")
	}
	if !(UserContext{Role: RoleHR}).CanCloseCycles() {
		t.Fatal("hr should close cycles")
	}
}
