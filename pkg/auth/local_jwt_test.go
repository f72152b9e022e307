package auth

import (
	"testing"
	"time"
)

func newTestAuth(t *testing.T) *LocalJWTAuth {
	t.Helper()
	a, err := NewLocalJWTAuth("test-secret-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth() error = %v", err)
	}
	return a
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"bearer token", "Bearer abc123", "abc123", false},
		{"case insensitive scheme", "bearer abc123", "abc123", false},
		{"empty header", "", "", true},
		{"missing scheme", "abc123", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty token", "Bearer   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractToken(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateAndVerifyTokens(t *testing.T) {
	a := newTestAuth(t)

	access, refresh, err := a.GenerateTokens("user-1", "u@example.com", "user")
	if err != nil {
		t.Fatalf("GenerateTokens() error = %v", err)
	}

	user, err := a.VerifyAccessToken(access)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if user.ID != "user-1" || user.Email != "u@example.com" || user.Role != "user" {
		t.Errorf("unexpected user from access token: %+v", user)
	}

	claims, err := a.VerifyRefreshToken(refresh)
	if err != nil {
		t.Fatalf("VerifyRefreshToken() error = %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("refresh claims UserID = %q, want user-1", claims.UserID)
	}
	if claims.TokenID == "" {
		t.Error("refresh token missing token ID")
	}
}

func TestVerifyRefreshTokenRejectsAccessToken(t *testing.T) {
	a := newTestAuth(t)

	access, _, err := a.GenerateTokens("user-1", "u@example.com", "user")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.VerifyRefreshToken(access); err == nil {
		t.Error("access token should not verify as a refresh token")
	}
}

func TestVerifyAccessTokenWrongSecret(t *testing.T) {
	a := newTestAuth(t)
	other, err := NewLocalJWTAuth("different-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	access, _, err := a.GenerateTokens("user-1", "u@example.com", "user")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.VerifyAccessToken(access); err == nil {
		t.Error("token signed with a different secret should fail verification")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	ok, err := VerifyPassword(hash, "Sup3rSecret")
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword(hash, "WrongPassword1")
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}

	if _, err := VerifyPassword("not-a-hash", "whatever"); err == nil {
		t.Error("malformed hash should error")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Sup3rSecret", false},
		{"too short", "Ab1", true},
		{"no uppercase", "sup3rsecret", true},
		{"no number", "SuperSecret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
