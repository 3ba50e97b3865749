package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_Format(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$") {
		t.Errorf("Hash should be in PHC format, got: %s", hash)
	}

	if parts := strings.Split(hash, "$"); len(parts) != 6 {
		t.Errorf("Hash should have 6 parts, got: %d", len(parts))
	}
}

func TestHashPassword_Salted(t *testing.T) {
	t.Parallel()

	hash1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	hash2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("Same password should produce different hashes due to random salt")
	}
	if !VerifyPassword("same-password", hash1) || !VerifyPassword("same-password", hash2) {
		t.Error("Both hashes should verify correctly")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"correct", "s3cret", hash, true},
		{"wrong password", "s3cret!", hash, false},
		{"empty password", "", hash, false},
		{"empty hash", "s3cret", "", false},
		{"wrong algorithm", "s3cret", strings.Replace(hash, "argon2id", "argon2i", 1), false},
		{"wrong version", "s3cret", strings.Replace(hash, "v=19", "v=16", 1), false},
		{"bcrypt hash", "s3cret", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy", false},
		{"truncated", "s3cret", hash[:len(hash)-40], false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := VerifyPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
