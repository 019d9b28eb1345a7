package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordProducesDistinctDigests(t *testing.T) {
	first, err := HashPassword("Password@123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	second, err := HashPassword("Password@123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if first == second {
		t.Fatal("expected salted hashes to differ")
	}
	if !strings.HasPrefix(first, "$2a$10$") {
		t.Fatalf("unexpected digest format: %s", first)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatal("expected match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Fatal("expected mismatch")
	}
}

func TestCheckPasswordMalformedDigest(t *testing.T) {
	if CheckPassword("", "anything") {
		t.Fatal("empty digest must not match")
	}
	if CheckPassword("not-a-bcrypt-digest", "anything") {
		t.Fatal("malformed digest must not match")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}
