package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("supersafe")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "supersafe" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if !CheckPassword("supersafe", hash) {
		t.Fatal("expected the correct password to verify")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("expected the wrong password to be rejected")
	}
}
