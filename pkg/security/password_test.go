package security

import (
	"strings"
	"testing"

	"github.com/nexus-market/nexus-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	encoded, err := HashPassword("s3cret-pass", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", encoded)
	}

	ok, err := VerifyPassword("s3cret-pass", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected the original password to verify")
	}

	ok, err = VerifyPassword("wrong-pass", encoded)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("expected a wrong password to fail verification")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected an error for an empty password")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8$c2FsdA$aGFzaA",
	} {
		if _, err := VerifyPassword("whatever", encoded); err == nil {
			t.Fatalf("expected malformed hash %q to be rejected", encoded)
		}
	}
}

func TestGenerateTempPassword(t *testing.T) {
	got, err := GenerateTempPassword(24)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 24 {
		t.Fatalf("expected 24 characters, got %d", len(got))
	}
	if _, err := GenerateTempPassword(0); err == nil {
		t.Fatal("expected an error for a non-positive length")
	}
}
