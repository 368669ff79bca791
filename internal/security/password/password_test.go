package password

import (
	"strings"
	"testing"
)

func TestGenerateContainsAllClasses(t *testing.T) {
	for i := 0; i < 20; i++ {
		pw, err := Generate(12)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(pw) != 12 {
			t.Fatalf("length = %d, want 12", len(pw))
		}
		for _, class := range []string{lower, upper, digits, specials} {
			if !strings.ContainsAny(pw, class) {
				t.Errorf("password %q missing a character from %q", pw, class)
			}
		}
	}
}

func TestGenerateBumpsShortLengths(t *testing.T) {
	pw, err := Generate(3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(pw) != 8 {
		t.Errorf("length = %d, want minimum 8", len(pw))
	}
}

func TestCodeIsNumeric(t *testing.T) {
	code, err := Code(6)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("length = %d, want 6", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("code %q contains non-digit %q", code, c)
		}
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct-horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !Verify("correct-horse", hash) {
		t.Error("correct password must verify")
	}
	if Verify("wrong", hash) {
		t.Error("wrong password must not verify")
	}
}
