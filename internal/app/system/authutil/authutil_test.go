package authutil

import (
	"strings"
	"testing"
)

// Test isValidEmail helper function

func TestIsValidEmail_Valid(t *testing.T) {
	validEmails := []string{
		"test@example.com",
		"user@domain.org",
		"name.surname@company.co.uk",
		"a@b.co",
	}

	for _, email := range validEmails {
		if !isValidEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}
}

func TestIsValidEmail_MissingAt(t *testing.T) {
	if isValidEmail("testexample.com") {
		t.Error("expected email without @ to be invalid")
	}
}

func TestIsValidEmail_MultipleAt(t *testing.T) {
	if isValidEmail("test@@example.com") {
		t.Error("expected email with multiple @ to be invalid")
	}
}

func TestIsValidEmail_EmptyLocalPart(t *testing.T) {
	if isValidEmail("@example.com") {
		t.Error("expected email with empty local part to be invalid")
	}
}

func TestIsValidEmail_NoDomainDot(t *testing.T) {
	if isValidEmail("test@example") {
		t.Error("expected email without domain dot to be invalid")
	}
}

func TestIsValidEmail_DotAtEnd(t *testing.T) {
	if isValidEmail("test@example.") {
		t.Error("expected email with dot at end to be invalid")
	}
}

func TestIsValidEmail_DotAtStart(t *testing.T) {
	if isValidEmail("test@.com") {
		t.Error("expected email with dot at start of domain to be invalid")
	}
}

// Test ValidateEmail

func TestValidateEmail_Empty(t *testing.T) {
	if err := ValidateEmail(""); err != ErrEmailRequired {
		t.Errorf("expected ErrEmailRequired, got %v", err)
	}
}

func TestValidateEmail_Whitespace(t *testing.T) {
	if err := ValidateEmail("   "); err != ErrEmailRequired {
		t.Errorf("expected ErrEmailRequired, got %v", err)
	}
}

func TestValidateEmail_Malformed(t *testing.T) {
	if err := ValidateEmail("not-an-email"); err != ErrInvalidEmail {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestValidateEmail_Valid(t *testing.T) {
	if err := ValidateEmail("user@example.com"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

// Test ValidatePassword

func TestValidatePassword_Empty(t *testing.T) {
	if err := ValidatePassword(""); err != ErrPasswordRequired {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestValidatePassword_TooShort(t *testing.T) {
	if err := ValidatePassword("short"); err != ErrPasswordTooShort {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestValidatePassword_TooLong(t *testing.T) {
	long := strings.Repeat("a", 73)
	if err := ValidatePassword(long); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestValidatePassword_AtBounds(t *testing.T) {
	if err := ValidatePassword(strings.Repeat("a", 8)); err != nil {
		t.Errorf("expected 8-char password to validate, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", 72)); err != nil {
		t.Errorf("expected 72-char password to validate, got %v", err)
	}
}

// Test hash round trip

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("SecurePass123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "SecurePass123" {
		t.Error("hash should not equal the plaintext password")
	}

	if !VerifyPassword("SecurePass123", hash) {
		t.Error("expected correct password to verify")
	}
	if VerifyPassword("WrongPass123", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	if VerifyPassword("anything", "not-a-bcrypt-hash") {
		t.Error("expected malformed hash to fail verification")
	}
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	h1, err := HashPassword("SecurePass123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := HashPassword("SecurePass123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if h1 == h2 {
		t.Error("expected distinct hashes for the same password")
	}
}
