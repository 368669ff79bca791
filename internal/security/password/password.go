package password

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	lower    = "abcdefghijklmnopqrstuvwxyz"
	upper    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits   = "0123456789"
	specials = "@#$%&*"
)

// Generate returns a cryptographically random password of the given length
// drawn from letters, digits and @#$%&*, guaranteed to contain at least one
// character from each class. Lengths below 8 are bumped to 8.
func Generate(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	all := lower + upper + digits + specials

	for {
		buf := make([]byte, length)
		for i := range buf {
			c, err := randomChar(all)
			if err != nil {
				return "", err
			}
			buf[i] = c
		}
		if hasClass(buf, lower) && hasClass(buf, upper) && hasClass(buf, digits) && hasClass(buf, specials) {
			return string(buf), nil
		}
		// Missing a class; draw again.
	}
}

// Code returns a random numeric code of the given number of digits, used
// for email verification.
func Code(digitCount int) (string, error) {
	if digitCount <= 0 {
		digitCount = 6
	}
	buf := make([]byte, digitCount)
	for i := range buf {
		c, err := randomChar(digits)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	return string(buf), nil
}

// Hash generates a bcrypt hash of the password.
func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Verify compares a plaintext password against a stored bcrypt hash.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("failed to read random: %w", err)
	}
	return alphabet[n.Int64()], nil
}

func hasClass(buf []byte, class string) bool {
	for _, b := range buf {
		for i := 0; i < len(class); i++ {
			if b == class[i] {
				return true
			}
		}
	}
	return false
}
