package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. These match the defaults hashes were originally produced with, so
// existing `salt.hash` values keep verifying.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	keyLength    = 32
	saltLength   = 16
	DefaultBytes = 32
)

// Domain errors
var (
	ErrEmptyPassword = errors.New("password cannot be empty")
)

// HashPassword derives a salted scrypt hash.
// The salt is 16 random bytes in hex, and that hex string itself is the scrypt salt.
// PRE: password is non-empty
// POST: returns "<salt>.<hash>" with both parts hex-encoded
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	key, err := derive(password, salt)
	if err != nil {
		return "", err
	}
	return salt + "." + hex.EncodeToString(key), nil
}

// VerifyPassword checks supplied against a stored "<salt>.<hash>" value in constant time.
// Malformed stored values never verify.
// INVARIANT: no error is surfaced; every failure is false
func VerifyPassword(stored, supplied string) bool {
	salt, hashHex, ok := strings.Cut(stored, ".")
	if !ok || salt == "" || hashHex == "" {
		return false
	}
	want, err := hex.DecodeString(hashHex)
	if err != nil || len(want) != keyLength {
		return false
	}
	got, err := derive(supplied, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

func derive(password, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}
	return key, nil
}

// GenerateToken returns n random bytes hex-encoded. n <= 0 uses DefaultBytes.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateVerificationCode returns a six digit code in [100000, 999999].
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}
