package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 120000
	pbkdf2SaltBytes  = 16
	pbkdf2KeyBytes   = 32
	legacyHashPrefix = "hash_"
)

// HashPassword returns a pbkdf2$<iterations>$<base64 salt>$<base64 hash>
// encoded digest, SHA-256, with a freshly generated salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, pbkdf2SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyBytes, sha256.New)
	return fmt.Sprintf("pbkdf2$%d$%s$%s", pbkdf2Iterations,
		base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks password against an encoded hash, accepting both the
// pbkdf2 format and the legacy "hash_"+base64(password) format kept for
// backward compatibility with accounts created before the pbkdf2 rollout.
func VerifyPassword(password, encoded string) bool {
	if strings.HasPrefix(encoded, "pbkdf2$") {
		return verifyPBKDF2(password, encoded)
	}
	return encoded == legacyHashPrefix+base64.StdEncoding.EncodeToString([]byte(password))
}

func verifyPBKDF2(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// IsLegacyHash reports whether encoded uses the pre-pbkdf2 format, so a
// successful legacy login can be upgraded to pbkdf2 in place.
func IsLegacyHash(encoded string) bool {
	return strings.HasPrefix(encoded, legacyHashPrefix)
}

// NewSessionToken builds an opaque bearer token embedding the user id and
// issue timestamp alongside 24 bytes of cryptographic randomness, base64
// encoded with URL-unsafe characters stripped.
func NewSessionToken(userID int64) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token randomness: %w", err)
	}
	material := fmt.Sprintf("%d.%d.%s", userID, time.Now().UnixNano(), base64.StdEncoding.EncodeToString(raw))
	return stripURLUnsafe(base64.StdEncoding.EncodeToString([]byte(material))), nil
}

func stripURLUnsafe(s string) string {
	r := strings.NewReplacer("+", "", "/", "", "=", "")
	return r.Replace(s)
}
