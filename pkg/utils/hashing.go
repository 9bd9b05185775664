package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// VoterTokenBytes gives 96 bits of entropy, 24 hex chars.
	VoterTokenBytes = 12
	// CandidateTokenBytes gives 128 bits of entropy, 32 hex chars.
	CandidateTokenBytes = 16
)

// HashPassword hashes an admin password.
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func ComparePasswords(hashedPassword string, plainPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
}

// HashVoterToken salts every call, so two hashes of the same token never match
// each other. Verification has to go through CompareVoterToken.
func HashVoterToken(plaintext string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	return string(bytes), err
}

// CompareVoterToken treats every bcrypt failure, including a malformed hash, as a non-match.
func CompareVoterToken(hash string, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// HashCandidateToken is deterministic and keyless: the digest is the lookup key
// for candidates.access_token_hash.
func HashCandidateToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// VoterTokenLookupHash derives the indexed lookup column for voter tokens.
// The bcrypt hash stays the verification step; this only narrows the candidate rows.
func VoterTokenLookupHash(key string, plaintext string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid token length")
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return hex.EncodeToString(bytes), nil
}
