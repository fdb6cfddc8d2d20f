// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashIdentity produces a stable HMAC digest of a respondent identity so the
// server can detect repeat respondents without ever storing raw id-card
// numbers or phone numbers. Equal identities always hash equally for a given
// salt.
func HashIdentity(phone, idCard, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(phone))
	h.Write([]byte{0})
	h.Write([]byte(idCard))
	return hex.EncodeToString(h.Sum(nil))
}

// HashIP creates a salted hash of an IP address for audit columns
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}
