package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const userKeyBytes = 16

// UserPathKey maps a user id to a fixed-width hex path segment. Ids such as
// "google:123" or email-like values never appear in object keys.
func UserPathKey(userID string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(userID)))
	return hex.EncodeToString(sum[:userKeyBytes])
}
