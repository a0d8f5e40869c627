package ids

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// Hex returns a random lowercase hexadecimal string of n characters.
// Collisions are possible and accepted.
func Hex(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, (n+1)/2)
	rand.Read(b)
	return hex.EncodeToString(b)[:n]
}

// Connection returns a fresh identifier for a network connection
func Connection() string {
	return uuid.NewString()
}
