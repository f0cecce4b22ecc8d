// Package pairing generates and normalizes the short codes a screen shows
// while it waits to be claimed by a physical client.
package pairing

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// no 0/O or 1/I to keep codes readable off a TV across the room
const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CodeLength = 6

func GenerateCode() (string, error) {
	b := make([]byte, CodeLength)
	max := big.NewInt(int64(len(charset)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}

// NormalizeCode upper-cases a typed code and drops separators.
func NormalizeCode(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "", "-", "").Replace(raw)
}
