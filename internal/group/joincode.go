package group

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/dukerupert/chorely/internal/apperr"
)

const (
	JoinCodeLength = 6
	joinCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateJoinCode returns a random uppercase alphanumeric join code.
func GenerateJoinCode() (string, error) {
	max := big.NewInt(int64(len(joinCodeChars)))
	b := make([]byte, JoinCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = joinCodeChars[n.Int64()]
	}
	return string(b), nil
}

// NormalizeJoinCode trims and upper-cases code and checks its length.
func NormalizeJoinCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", apperr.InvalidInput("join code is required")
	}
	if len(code) != JoinCodeLength {
		return "", apperr.InvalidInput("join code must be 6 characters")
	}
	return code, nil
}
