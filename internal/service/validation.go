package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"

	"github.com/studia-dev/classhub-api/internal/models"
)

var joinCodePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// GenerateJoinCode produces a random join code from the unambiguous
// alphabet. Uniqueness is enforced by the classrooms table; callers retry
// on collision.
func GenerateJoinCode() (string, error) {
	alphabet := models.JoinCodeAlphabet
	code := make([]byte, models.JoinCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeJoinCode upper-cases and trims a user-supplied code.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidJoinCode reports whether the code has the expected shape.
func ValidJoinCode(code string) bool {
	return joinCodePattern.MatchString(code)
}

// validHTTPURL reports whether the value parses as an absolute http(s) URL.
func validHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
