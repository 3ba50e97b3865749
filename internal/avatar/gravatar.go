// Package avatar stores profile images in an S3-compatible bucket and
// computes default Gravatar URLs.
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// ErrInvalidEmail is returned when no Gravatar hash can be computed.
var ErrInvalidEmail = errors.New("email is not usable for gravatar")

// Gravatar returns the default avatar URL for email.
func Gravatar(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || !strings.Contains(normalized, "@") {
		return "", ErrInvalidEmail
	}
	sum := md5.Sum([]byte(normalized))
	return gravatarBase + hex.EncodeToString(sum[:]), nil
}
