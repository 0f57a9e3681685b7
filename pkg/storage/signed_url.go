package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signed token failures.
var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// SignedURLSigner issues time-limited tokens that name a stored file.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer. A non-positive ttl falls back to one hour.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token of the form <path>.<expiry>.<signature>.
func (s *SignedURLSigner) Sign(name string) (string, time.Time, error) {
	if name == "" {
		return "", time.Time{}, fmt.Errorf("file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(name))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{encoded, exp, s.mac(encoded, exp)}, "."), expiresAt, nil
}

// Verify checks the token signature and expiry and returns the file name it carries.
func (s *SignedURLSigner) Verify(token string) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, ErrTokenMalformed
	}
	encoded, exp, signature := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(s.mac(encoded, exp)), []byte(signature)) {
		return "", time.Time{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrTokenMalformed
	}
	name, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", time.Time{}, ErrTokenMalformed
	}
	expiresAt := time.Unix(unix, 0)
	if s.now().After(expiresAt) {
		return "", expiresAt, ErrTokenExpired
	}
	return string(name), expiresAt, nil
}

func (s *SignedURLSigner) mac(encoded, exp string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(encoded + "|" + exp))
	return hex.EncodeToString(h.Sum(nil))
}
