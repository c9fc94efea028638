package signer

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

var (
	// ErrInvalidToken is returned for malformed or tampered tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token lifetime has elapsed.
	ErrExpiredToken = errors.New("token expired")
)

// Signer creates and validates HMAC signed, expiring tokens bound to a subject and purpose.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New constructs a signer with the provided secret and TTL.
func New(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token for subject scoped to purpose.
func (s *Signer) Generate(purpose, subject string) (string, time.Time, error) {
	if purpose == "" || subject == "" {
		return "", time.Time{}, fmt.Errorf("purpose and subject required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl)
	encodedSubject := base64.RawURLEncoding.EncodeToString([]byte(subject))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(purpose, ts, encodedSubject)
	return strings.Join([]string{ts, encodedSubject, signature}, "."), expiresAt, nil
}

// Parse validates a token for purpose and returns the embedded subject.
func (s *Signer) Parse(purpose, token string) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, ErrInvalidToken
	}
	ts, encodedSubject, signature := parts[0], parts[1], parts[2]

	expected := s.sign(purpose, ts, encodedSubject)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", time.Time{}, ErrInvalidToken
	}
	rawSubject, err := base64.RawURLEncoding.DecodeString(encodedSubject)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	expiresAt := time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return "", expiresAt, ErrExpiredToken
	}
	return string(rawSubject), expiresAt, nil
}

func (s *Signer) sign(purpose, ts, encodedSubject string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(purpose + "|" + ts + "|" + encodedSubject))
	return hex.EncodeToString(mac.Sum(nil))
}
