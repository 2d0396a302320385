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

// Download token failures. Callers map ErrTokenExpired separately so an old
// schedule export link can be told apart from a forged one.
var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("download token signature mismatch")
	ErrTokenExpired   = errors.New("download token expired")
)

// SignedURLSigner issues HMAC tokens for generated schedule exports.
// Layout: <job>.<unix expiry>.<base64url path>.<hex mac>
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer; ttl defaults to a day.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate signs a token for the export stored at relPath.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("jobID and relPath required")
	}
	if strings.Contains(jobID, ".") {
		return "", time.Time{}, fmt.Errorf("jobID %q may not contain '.'", jobID)
	}
	if !isRelativeExportPath(relPath) {
		return "", time.Time{}, fmt.Errorf("export path %q escapes storage root", relPath)
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	signature := s.sign(jobID, expiry, encodedPath)
	return strings.Join([]string{jobID, expiry, encodedPath, signature}, "."), expiresAt, nil
}

// Parse verifies a token and returns its job, path and expiry. allowExpired
// skips the clock check so cleanup can still locate stale files.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 || parts[0] == "" {
		return "", "", time.Time{}, ErrTokenMalformed
	}
	jobID, expiry, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expUnix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: expiry: %v", ErrTokenMalformed, err)
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("%w: path: %v", ErrTokenMalformed, err)
	}
	if !hmac.Equal([]byte(s.sign(jobID, expiry, encodedPath)), []byte(signature)) {
		return "", "", time.Time{}, ErrTokenSignature
	}
	relPath = string(rawPath)
	if !isRelativeExportPath(relPath) {
		return "", "", time.Time{}, fmt.Errorf("%w: path escapes storage root", ErrTokenMalformed)
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return jobID, relPath, expiresAt, nil
}

func (s *SignedURLSigner) sign(jobID, expiry, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + expiry + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
