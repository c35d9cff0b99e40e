package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/coop-arena/internal/world"
)

// TokenValidator checks a bearer token and returns the player id it was
// issued for.
type TokenValidator interface {
	Validate(token string) (subject string, err error)
}

// HMACValidator issues and validates signed, expiring player tokens of the
// form base64(subject).expiry.base64(signature).
type HMACValidator struct {
	secret []byte
	now    func() time.Time
}

// NewHMACValidator creates a validator for the given shared secret.
func NewHMACValidator(secret []byte) *HMACValidator {
	return &HMACValidator{secret: secret, now: time.Now}
}

func (v *HMACValidator) sign(payload string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Issue mints a token for subject valid for ttl.
func (v *HMACValidator) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("empty subject: %w", world.ErrInvalidInput)
	}
	if len(v.secret) == 0 {
		return "", fmt.Errorf("empty secret: %w", world.ErrInvalidInput)
	}
	payload := base64.RawURLEncoding.EncodeToString([]byte(subject)) + "." +
		strconv.FormatInt(v.now().Add(ttl).Unix(), 10)
	return payload + "." + v.sign(payload), nil
}

// Validate returns the token's subject if the signature matches and the
// token has not expired.
func (v *HMACValidator) Validate(token string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("no secret configured: %w", world.ErrInvalidToken)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed token: %w", world.ErrInvalidToken)
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(v.sign(payload)), []byte(parts[2])) {
		return "", fmt.Errorf("bad signature: %w", world.ErrInvalidToken)
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("bad expiry: %w", world.ErrInvalidToken)
	}
	if v.now().Unix() >= exp {
		return "", fmt.Errorf("token expired: %w", world.ErrInvalidToken)
	}
	subject, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(subject) == 0 {
		return "", fmt.Errorf("bad subject: %w", world.ErrInvalidToken)
	}
	return string(subject), nil
}

var _ TokenValidator = (*HMACValidator)(nil)

// bearerToken extracts the token from the Authorization header, falling
// back to the token query parameter (browsers cannot set headers on a
// websocket handshake).
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
