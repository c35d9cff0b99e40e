package gateway

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/coop-arena/internal/world"
)

func TestHMACIssueValidate(t *testing.T) {
	v := NewHMACValidator([]byte("secret"))
	token, err := v.Issue("player.one", time.Hour)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	subject, err := v.Validate(token)
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if subject != "player.one" {
		t.Errorf("subject = %q, expected player.one", subject)
	}
}

func TestHMACRejects(t *testing.T) {
	v := NewHMACValidator([]byte("secret"))
	good, err := v.Issue("p1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	other, err := NewHMACValidator([]byte("other")).Issue("p1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	expired := NewHMACValidator([]byte("secret"))
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("p1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(good, ".")
	tampered := "cDI." + parts[1] + "." + parts[2] // subject p2

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "abc"},
		{"wrong secret", other},
		{"expired", old},
		{"tampered subject", tampered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Validate(tt.token); !errors.Is(err, world.ErrInvalidToken) {
				t.Errorf("Validate() error = %v, expected ErrInvalidToken", err)
			}
		})
	}
}

func TestHMACIssueRequiresSubject(t *testing.T) {
	if _, err := NewHMACValidator([]byte("s")).Issue("", time.Hour); err == nil {
		t.Error("expected error for empty subject")
	}
	if _, err := NewHMACValidator(nil).Issue("p1", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=query", nil)
	if got := bearerToken(r); got != "query" {
		t.Errorf("query token = %q", got)
	}
	r.Header.Set("Authorization", "Bearer header")
	if got := bearerToken(r); got != "header" {
		t.Errorf("header token = %q", got)
	}
	r.Header.Set("Authorization", "Basic xyz")
	if got := bearerToken(r); got != "" {
		t.Errorf("non-bearer token = %q", got)
	}
}
