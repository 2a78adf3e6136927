package audit

import (
	"context"
	"testing"
)

func TestValidName(t *testing.T) {
	cases := map[string]bool{
		"auth.login":          true,
		"mission.member_add":  true,
		"auth":                false,
		"auth.":               false,
		".login":              false,
		"auth.login.extended": false,
	}
	for name, want := range cases {
		if got := validName(name); got != want {
			t.Errorf("validName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("got %q, want req-123", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
}
