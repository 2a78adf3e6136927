package mail

import (
	"context"
	"strings"
	"testing"
)

func TestRenderHeaders(t *testing.T) {
	got := render("noreply@missio.app", Message{
		To:      "member@example.org",
		Subject: "You were added to a mission",
		Body:    "Hello",
	})
	for _, want := range []string{
		"From: noreply@missio.app\r\n",
		"To: member@example.org\r\n",
		"Subject: You were added to a mission\r\n",
		"\r\n\r\nHello",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered message missing %q:\n%s", want, got)
		}
	}
}

func TestSMTPSenderRejectsEmptyRecipient(t *testing.T) {
	s := NewSMTPSender("smtp.example.org", 587, "noreply@missio.app", "")
	if err := s.Send(context.Background(), Message{Subject: "x"}); err == nil {
		t.Fatal("expected error for empty recipient")
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).Send(context.Background(), Message{To: "a@b.co"}); err != nil {
		t.Fatal(err)
	}
}
