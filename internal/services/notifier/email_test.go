package notifier

import (
	"context"
	"strings"
	"testing"

	"citywatch-worker/internal/config"
)

func TestBuildAlertEmail(t *testing.T) {
	subject, body := BuildAlertEmail("fire", "Main St & 5th", 87.5)

	if subject != "Fire Alert" {
		t.Errorf("subject = %q, want %q", subject, "Fire Alert")
	}
	for _, want := range []string{
		"URGENT ALERT",
		"Location: Main St & 5th",
		"Detected: Fire",
		"Confidence Level: 87.50%",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestBuildAlertEmailCapitalizesLabel(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"gun", "Gun Alert"},
		{"accident", "Accident Alert"},
		{"Fire", "Fire Alert"},
		{"", " Alert"},
	}
	for _, tc := range cases {
		if subject, _ := BuildAlertEmail(tc.label, "somewhere", 70); subject != tc.want {
			t.Errorf("BuildAlertEmail(%q) subject = %q, want %q", tc.label, subject, tc.want)
		}
	}
}

func TestNewServiceRequiresSender(t *testing.T) {
	_, err := NewService(&config.Config{SMTPHost: "smtp.example", SMTPPort: 587})
	if err == nil {
		t.Fatal("expected error without SENDER_EMAIL")
	}
}

func TestNopSend(t *testing.T) {
	if err := (Nop{}).Send(context.Background(), "a@x", "s", "b"); err != nil {
		t.Fatalf("nop send: %v", err)
	}
}
