package email

import (
	"context"
	"testing"
)

func TestDisabledServiceSkipsSends(t *testing.T) {
	service, err := NewService("eu-west-1", "", "CourtCue", "https://courtcue.app")
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if service.IsEnabled() {
		t.Fatal("service without a from address should be disabled")
	}

	// Sends are silent no-ops so flows that email can run unconfigured
	if err := service.SendPasswordResetEmail(context.Background(), "player@example.com", "token"); err != nil {
		t.Errorf("disabled send returned error: %v", err)
	}
	if err := service.SendWelcomeEmail(context.Background(), "player@example.com"); err != nil {
		t.Errorf("disabled send returned error: %v", err)
	}
}
