package mail

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nundung/gamebible/internal/config"
)

func TestConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	complete := NewSMTPSender(config.EmailConfig{
		Host: "smtp.example.com", Port: 587, User: "mailer", Password: "pw", From: "noreply@example.com",
	}, logger)
	if !complete.Configured() {
		t.Error("complete settings reported unconfigured")
	}

	for name, cfg := range map[string]config.EmailConfig{
		"empty":     {},
		"no host":   {User: "mailer", From: "noreply@example.com"},
		"no sender": {Host: "smtp.example.com", User: "mailer"},
	} {
		if NewSMTPSender(cfg, logger).Configured() {
			t.Errorf("%s settings reported configured", name)
		}
	}
}

func TestSendWithoutConfig(t *testing.T) {
	s := NewSMTPSender(config.EmailConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := s.SendVerificationCode("user@example.com", "04217"); err == nil {
		t.Error("sending without smtp settings succeeded")
	}
}
