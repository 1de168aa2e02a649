// Package mail sends the account emails: signup verification codes and
// password-reset links.
package mail

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/nundung/gamebible/internal/config"
)

// Sender is what the account service needs from the mail layer. Tests
// substitute a recording fake.
type Sender interface {
	SendVerificationCode(toEmail, code string) error
	SendPasswordReset(toEmail, resetURL string) error
}

// SMTPSender delivers through a plain SMTP dialer.
type SMTPSender struct {
	cfg    config.EmailConfig
	logger *slog.Logger
}

func NewSMTPSender(cfg config.EmailConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

// Configured reports whether the SMTP settings are complete enough to send.
func (s *SMTPSender) Configured() bool {
	return s.cfg.Host != "" && s.cfg.User != "" && s.cfg.From != ""
}

func (s *SMTPSender) SendVerificationCode(toEmail, code string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>게임대장경 이메일 인증</h2>
    <p>인증번호를 입력해 주세요.</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>인증번호는 5분간 유효합니다.</p>
  </div>
</body>
</html>`, code)
	return s.send(toEmail, "[게임대장경] 이메일 인증번호", body)
}

func (s *SMTPSender) SendPasswordReset(toEmail, resetURL string) error {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>게임대장경 비밀번호 변경</h2>
    <p>아래 버튼을 눌러 비밀번호를 변경해 주세요. 링크는 3분간 유효합니다.</p>
    <div style="margin: 16px 0;">
      <a href="%s" style="display: inline-block; padding: 12px 20px; background: #22c55e; color: #fff; text-decoration: none; border-radius: 8px; font-weight: bold;">비밀번호 변경</a>
    </div>
  </div>
</body>
</html>`, resetURL)
	return s.send(toEmail, "[게임대장경] 비밀번호 변경 안내", body)
}

func (s *SMTPSender) send(toEmail, subject, htmlBody string) error {
	if !s.Configured() {
		return fmt.Errorf("mail: smtp config missing")
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", toEmail, err)
	}

	s.logger.Info("email sent", slog.String("to", toEmail), slog.String("subject", subject))
	return nil
}
