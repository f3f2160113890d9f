// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/digitalhippo/hippo-backend/internal/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NotificationService sends account email through the configured SMTP relay.
type NotificationService struct {
	config   *config.Config
	sendMail sendMailFunc
}

func NewNotificationService(config *config.Config) *NotificationService {
	return &NotificationService{
		config:   config,
		sendMail: smtp.SendMail,
	}
}

// SendVerificationEmail mails the link that confirms a new account.
func (s *NotificationService) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.config.Frontend.BaseURL, url.QueryEscape(token))
	body := fmt.Sprintf("Welcome to DigitalHippo.\r\n\r\nVerify your account by opening the link below:\r\n\r\n%s\r\n", link)
	return s.sendEmail(to, "Verify your account", body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("SMTP not configured, email not sent")
		logrus.Debug(body)
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	if err := s.sendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
