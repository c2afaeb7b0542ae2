package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/sahilchouksey/skill-academy/config"
	"github.com/sahilchouksey/skill-academy/model"
	"go.uber.org/zap"
)

// ErrSMTPNotConfigured is returned when SMTP credentials are missing
var ErrSMTPNotConfigured = errors.New("SMTP not configured")

// EmailConfig holds SMTP settings
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppURL   string
}

// EmailConfigFromEnv reads the SMTP_* settings
func EmailConfigFromEnv(env *config.EnviornmentVariable) EmailConfig {
	return EmailConfig{
		Host:     env.SMTP_HOST,
		Port:     env.SMTP_PORT,
		Username: env.SMTP_USERNAME,
		Password: env.SMTP_PASSWORD,
		From:     env.SMTP_FROM,
		AppURL:   strings.TrimRight(env.APP_URL, "/"),
	}
}

type sendFunc func(to, subject, htmlBody string) error

// EmailService handles sending emails via SMTP
type EmailService struct {
	config EmailConfig
	send   sendFunc
	log    *zap.Logger
}

// NewEmailService creates a new email service instance
func NewEmailService(config EmailConfig, log *zap.Logger) *EmailService {
	if log == nil {
		log = zap.NewNop()
	}
	e := &EmailService{config: config, log: log.Named("email")}
	e.send = e.sendSMTP
	return e
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.config.Username != "" && e.config.Password != ""
}

var enrollmentTemplate = template.Must(template.New("enrollment").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>You're enrolled in {{.Course}}</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #1f4e79;">Welcome to {{.Course}}</h2>
  <p>Hi {{.Name}},</p>
  <p>Your payment was received and the course is now in your library.</p>
  <table style="border-collapse: collapse; margin: 16px 0;">
    <tr><td style="padding: 4px 12px 4px 0;">Order</td><td>{{.OrderID}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Payment</td><td>{{.PaymentID}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Amount</td><td>{{.Amount}} {{.Currency}}</td></tr>
  </table>
  <p><a href="{{.WatchURL}}" style="background: #1f4e79; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">Start learning</a></p>
  <p style="color: #999; font-size: 12px;">Skill Academy</p>
</body>
</html>`))

type enrollmentEmail struct {
	Name      string
	Course    string
	OrderID   string
	PaymentID string
	Amount    string
	Currency  string
	WatchURL  string
}

// NotifyEnrollment emails the buyer a confirmation of a verified purchase
func (e *EmailService) NotifyEnrollment(_ context.Context, user *model.User, course *model.Course, payment *model.Payment) error {
	if !e.IsConfigured() {
		e.log.Debug("skipping enrollment email", zap.String("to", user.Email))
		return ErrSMTPNotConfigured
	}

	data := enrollmentEmail{
		Name:     user.FullName(),
		Course:   course.Title,
		OrderID:  payment.OrderID,
		Amount:   fmt.Sprintf("%d.%02d", payment.Amount/100, payment.Amount%100),
		Currency: payment.Currency,
		WatchURL: fmt.Sprintf("%s/courses/%s/watch", e.config.AppURL, course.Slug),
	}
	if payment.PaymentID != nil {
		data.PaymentID = *payment.PaymentID
	}

	var body bytes.Buffer
	if err := enrollmentTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render enrollment email: %w", err)
	}

	subject := fmt.Sprintf("You're enrolled in %s - Skill Academy", course.Title)
	if err := e.send(user.Email, subject, body.String()); err != nil {
		return err
	}

	e.log.Info("enrollment email sent", zap.String("to", user.Email), zap.String("order_id", payment.OrderID))
	return nil
}

func buildMessage(from, to, subject, htmlBody string) string {
	headers := [][2]string{
		{"From", fmt.Sprintf("Skill Academy <%s>", from)},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var message strings.Builder
	for _, h := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)
	return message.String()
}

// sendSMTP sends an email using SMTP with STARTTLS
func (e *EmailService) sendSMTP(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", e.config.Host, e.config.Port)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: e.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.config.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write([]byte(buildMessage(e.config.From, to, subject, htmlBody))); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return conn.Quit()
}
