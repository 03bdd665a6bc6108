package email

import (
	"bytes"
	"fmt"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/Dan9191/balancify/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.sendSMTP
	return s
}

// WithTransport replaces SMTP delivery, e.g. with a queue or a test double.
func (s *Sender) WithTransport(send func(e *email.Email) error) *Sender {
	s.send = send
	return s
}

// SendAnalysisReport mails the rendered report as an XML attachment.
func (s *Sender) SendAnalysisReport(to, questionnaireID, summary string, report []byte) error {
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Your Balancify financial analysis"

	body := "Hello,\n\n"
	body += "Your financial analysis is attached as an XML report.\n\n"
	if summary != "" {
		body += summary + "\n\n"
	}
	body += fmt.Sprintf("Questionnaire: %s\nGenerated: %s\n", questionnaireID, time.Now().Format("2006-01-02 15:04:05"))
	body += "\nBest regards,\nBalancify"
	e.Text = []byte(body)

	filename := fmt.Sprintf("balancify-report-%s.xml", questionnaireID)
	if _, err := e.Attach(bytes.NewReader(report), filename, "application/xml"); err != nil {
		return fmt.Errorf("failed to attach report: %w", err)
	}

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send report to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}
