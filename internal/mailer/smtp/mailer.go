// Package smtp sends account notification emails over SMTP.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"

	"github.com/jordan-wright/email"

	"github.com/wingit-app/wingit-server/internal/logger"
	"github.com/wingit-app/wingit-server/internal/model"
)

const (
	activationSubject = "Wingit Account Activation"
	changeCodeSubject = "Wingit Password Change Code"

	activationBody = `Hello, %s!

Congratulations on creating your Wingit account! In order to verify your account, please click the link below.

%s

If you did not create this account, you can safely ignore this email.
`

	changeCodeBody = `Hello, %s!

Your password change code is:

%s

The code expires after a few minutes. If you did not request it, your password is still safe and nothing needs to be done.
`
)

// Config holds SMTP connection parameters plus the public API base URL used
// to build activation links.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// APIBaseURL is the externally reachable URL of the account endpoint.
	APIBaseURL string
}

var _ model.Mailer = (*Mailer)(nil)

type Mailer struct {
	cfg    Config
	logger *logger.Logger
	// send is swappable in tests
	send func(e *email.Email) error
}

func New(cfg Config, logger *logger.Logger) *Mailer {
	m := &Mailer{
		cfg:    cfg,
		logger: logger,
	}
	m.send = m.sendSMTP
	return m
}

func (m *Mailer) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	return e.Send(addr, auth)
}

// SendActivationEmail mails the verification link for a freshly created
// account.
func (m *Mailer) SendActivationEmail(ctx context.Context, username, address, verificationCode string) error {
	link := m.activationLink(username, verificationCode)

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{address}
	e.Subject = activationSubject
	e.Text = []byte(fmt.Sprintf(activationBody, username, link))

	if err := m.send(e); err != nil {
		return fmt.Errorf("failed to send activation email: %w", err)
	}

	m.logger.Info("Mailer: activation email sent", "username", username)
	return nil
}

// SendPasswordChangeCode mails a pending password change code.
func (m *Mailer) SendPasswordChangeCode(ctx context.Context, username, address, code string) error {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{address}
	e.Subject = changeCodeSubject
	e.Text = []byte(fmt.Sprintf(changeCodeBody, username, code))

	if err := m.send(e); err != nil {
		return fmt.Errorf("failed to send change code email: %w", err)
	}

	m.logger.Info("Mailer: password change code sent", "username", username)
	return nil
}

func (m *Mailer) activationLink(username, verificationCode string) string {
	query := url.Values{}
	query.Set("event_type", "verify_account")
	query.Set("username", username)
	query.Set("verification_code", verificationCode)
	return fmt.Sprintf("%s?%s", m.cfg.APIBaseURL, query.Encode())
}
