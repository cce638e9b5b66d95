// Package email provides the SMTP implementation of the mailer port. Sends
// go through a circuit breaker so a dead relay fails fast instead of holding
// up post-commit side effect workers; the SMTP password is read from the
// secret vault on every send so a SIGHUP-triggered reload takes effect
// without a restart.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/zenora-hq/zenora-core/internal/config"
	"github.com/zenora-hq/zenora-core/internal/port/mailer"
	"github.com/zenora-hq/zenora-core/internal/resilience"
	"github.com/zenora-hq/zenora-core/internal/secrets"
)

// PasswordSecret is the vault key holding the SMTP password.
const PasswordSecret = "ZENORA_SMTP_PASSWORD" //nolint:gosec // key name, not a credential

// Mailer sends provisioning emails via SMTP.
type Mailer struct {
	cfg     config.SMTP
	breaker *resilience.Breaker
	vault   *secrets.Vault
}

// New creates an SMTP mailer. vault may be nil, in which case the password
// from cfg is used directly.
func New(cfg config.SMTP, bcfg config.Breaker, vault *secrets.Vault) *Mailer {
	return &Mailer{
		cfg:     cfg,
		breaker: resilience.NewBreaker(bcfg.MaxFailures, bcfg.Timeout),
		vault:   vault,
	}
}

// SendWelcome emails a newly provisioned employee their role, department and,
// for imported users, a temporary password.
func (m *Mailer) SendWelcome(ctx context.Context, w mailer.WelcomeMail) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>", w.Name)
	fmt.Fprintf(&b, "<p>You have been added to %s as <b>%s</b> (%s) in %s",
		w.Organization, w.JobTitle, w.Role, w.Department)
	if w.AssignedBy != "" {
		fmt.Fprintf(&b, " by %s", w.AssignedBy)
	}
	b.WriteString(".</p>")
	if w.TempPassword != "" {
		fmt.Fprintf(&b, "<p>Your temporary password is <code>%s</code>. Please change it on first login.</p>", w.TempPassword)
	}

	subject := fmt.Sprintf("Welcome to %s", w.Organization)
	return m.send(ctx, w.To, subject, b.String())
}

// SendManagerAssigned notifies a manager that a new direct report was assigned.
func (m *Mailer) SendManagerAssigned(ctx context.Context, n mailer.ManagerAssignedMail) error {
	body := fmt.Sprintf("<p>Hi %s,</p><p>%s (%s) now reports to you in %s.</p>",
		n.ManagerName, n.ReportName, n.JobTitle, n.Organization)
	return m.send(ctx, n.To, "New direct report", body)
}

func (m *Mailer) send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, to, subject, body)

	var auth smtp.Auth
	if pw := m.password(); pw != "" {
		auth = smtp.PlainAuth("", m.cfg.From, pw, m.cfg.Host)
	}

	return m.breaker.Execute(func() error {
		return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
	})
}

func (m *Mailer) password() string {
	if m.vault != nil {
		if pw := m.vault.Get(PasswordSecret); pw != "" {
			return pw
		}
	}
	return m.cfg.Password
}
