// Package mailer defines the outbound email port. Delivery failures are a
// side-effect concern: callers log and swallow them, never propagate.
package mailer

import "context"

// WelcomeMail is sent to a newly provisioned employee.
type WelcomeMail struct {
	To           string
	Name         string
	Role         string
	JobTitle     string
	Department   string
	Organization string
	AssignedBy   string
	TempPassword string // empty when the user already had credentials
}

// ManagerAssignedMail notifies a manager of a new direct report.
type ManagerAssignedMail struct {
	To           string
	ManagerName  string
	ReportName   string
	JobTitle     string
	Organization string
}

// Mailer is the port interface for transactional email.
type Mailer interface {
	SendWelcome(ctx context.Context, m WelcomeMail) error
	SendManagerAssigned(ctx context.Context, m ManagerAssignedMail) error
}
