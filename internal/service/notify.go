package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/zenora-hq/zenora-core/internal/port/mailer"
	"github.com/zenora-hq/zenora-core/internal/port/messagequeue"
)

// NotifyService consumes provisioning events from the queue and sends the
// corresponding emails. Running it behind the queue keeps email latency and
// SMTP outages out of the request path.
type NotifyService struct {
	queue  messagequeue.Queue
	mailer mailer.Mailer

	cancels []func()
}

// NewNotifyService creates a new NotifyService.
func NewNotifyService(queue messagequeue.Queue, m mailer.Mailer) *NotifyService {
	return &NotifyService{queue: queue, mailer: m}
}

// Start subscribes to all provisioning subjects. Call Stop to unsubscribe.
func (s *NotifyService) Start(ctx context.Context) error {
	subs := map[string]messagequeue.Handler{
		messagequeue.SubjectEmployeeProvisioned: s.onProvisioned,
		messagequeue.SubjectEmployeeImported:    s.onImported,
		messagequeue.SubjectManagerAssigned:     s.onManagerAssigned,
	}
	for subject, handler := range subs {
		cancel, err := s.queue.Subscribe(ctx, subject, handler)
		if err != nil {
			s.Stop()
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.cancels = append(s.cancels, cancel)
	}
	slog.Info("notification subscriber started", "subjects", len(subs))
	return nil
}

// Stop cancels all subscriptions.
func (s *NotifyService) Stop() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

func (s *NotifyService) onProvisioned(ctx context.Context, subject string, data []byte) error {
	var p messagequeue.ProvisionedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode %s: %w", subject, err)
	}
	return s.sendWelcome(ctx, p)
}

func (s *NotifyService) onImported(ctx context.Context, subject string, data []byte) error {
	var batch messagequeue.ImportedPayload
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("decode %s: %w", subject, err)
	}
	for _, p := range batch.Employees {
		if err := s.sendWelcome(ctx, p); err != nil {
			// One bounced address must not starve the rest of the batch.
			slog.Warn("welcome mail failed", "batch_id", batch.BatchID, "to", p.Email, "error", err)
		}
	}
	return nil
}

func (s *NotifyService) onManagerAssigned(ctx context.Context, subject string, data []byte) error {
	var p messagequeue.ManagerAssignedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode %s: %w", subject, err)
	}
	return s.mailer.SendManagerAssigned(ctx, mailer.ManagerAssignedMail{
		To:           p.ManagerEmail,
		ManagerName:  p.ManagerName,
		ReportName:   p.ReportName,
		JobTitle:     p.JobTitle,
		Organization: p.Organization,
	})
}

func (s *NotifyService) sendWelcome(ctx context.Context, p messagequeue.ProvisionedPayload) error {
	return s.mailer.SendWelcome(ctx, mailer.WelcomeMail{
		To:           p.Email,
		Name:         p.Name,
		Role:         p.Role,
		JobTitle:     p.JobTitle,
		Department:   p.Department,
		Organization: p.Organization,
		AssignedBy:   p.AssignedBy,
		TempPassword: p.TempPassword,
	})
}
