// Package notify fans out operator alerts and lead emails. Delivery
// failures are logged and swallowed: a broken notifier must never break
// the conversation itself.
package notify

import (
	"context"
	"fmt"

	"github.com/potolkibot/leadbot/internal/leads"
	"github.com/potolkibot/leadbot/pkg/logging"
)

// ChatSender delivers a plain text alert to the operator chat.
type ChatSender interface {
	SendAlert(ctx context.Context, text string) error
}

// ChatSenderFunc adapts a function to the ChatSender interface.
type ChatSenderFunc func(ctx context.Context, text string) error

func (f ChatSenderFunc) SendAlert(ctx context.Context, text string) error { return f(ctx, text) }

// StubChatSender logs alerts instead of delivering them.
type StubChatSender struct {
	logger *logging.Logger
}

// NewStubChatSender creates a stub operator chat sender.
func NewStubChatSender(logger *logging.Logger) *StubChatSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubChatSender{logger: logger}
}

func (s *StubChatSender) SendAlert(ctx context.Context, text string) error {
	s.logger.Info("stub chat sender: would alert", "text", text)
	return nil
}

// Service routes notifications to the operator chat and email.
type Service struct {
	chat    ChatSender
	email   EmailSender
	emailTo string
	logger  *logging.Logger
}

// NewService creates a notification service. chat and email may be nil;
// the corresponding channel is then skipped.
func NewService(chat ChatSender, email EmailSender, emailTo string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{chat: chat, email: email, emailTo: emailTo, logger: logger}
}

// Alert posts a message to the operator chat. Errors are logged only.
func (s *Service) Alert(ctx context.Context, text string) {
	if s.chat == nil {
		s.logger.Debug("notify: operator chat not configured, skipping alert")
		return
	}
	if err := s.chat.SendAlert(ctx, text); err != nil {
		s.logger.Error("notify: operator alert failed", "error", err)
	}
}

// LeadEmail sends the transactional email for a finalized lead with the
// lead card attached. Errors are logged only.
func (s *Service) LeadEmail(ctx context.Context, lead *leads.Lead, cardPath string) {
	if s.email == nil || s.emailTo == "" {
		s.logger.Debug("notify: email not configured, skipping lead email")
		return
	}

	subject := fmt.Sprintf("Заявка на замер: %s / %s %s", lead.City, lead.VisitDate, lead.VisitTime)
	body := fmt.Sprintf(
		"Новая заявка на бесплатный замер\n\nГород: %s\nАдрес: %s\nДата: %s\nВремя: %s\nТелефон: %s\nПлощадь: %g м²\nКанал: %s\n",
		lead.City, lead.Address, lead.VisitDate, lead.VisitTime, lead.Phone, lead.AreaM2, lead.Platform,
	)

	msg := EmailMessage{
		To:             s.emailTo,
		Subject:        subject,
		Body:           body,
		AttachmentPath: cardPath,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: lead email failed", "error", err, "lead_id", lead.ID)
		return
	}
	s.logger.Info("notify: lead email sent", "lead_id", lead.ID, "city", lead.City)
}
