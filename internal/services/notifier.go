package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/platform/sendgrid"
)

// Notifier delivers plain-text mail. Callers treat failures as non-blocking.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendGridNotifier struct {
	client sendgrid.Client
	log    *logger.Logger
}

func NewSendGridNotifier(client sendgrid.Client, baseLog *logger.Logger) Notifier {
	return &sendGridNotifier{client: client, log: baseLog.With("service", "SendGridNotifier")}
}

func (n *sendGridNotifier) Send(ctx context.Context, to, subject, body string) error {
	res, err := n.client.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: strings.TrimSpace(to)}},
		Subject:    subject,
		Text:       body,
		Categories: []string{"interview-packet"},
	})
	if err != nil {
		return err
	}
	n.log.Info("Email sent", "status", res.StatusCode, "message_id", res.MessageID)
	return nil
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier is used when no mail provider is configured; it only logs.
func NewLogNotifier(baseLog *logger.Logger) Notifier {
	return &logNotifier{log: baseLog.With("service", "LogNotifier")}
}

func (n *logNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.log.Info("Email delivery disabled; message not sent", "subject", subject, "body_chars", len(body))
	return nil
}

// PacketEmail renders the subject and body of the pre-read invitation.
func PacketEmail(leaderName, companyName, feedbackLink, senderName string) (string, string) {
	if strings.TrimSpace(companyName) == "" {
		companyName = "your organization"
	}
	greeting := "Hello,"
	if name := strings.TrimSpace(leaderName); name != "" {
		greeting = "Dear " + name + ","
	}
	subject := fmt.Sprintf("Interview Preparation: %s", companyName)
	body := fmt.Sprintf(`%s

Thank you for agreeing to speak with us.

To make the most of our conversation, we have prepared a short summary of what we have learned about %s. Please review it and let us know what we got right, what we got wrong and what we missed.

Review and respond here: %s

This should take about 3 minutes.

Best regards,
%s

---
All information was gathered from public sources or provided by our staff. No data was collected without your knowledge.
To opt out, visit: %s?action=optout
`, greeting, companyName, feedbackLink, senderName, feedbackLink)
	return subject, body
}
