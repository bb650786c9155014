package services

import (
	"context"
	"fmt"
	"html"

	"document-routing-api/models"
)

// Notifier tells the people a document now waits on. Failures never undo a
// transition; the service only logs them.
type Notifier interface {
	Notify(ctx context.Context, doc *models.Document, record models.AuditRecord) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *models.Document, models.AuditRecord) error { return nil }

// MailSender sends one HTML message.
type MailSender interface {
	SendMail(to []string, subject, html string) error
}

// MailNotifier notifies by email through a MailSender such as
// config.SMTPSettings.
type MailNotifier struct {
	sender MailSender
}

// NewMailNotifier returns a Notifier mailing through sender.
func NewMailNotifier(sender MailSender) *MailNotifier {
	return &MailNotifier{sender: sender}
}

func (n *MailNotifier) Notify(ctx context.Context, doc *models.Document, record models.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := notificationTargets(doc, record)
	if len(to) == 0 {
		return nil
	}
	subject := fmt.Sprintf("[%s] %s", doc.State.Legacy(), doc.Title)
	body := fmt.Sprintf(
		"<p>Document <b>%s</b> was marked <b>%s</b> by %s.</p><p>Current status: %s</p>",
		html.EscapeString(doc.Title),
		html.EscapeString(string(record.Action)),
		html.EscapeString(record.PerformedBy),
		html.EscapeString(doc.State.Legacy()),
	)
	if record.Comments != "" {
		body += fmt.Sprintf("<p>Comments: %s</p>", html.EscapeString(record.Comments))
	}
	return n.sender.SendMail(to, subject, body)
}

// notificationTargets picks who the document waits on after record: the
// approvers or recipient once it is delivered, the creator once a verdict
// lands or the document closes.
func notificationTargets(doc *models.Document, record models.AuditRecord) []string {
	switch record.Action {
	case models.ActionDeliver:
		if doc.Workflow == models.WorkflowDrop {
			if doc.RecipientEmail == "" {
				return nil
			}
			return []string{doc.RecipientEmail}
		}
		var pending []string
		for _, step := range doc.ApprovalSteps {
			if step.Status == models.StepPending {
				pending = append(pending, step.ApproverEmail)
			}
		}
		return pending
	case models.ActionApprove, models.ActionReject, models.ActionReceive:
		if doc.Workflow == models.WorkflowDrop || doc.State.Terminal() || record.Action == models.ActionReject {
			return []string{doc.CreatedBy}
		}
	case models.ActionClose, models.ActionCancel:
		var to []string
		for _, step := range doc.ApprovalSteps {
			to = append(to, step.ApproverEmail)
		}
		if doc.RecipientEmail != "" {
			to = append(to, doc.RecipientEmail)
		}
		return to
	}
	return nil
}
