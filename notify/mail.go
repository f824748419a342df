package notify

import (
	"context"
	"errors"
	"fmt"
	"html"

	"manuscript-workflow/models"

	mail "github.com/go-mail/mail/v2"
)

// Sender is satisfied by *mail.Dialer.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

// Recipients resolves notification targets to user records.
type Recipients interface {
	ListByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	ListByRoles(ctx context.Context, roles []models.UserRole) ([]models.User, error)
}

// MailSink e-mails each addressee of a notification.
type MailSink struct {
	sender     Sender
	recipients Recipients
	from       string
}

func NewMailSink(sender Sender, recipients Recipients, from string) (*MailSink, error) {
	if sender == nil || recipients == nil {
		return nil, errors.New("mail sink requires a sender and a recipient resolver")
	}
	if from == "" {
		return nil, errors.New("smtp not configured (SMTP_FROM)")
	}
	return &MailSink{sender: sender, recipients: recipients, from: from}, nil
}

func (s *MailSink) Name() string { return "mail" }

func (s *MailSink) Deliver(ctx context.Context, n models.Notification) error {
	to, err := s.addresses(ctx, n)
	if err != nil {
		return err
	}
	if len(to) == 0 {
		return nil
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	// Recipients are blind-copied so addressees do not see each other.
	m.SetHeader("To", s.from)
	m.SetHeader("Bcc", to...)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/plain", n.Message)
	m.AddAlternative("text/html", fmt.Sprintf("<p><strong>%s</strong></p><p>%s</p>",
		html.EscapeString(n.Title), html.EscapeString(n.Message)))

	return s.sender.DialAndSend(m)
}

func (s *MailSink) addresses(ctx context.Context, n models.Notification) ([]string, error) {
	seen := map[uint]bool{}
	var to []string
	add := func(users []models.User) {
		for _, u := range users {
			if seen[u.ID] || u.Email == "" {
				continue
			}
			seen[u.ID] = true
			to = append(to, u.Email)
		}
	}

	if len(n.TargetRoles) > 0 {
		users, err := s.recipients.ListByRoles(ctx, n.TargetRoles)
		if err != nil {
			return nil, err
		}
		add(users)
	}
	if len(n.TargetUserIDs) > 0 {
		users, err := s.recipients.ListByIDs(ctx, n.TargetUserIDs)
		if err != nil {
			return nil, err
		}
		add(users)
	}
	return to, nil
}
