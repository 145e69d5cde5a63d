package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

var _ driven.Notifier = (*EmailNotifier)(nil)

// ErrSMTPNotConfigured is returned when the email channel lacks a server,
// sender or recipients.
var ErrSMTPNotConfigured = errors.New("smtp not configured")

// sendFunc matches (*email.Email).Send.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// EmailNotifier sends notifications by email.
type EmailNotifier struct {
	cfg  domain.SMTPSettings
	send sendFunc
	log  logger.Logger
}

// NewEmailNotifier creates an email notifier.
func NewEmailNotifier(cfg domain.SMTPSettings) (*EmailNotifier, error) {
	if !cfg.IsConfigured() {
		return nil, ErrSMTPNotConfigured
	}
	return &EmailNotifier{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
		log: logger.Scope("notify"),
	}, nil
}

// Notify sends one email per notification.
func (n *EmailNotifier) Notify(ctx context.Context, note domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mail := n.compose(note)
	addr := n.cfg.Server + ":" + strconv.Itoa(n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Server)
	}

	err := n.send(mail, addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		n.log.Debug("%s does not support AUTH, retrying without", addr)
		err = n.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("sending notification %s: %w", note.ID, err)
	}
	return nil
}

func (n *EmailNotifier) compose(note domain.Notification) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("CiteTrack <%s>", n.cfg.From)
	mail.To = append([]string(nil), n.cfg.To...)
	mail.Subject = "CiteTrack: " + note.Title
	mail.Headers.Set("X-CiteTrack-Notification", note.ID)

	var body strings.Builder
	body.WriteString(note.Body)
	body.WriteString("\n")

	meta := note.Metadata
	if title := meta[domain.MetaPublicationTitle]; title != "" {
		fmt.Fprintf(&body, "\nYour publication: %s", title)
	}
	if title := meta[domain.MetaCitingTitle]; title != "" {
		fmt.Fprintf(&body, "\nCited by: %s", title)
	}
	if authors := meta[domain.MetaCitingAuthors]; authors != "" {
		fmt.Fprintf(&body, "\nAuthors: %s", authors)
	}
	body.WriteString("\n")

	mail.Text = []byte(body.String())
	return mail
}
