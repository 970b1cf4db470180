package smtp

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
)

// SenderArgs are the mandatory arguments for building a Sender.
type SenderArgs struct {
	// Addr is the SMTP endpoint in host:port form.
	Addr string

	// From is the sender address welcome emails are issued from.
	From string
}

// SenderOptArgs are the optional arguments for building a Sender.
type SenderOptArgs = func(*Sender)

// WithPlainAuth configures SMTP plain authentication.
func WithPlainAuth(username, password string) SenderOptArgs {
	return func(s *Sender) {
		host, _, _ := strings.Cut(s.addr, ":")
		s.auth = smtp.PlainAuth("", username, password, host)
	}
}

// NewSender creates a new Sender.
func NewSender(args SenderArgs, optArgs ...SenderOptArgs) (*Sender, error) {
	if args.Addr == "" {
		return nil, errors.New("smtp address is empty")
	}
	if args.From == "" {
		return nil, errors.New("smtp from address is empty")
	}
	s := &Sender{addr: args.Addr, from: args.From, sendMail: smtp.SendMail}
	for _, opt := range optArgs {
		opt(s)
	}
	return s, nil
}

// Sender delivers welcome emails over SMTP.
type Sender struct {
	addr string
	from string
	auth smtp.Auth

	// sendMail is swappable for testing.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Send delivers the email.
func (s *Sender) Send(ctx context.Context, email model.WelcomeEmail) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(s.from, email)
	if err := s.sendMail(s.addr, s.auth, s.from, []string{email.To}, msg); err != nil {
		return fmt.Errorf("error sending mail via [%s]: %w", s.addr, err)
	}
	return nil
}

func buildMessage(from string, email model.WelcomeEmail) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + email.To + "\r\n")
	b.WriteString("Subject: Welcome to Study Buddy\r\n")
	b.WriteString("\r\n")
	name := email.Name
	if name == "" {
		name = "there"
	}
	b.WriteString("Hi " + name + ",\r\n\r\n")
	b.WriteString("Your Study Buddy account is ready. Upload your first resource and we'll build a study plan around it.\r\n")
	return []byte(b.String())
}
