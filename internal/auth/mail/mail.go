// Package mail delivers the account emails: activation links, recovery
// links and temporary passwords.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"
)

// Kind identifies which account email a message is.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindRecovery     Kind = "recovery"
	KindPassword     Kind = "password"
)

var ErrNoBaseURL = errors.New("mail: base url is required")

// Mailer sends the account emails. Callers treat delivery as best-effort.
type Mailer interface {
	SendConfirmation(ctx context.Context, token, email string, accountID uint32) error
	SendRecovery(ctx context.Context, token, email string) error
	SendPassword(ctx context.Context, password, email string) error
}

// Message is a rendered email ready for a Transport.
type Message struct {
	Kind      Kind
	To        string
	Subject   string
	Body      string
	AccountID uint32
}

// Transport delivers rendered messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Postman renders account emails from templates and hands them to a
// Transport.
type Postman struct {
	baseURL   string
	templates *template.Template
	transport Transport
}

var _ Mailer = (*Postman)(nil)

// NewPostman returns a Mailer whose links point at baseURL, the public
// address of this service.
func NewPostman(baseURL string, transport Transport) (*Postman, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("mail: parse base url: %w", err)
	}
	return &Postman{
		baseURL:   baseURL,
		templates: templates,
		transport: transport,
	}, nil
}

// ActivationURL is the link mailed to confirm an address.
func (p *Postman) ActivationURL(accountID uint32, token string) string {
	return fmt.Sprintf("%s/activation/%d/%s", p.baseURL, accountID, url.PathEscape(token))
}

// RecoveryURL is the link mailed to reset a password.
func (p *Postman) RecoveryURL(email, token string) string {
	return fmt.Sprintf("%s/pass_recover/%s/%s", p.baseURL, url.PathEscape(email), url.PathEscape(token))
}

func (p *Postman) SendConfirmation(ctx context.Context, token, email string, accountID uint32) error {
	return p.send(ctx, KindConfirmation, email, accountID, map[string]any{
		"Link": p.ActivationURL(accountID, token),
	})
}

func (p *Postman) SendRecovery(ctx context.Context, token, email string) error {
	return p.send(ctx, KindRecovery, email, 0, map[string]any{
		"Link": p.RecoveryURL(email, token),
	})
}

func (p *Postman) SendPassword(ctx context.Context, password, email string) error {
	return p.send(ctx, KindPassword, email, 0, map[string]any{
		"Password": password,
		"Login":    p.baseURL,
	})
}

func (p *Postman) send(ctx context.Context, kind Kind, to string, accountID uint32, data map[string]any) error {
	msg := Message{Kind: kind, To: to, AccountID: accountID}

	var buf bytes.Buffer
	if err := p.templates.ExecuteTemplate(&buf, string(kind)+".subject", data); err != nil {
		return fmt.Errorf("mail: render %s subject: %w", kind, err)
	}
	msg.Subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := p.templates.ExecuteTemplate(&buf, string(kind)+".body", data); err != nil {
		return fmt.Errorf("mail: render %s body: %w", kind, err)
	}
	msg.Body = buf.String()

	return p.transport.Send(ctx, msg)
}
