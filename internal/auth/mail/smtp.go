package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"
)

var ErrInvalidAddress = errors.New("mail: invalid address")

// SMTPConfig configures SMTPTransport.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// SMTPTransport submits messages to an SMTP relay. STARTTLS is used when the
// relay offers it.
type SMTPTransport struct {
	cfg  SMTPConfig
	opts []gomail.Option
	send func(context.Context, *gomail.Msg) error
	now  func() time.Time
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("mail: smtp host and from are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	// Fail on a bad host or port now rather than on the first delivery.
	if _, err := gomail.NewClient(cfg.Host, opts...); err != nil {
		return nil, fmt.Errorf("mail: smtp client: %w", err)
	}

	t := &SMTPTransport{cfg: cfg, opts: opts, now: time.Now}
	t.send = t.dialAndSend
	return t, nil
}

// Send blocks until the relay accepts the message or ctx expires.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := t.compose(msg)
	if err != nil {
		return err
	}
	if err := t.send(ctx, m); err != nil {
		return fmt.Errorf("mail: smtp send %s: %w", msg.Kind, err)
	}
	return nil
}

func (t *SMTPTransport) compose(msg Message) (*gomail.Msg, error) {
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, ErrInvalidAddress
	}

	m := gomail.NewMsg()
	if err := m.From(t.cfg.From); err != nil {
		return nil, fmt.Errorf("mail: from %q: %w", t.cfg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(t.now())
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

// dialAndSend opens one connection per message. The dispatcher delivers
// concurrently and a go-mail client holds a single connection.
func (t *SMTPTransport) dialAndSend(ctx context.Context, m *gomail.Msg) error {
	client, err := gomail.NewClient(t.cfg.Host, t.opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}
