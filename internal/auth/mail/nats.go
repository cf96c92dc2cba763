package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/realmauth/pkg/idx"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is prepended to the message kind to form the subject
// a mail job is published on.
const DefaultSubjectPrefix = "realmauth.mail"

// Publisher is the part of *nats.Conn the transport needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Job is the payload published for the external mail worker.
type Job struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	AccountID uint32    `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NATSTransport publishes each message as a Job on <prefix>.<kind>.
type NATSTransport struct {
	Publisher Publisher
	Prefix    string
}

// ConnectNATS dials the broker for a NATSTransport.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("mail: connect nats: %w", err)
	}
	return nc, nil
}

// Subject returns the subject messages of kind are published on.
func (t NATSTransport) Subject(kind Kind) string {
	prefix := t.Prefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return prefix + "." + string(kind)
}

func (t NATSTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(Job{
		ID:        idx.New().String(),
		Kind:      msg.Kind,
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		AccountID: msg.AccountID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := t.Publisher.Publish(t.Subject(msg.Kind), data); err != nil {
		return fmt.Errorf("mail: publish %s: %w", msg.Kind, err)
	}
	return nil
}
